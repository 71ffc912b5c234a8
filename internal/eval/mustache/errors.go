package mustache

import (
	"errors"
	"fmt"
)

// ErrEmptyTemplate is returned when compiling an empty template source
var ErrEmptyTemplate = errors.New("cannot compile null or empty template")

// SyntaxError reports a malformed template. Compilation aborts on the first
// one and no partial template is returned.
type SyntaxError struct {
	Template string
	Line     int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s @[%s:%d]", e.Msg, e.Template, e.Line)
}

func newSyntaxError(template string, line int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{
		Template: template,
		Line:     line,
		Msg:      fmt.Sprintf(format, args...),
	}
}

// IsSyntaxError reports whether err wraps a *SyntaxError
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
