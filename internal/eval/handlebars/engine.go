package handlebars

import (
	"fmt"
	"strings"

	"github.com/aymerick/raymond"
	"go.uber.org/zap"

	"github.com/aescanero/dago-node-template/internal/eval/mustache"
)

// Engine compiles Handlebars templates
type Engine struct {
	logger *zap.Logger
}

// Template is a parsed Handlebars template with the engine helpers attached
type Template struct {
	tmpl *raymond.Template
}

// NewEngine creates a new template engine
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Compile parses a template and registers the helpers on it
func (e *Engine) Compile(templateStr string) (*Template, error) {
	if templateStr == "" {
		return nil, fmt.Errorf("cannot compile empty template")
	}

	tmpl, err := raymond.Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	tmpl.RegisterHelpers(helpers())

	e.logger.Debug("handlebars template compiled", zap.Int("length", len(templateStr)))
	return &Template{tmpl: tmpl}, nil
}

// Exec renders the template. Data is normalized to plain Go maps and slices
// first so ordered maps and other mustache values are traversable.
func (t *Template) Exec(data interface{}) (string, error) {
	result, err := t.tmpl.Exec(mustache.ValueOf(data).Interface())
	if err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}
	return result, nil
}

// helpers returns the helper set attached to every template
func helpers() map[string]interface{} {
	return map[string]interface{}{
		// toJson helper - serialize a value, scalars stay unquoted
		"toJson": func(value interface{}) raymond.SafeString {
			return raymond.SafeString(mustache.JSONText(value))
		},

		// join helper - join array elements, delimiter="," by default
		"join": func(value interface{}, options *raymond.Options) raymond.SafeString {
			delimiter := mustache.DefaultDelimiter
			if d := options.HashProp("delimiter"); d != nil {
				delimiter = raymond.Str(d)
			}
			return raymond.SafeString(mustache.Join(value, delimiter))
		},

		// url block helper - form-urlencode the rendered block
		"url": func(options *raymond.Options) raymond.SafeString {
			return raymond.SafeString(mustache.URLEncode(options.Fn()))
		},

		"uppercase": func(str string) string {
			return strings.ToUpper(str)
		},

		"lowercase": func(str string) string {
			return strings.ToLower(str)
		},

		"trim": func(str string) string {
			return strings.TrimSpace(str)
		},

		// default helper - return default value if first arg is empty
		"default": func(value interface{}, defaultValue interface{}) interface{} {
			if value == nil || value == "" {
				return defaultValue
			}
			return value
		},

		"eq": func(a, b interface{}) bool {
			return a == b
		},

		"ne": func(a, b interface{}) bool {
			return a != b
		},

		"gt": func(a, b float64) bool {
			return a > b
		},

		"lt": func(a, b float64) bool {
			return a < b
		},

		"contains": func(str, substr string) bool {
			return strings.Contains(str, substr)
		},

		// len helper - length of array/string/map
		"len": func(value interface{}) int {
			switch v := value.(type) {
			case string:
				return len(v)
			case []interface{}:
				return len(v)
			case map[string]interface{}:
				return len(v)
			default:
				return 0
			}
		},
	}
}
