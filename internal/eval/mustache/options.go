package mustache

import (
	"fmt"
	"strings"
)

// Compile option keys
const (
	// OptionContentType selects how variable tags escape their output
	OptionContentType = "content_type"
)

// Content types accepted by OptionContentType
const (
	ContentTypePlain      = "text/plain"
	ContentTypeJSON       = "application/json"
	ContentTypeURLEncoded = "application/x-www-form-urlencoded"
)

// encoder appends an escaped rendering of s to dst
type encoder func(dst []byte, s string) []byte

func plainEncoder(dst []byte, s string) []byte { return append(dst, s...) }

var encoders = map[string]encoder{
	ContentTypePlain:      plainEncoder,
	ContentTypeJSON:       appendEscaped,
	ContentTypeURLEncoded: appendURLEncoded,
}

// Options configures compilation
type Options struct {
	// Name identifies the template in syntax errors
	Name string
	// ContentType selects the variable encoder; empty means text/plain
	ContentType string
}

// ParseOptions builds Options from string compile parameters
func ParseOptions(name string, params map[string]string) (Options, error) {
	opts := Options{Name: name}
	for k, v := range params {
		switch k {
		case OptionContentType:
			opts.ContentType = v
		default:
			return Options{}, fmt.Errorf("unsupported compile option [%s]", k)
		}
	}
	return opts, nil
}

func (o Options) encoder() (encoder, error) {
	ct := strings.ToLower(strings.TrimSpace(o.ContentType))
	if ct == "" {
		return plainEncoder, nil
	}
	// Ignore parameters such as "; charset=UTF-8".
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	enc, ok := encoders[ct]
	if !ok {
		return nil, fmt.Errorf("No encoder found for MIME type [%s]", o.ContentType)
	}
	return enc, nil
}

func (o Options) name() string {
	if o.Name == "" {
		return "inline"
	}
	return o.Name
}
