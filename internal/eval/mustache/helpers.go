package mustache

import (
	"fmt"
	"regexp"
	"strings"
)

// HelperKind identifies a custom block helper
type HelperKind uint8

const (
	HelperToJSON HelperKind = iota + 1
	HelperJoin
	HelperURL
)

// DefaultDelimiter separates joined elements when no delimiter option is given
const DefaultDelimiter = ","

var helperNames = map[HelperKind]string{
	HelperToJSON: "toJson",
	HelperJoin:   "join",
	HelperURL:    "url",
}

// helperOptions lists the options each helper accepts
var helperOptions = map[HelperKind][]string{
	HelperJoin: {"delimiter"},
}

// String returns the helper's tag name
func (k HelperKind) String() string {
	return helperNames[k]
}

// lookupHelper matches a section tag's first word against the helper names,
// ignoring case.
func lookupHelper(word string) (HelperKind, bool) {
	for kind, name := range helperNames {
		if strings.EqualFold(word, name) {
			return kind, true
		}
	}
	return 0, false
}

var optionPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)='([^']*)'`)

// parseOptions parses `key='value'` pairs separated by whitespace
func parseOptions(s string) (map[string]string, error) {
	opts := make(map[string]string)
	s = strings.TrimSpace(s)
	for s != "" {
		m := optionPattern.FindStringSubmatch(s)
		if m == nil {
			return nil, fmt.Errorf("malformed option %q", s)
		}
		if _, dup := opts[m[1]]; dup {
			return nil, fmt.Errorf("duplicate option %q", m[1])
		}
		opts[m[1]] = m[2]
		s = strings.TrimSpace(s[len(m[0]):])
	}
	return opts, nil
}

// helperNode is a toJson, join or url block. For toJson and join the body
// names exactly one identifier (path), unless passthrough is set, in which
// case the body is a single nested block whose output is emitted as is.
type helperNode struct {
	kind        HelperKind
	args        map[string]string
	path        Path
	passthrough bool
	body        []node
}

func (n *helperNode) render(dst []byte, s scopes, enc encoder) []byte {
	if n.kind == HelperURL {
		body := renderNodes(nil, n.body, s, enc)
		return appendURLEncoded(dst, string(body))
	}
	if n.passthrough {
		return renderNodes(dst, n.body, s, enc)
	}
	v, ok := s.resolve(n.path)
	if !ok {
		return dst
	}
	switch n.kind {
	case HelperToJSON:
		return appendToJSON(dst, v)
	case HelperJoin:
		return appendJoined(dst, v, n.delimiter())
	}
	return dst
}

func (n *helperNode) delimiter() string {
	if d, ok := n.args["delimiter"]; ok {
		return d
	}
	return DefaultDelimiter
}

// appendToJSON writes scalars in their text form and collections and maps
// as compact JSON. Null writes nothing.
func appendToJSON(dst []byte, v Value) []byte {
	if v.IsScalar() {
		return append(dst, v.Text()...)
	}
	return AppendJSON(dst, v)
}

// appendJoined writes the text forms of a collection's elements separated
// by delim. Anything other than a list or set writes nothing.
func appendJoined(dst []byte, v Value, delim string) []byte {
	if !v.IsCollection() {
		return dst
	}
	for i, e := range v.elems {
		if i > 0 {
			dst = append(dst, delim...)
		}
		dst = append(dst, e.Text()...)
	}
	return dst
}

// Join returns the text forms of data's elements joined by delim. data that
// is not a slice, array or set yields the empty string.
func Join(data interface{}, delim string) string {
	return string(appendJoined(nil, ValueOf(data), delim))
}

// JSONText returns what the toJson helper writes for data: scalars in their
// text form, maps and collections as compact JSON, null as the empty string.
func JSONText(data interface{}) string {
	return string(appendToJSON(nil, ValueOf(data)))
}
