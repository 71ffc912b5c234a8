package mustache

import (
	"math"
	"strconv"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// AppendJSON appends the compact JSON encoding of v to dst.
//
// Map keys are written in insertion order and no HTML escaping is applied.
// Non-finite floats encode as null.
func AppendJSON(dst []byte, v Value) []byte {
	switch v.kind {
	case KindNull:
		return append(dst, "null"...)
	case KindBool:
		return strconv.AppendBool(dst, v.b)
	case KindInt:
		if v.big {
			return strconv.AppendUint(dst, v.u, 10)
		}
		return strconv.AppendInt(dst, v.i, 10)
	case KindFloat:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return append(dst, "null"...)
		}
		return append(dst, formatFloat(v.f, v.bits)...)
	case KindString:
		return appendQuoted(dst, v.s)
	case KindMap:
		dst = append(dst, '{')
		first := true
		v.m.Range(func(k string, e Value) bool {
			if !first {
				dst = append(dst, ',')
			}
			first = false
			dst = appendQuoted(dst, k)
			dst = append(dst, ':')
			dst = AppendJSON(dst, e)
			return true
		})
		return append(dst, '}')
	case KindList, KindSet:
		dst = append(dst, '[')
		for i, e := range v.elems {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = AppendJSON(dst, e)
		}
		return append(dst, ']')
	}
	return dst
}

// ToJSON returns the compact JSON encoding of data
func ToJSON(data interface{}) string {
	return string(AppendJSON(nil, ValueOf(data)))
}

func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	dst = appendEscaped(dst, s)
	return append(dst, '"')
}

// appendEscaped writes s with JSON string escaping but without the quotes.
func appendEscaped(dst []byte, s string) []byte {
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}
			dst = append(dst, s[start:i]...)
			switch c {
			case '"', '\\':
				dst = append(dst, '\\', c)
			case '\n':
				dst = append(dst, '\\', 'n')
			case '\r':
				dst = append(dst, '\\', 'r')
			case '\t':
				dst = append(dst, '\\', 't')
			case '\b':
				dst = append(dst, '\\', 'b')
			case '\f':
				dst = append(dst, '\\', 'f')
			default:
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, s[start:i]...)
			dst = append(dst, "\ufffd"...)
			i += size
			start = i
			continue
		}
		i += size
	}
	return append(dst, s[start:]...)
}
