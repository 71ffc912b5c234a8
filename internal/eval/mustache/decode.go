package mustache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseJSON decodes a JSON document into a Value, keeping object keys in
// document order. Integral numbers without a fraction or exponent decode as
// integers.
func ParseJSON(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return Null, fmt.Errorf("invalid json document")
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

// ParseJSONMap decodes a JSON object into an ordered Map. Empty input and
// null yield an empty map.
func ParseJSONMap(data []byte) (*Map, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return NewMap(), nil
	}
	v, err := ParseJSON(data)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return NewMap(), nil
	}
	if v.Kind() != KindMap {
		return nil, fmt.Errorf("expected a json object, got %s", v.Kind())
	}
	return v.Map(), nil
}

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return Null
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.String:
		return String(r.Str)
	case gjson.Number:
		if !strings.ContainsAny(r.Raw, ".eE") {
			if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
				return Int(i)
			}
		}
		return Float(r.Num)
	case gjson.JSON:
		if r.IsArray() {
			var elems []Value
			r.ForEach(func(_, e gjson.Result) bool {
				elems = append(elems, fromResult(e))
				return true
			})
			return List(elems...)
		}
		m := NewMap()
		r.ForEach(func(k, e gjson.Result) bool {
			m.Set(k.Str, fromResult(e))
			return true
		})
		return MapValue(m)
	}
	return Null
}
