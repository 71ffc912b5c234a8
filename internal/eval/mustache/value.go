package mustache

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"
)

// Kind identifies the variant held by a Value
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindMap
	KindList
	KindSet
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	default:
		return "unknown"
	}
}

// Value is a dynamically typed render context value.
//
// The zero Value is null. Values are never mutated by the engine.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	u     uint64
	big   bool
	f     float64
	bits  int
	s     string
	m     *Map
	elems []Value
}

// Null is the null value
var Null = Value{}

// Bool returns a boolean value
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer value
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Uint returns an unsigned integer value. Values above math.MaxInt64 stay
// exact.
func Uint(u uint64) Value {
	if u > math.MaxInt64 {
		return Value{kind: KindInt, u: u, big: true}
	}
	return Int(int64(u))
}

// Float returns a 64-bit floating point value
func Float(f float64) Value { return Value{kind: KindFloat, f: f, bits: 64} }

// Float32 returns a floating point value that prints with float32 precision
func Float32(f float32) Value { return Value{kind: KindFloat, f: float64(f), bits: 32} }

// String returns a string value
func String(s string) Value { return Value{kind: KindString, s: s} }

// List returns an ordered sequence value
func List(elems ...Value) Value {
	return Value{kind: KindList, elems: elems}
}

// Set returns a set value. Duplicate scalar elements are dropped; the
// enumeration order is the order given and must not be relied upon.
func Set(elems ...Value) Value {
	type scalarKey struct {
		kind Kind
		b    bool
		i    int64
		u    uint64
		f    float64
		s    string
	}
	out := make([]Value, 0, len(elems))
	seen := make(map[scalarKey]struct{}, len(elems))
	for _, e := range elems {
		if e.IsScalar() {
			k := scalarKey{kind: e.kind, b: e.b, i: e.i, u: e.u, f: e.f, s: e.s}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, e)
	}
	return Value{kind: KindSet, elems: out}
}

// MapValue wraps m as a Value
func MapValue(m *Map) Value {
	if m == nil {
		return Null
	}
	return Value{kind: KindMap, m: m}
}

// Kind returns the variant of v
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsScalar reports whether v is null, a bool, a number or a string
func (v Value) IsScalar() bool { return v.kind <= KindString }

// IsCollection reports whether v is a list or a set
func (v Value) IsCollection() bool { return v.kind == KindList || v.kind == KindSet }

// Map returns the underlying map, or nil when v is not a map
func (v Value) Map() *Map {
	if v.kind != KindMap {
		return nil
	}
	return v.m
}

// Elems returns the elements of a list or set
func (v Value) Elems() []Value {
	if !v.IsCollection() {
		return nil
	}
	return v.elems
}

// Len returns the element count of a collection or map, 0 otherwise
func (v Value) Len() int {
	switch v.kind {
	case KindList, KindSet:
		return len(v.elems)
	case KindMap:
		return v.m.Len()
	default:
		return 0
	}
}

// Truthy reports whether a section over v renders its body
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindString:
		return v.s != ""
	case KindList, KindSet:
		return len(v.elems) > 0
	default:
		return true
	}
}

// Text returns the form a variable tag renders
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		if v.big {
			return strconv.FormatUint(v.u, 10)
		}
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f, v.bits)
	case KindString:
		return v.s
	default:
		return string(AppendJSON(nil, v))
	}
}

// Interface converts v back to plain Go data: nil, bool, int64 (uint64 above
// math.MaxInt64), float64, string, map[string]interface{} or []interface{}
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		if v.big {
			return v.u
		}
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindMap:
		out := make(map[string]interface{}, v.m.Len())
		v.m.Range(func(k string, e Value) bool {
			out[k] = e.Interface()
			return true
		})
		return out
	case KindList, KindSet:
		out := make([]interface{}, len(v.elems))
		for i, e := range v.elems {
			out[i] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON encodes v as compact JSON preserving map key order
func (v Value) MarshalJSON() ([]byte, error) {
	return AppendJSON(nil, v), nil
}

func formatFloat(f float64, bits int) string {
	if bits != 32 {
		bits = 64
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	return strconv.FormatFloat(f, format, -1, bits)
}

// Map is an insertion-ordered string-keyed mapping
type Map struct {
	keys  []string
	vals  []Value
	index map[string]int
}

// NewMap returns an empty map
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

// Set stores value under key, converting it with ValueOf. Re-setting an
// existing key keeps its original position. Set returns m for chaining.
func (m *Map) Set(key string, value interface{}) *Map {
	v := ValueOf(value)
	if i, ok := m.index[key]; ok {
		m.vals[i] = v
		return m
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, v)
	return m
}

// Get returns the value stored under key
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Null, false
	}
	i, ok := m.index[key]
	if !ok {
		return Null, false
	}
	return m.vals[i], true
}

// Len returns the number of entries
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Range calls fn for each entry in insertion order until fn returns false
func (m *Map) Range(fn func(key string, value Value) bool) {
	if m == nil {
		return
	}
	for i, k := range m.keys {
		if !fn(k, m.vals[i]) {
			return
		}
	}
}

var emptyStructType = reflect.TypeOf(struct{}{})

// ValueOf converts Go data into a Value.
//
// Maps with string keys become Maps with their keys sorted, so renders are
// deterministic; build a *Map or use ParseJSON when key order matters.
// map[T]struct{} becomes a Set enumerated in Go map order.
func ValueOf(data interface{}) Value {
	switch d := data.(type) {
	case nil:
		return Null
	case Value:
		return d
	case *Map:
		return MapValue(d)
	case bool:
		return Bool(d)
	case string:
		return String(d)
	case int:
		return Int(int64(d))
	case int8:
		return Int(int64(d))
	case int16:
		return Int(int64(d))
	case int32:
		return Int(int64(d))
	case int64:
		return Int(d)
	case uint:
		return Uint(uint64(d))
	case uint8:
		return Int(int64(d))
	case uint16:
		return Int(int64(d))
	case uint32:
		return Int(int64(d))
	case uint64:
		return Uint(d)
	case float32:
		return Float32(d)
	case float64:
		return Float(d)
	case time.Time:
		return String(d.Format(time.RFC3339Nano))
	case *time.Time:
		if d == nil {
			return Null
		}
		return String(d.Format(time.RFC3339Nano))
	case map[string]interface{}:
		m := NewMap()
		for _, k := range sortedKeys(d) {
			m.Set(k, d[k])
		}
		return MapValue(m)
	case []interface{}:
		elems := make([]Value, len(d))
		for i, e := range d {
			elems[i] = ValueOf(e)
		}
		return List(elems...)
	case fmt.Stringer:
		if rv := reflect.ValueOf(d); rv.Kind() == reflect.Ptr && rv.IsNil() {
			return Null
		}
		return String(d.String())
	}
	return reflectValue(reflect.ValueOf(data))
}

func reflectValue(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Invalid:
		return Null
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Null
		}
		return ValueOf(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return Null
		}
		fallthrough
	case reflect.Array:
		elems := make([]Value, rv.Len())
		for i := range elems {
			elems[i] = ValueOf(rv.Index(i).Interface())
		}
		return List(elems...)
	case reflect.Map:
		if rv.IsNil() {
			return Null
		}
		if rv.Type().Elem() == emptyStructType {
			elems := make([]Value, 0, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				elems = append(elems, ValueOf(iter.Key().Interface()))
			}
			return Set(elems...)
		}
		keys := make([]string, 0, rv.Len())
		byKey := make(map[string]reflect.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, k)
			byKey[k] = iter.Value()
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			m.Set(k, byKey[k].Interface())
		}
		return MapValue(m)
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.String:
		return String(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint())
	case reflect.Float32:
		return Float32(float32(rv.Float()))
	case reflect.Float64:
		return Float(rv.Float())
	}
	return String(fmt.Sprint(rv.Interface()))
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
