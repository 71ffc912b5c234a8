package mustache

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level int

func (l level) String() string { return [...]string{"low", "high"}[l] }

func TestValueOf(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := 7
	tests := []struct {
		name string
		in   interface{}
		kind Kind
		text string
	}{
		{"nil", nil, KindNull, ""},
		{"bool", false, KindBool, "false"},
		{"int", 3, KindInt, "3"},
		{"uint64 max", uint64(math.MaxUint64), KindInt, "18446744073709551615"},
		{"uint64 above int64", uint64(math.MaxInt64) + 1, KindInt, "9223372036854775808"},
		{"uint small", uint(42), KindInt, "42"},
		{"float32", float32(1.84), KindFloat, "1.84"},
		{"tiny float", 1e-7, KindFloat, "1e-07"},
		{"huge float", 1e21, KindFloat, "1e+21"},
		{"string", "s", KindString, "s"},
		{"pointer", &n, KindInt, "7"},
		{"nil pointer", (*int)(nil), KindNull, ""},
		{"nil time pointer", (*time.Time)(nil), KindNull, ""},
		{"time pointer", &ts, KindString, "2024-05-01T12:00:00Z"},
		{"time", ts, KindString, "2024-05-01T12:00:00Z"},
		{"stringer", level(1), KindString, "high"},
		{"list", []interface{}{1, "a"}, KindList, `[1,"a"]`},
		{"typed map", map[string]int{"b": 2, "a": 1}, KindMap, `{"a":1,"b":2}`},
		{"int keyed map", map[int]string{2: "x", 1: "y"}, KindMap, `{"1":"y","2":"x"}`},
		{"nil slice", []string(nil), KindNull, ""},
		{"value", String("v"), KindString, "v"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValueOf(tt.in)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.text, v.Text())
		})
	}
}

func TestUintStaysExact(t *testing.T) {
	v := Uint(math.MaxUint64)
	assert.Equal(t, "18446744073709551615", string(AppendJSON(nil, v)))
	assert.Equal(t, uint64(math.MaxUint64), v.Interface())
	assert.Equal(t, int64(5), Uint(5).Interface())
	assert.Equal(t, 1, Set(Uint(math.MaxUint64), Uint(math.MaxUint64)).Len())
	assert.Equal(t, `[18446744073709551615]`, ToJSON([]uint64{math.MaxUint64}))
}

func TestSetDropsDuplicateScalars(t *testing.T) {
	s := Set(String("a"), String("a"), Int(1), Float(1), Null, Null)
	assert.Equal(t, KindSet, s.Kind())
	assert.Equal(t, 4, s.Len())
}

func TestTruthy(t *testing.T) {
	assert.False(t, Null.Truthy())
	assert.False(t, Bool(false).Truthy())
	assert.False(t, String("").Truthy())
	assert.False(t, List().Truthy())
	assert.True(t, Int(0).Truthy())
	assert.True(t, MapValue(NewMap()).Truthy())
	assert.True(t, String("x").Truthy())
}

func TestMapKeepsInsertionOrder(t *testing.T) {
	m := NewMap().Set("z", 1).Set("a", 2).Set("m", 3).Set("z", 4)
	assert.Equal(t, []string{"z", "a", "m"}, m.Keys())
	assert.Equal(t, `{"z":4,"a":2,"m":3}`, MapValue(m).Text())

	var visited []string
	m.Range(func(k string, _ Value) bool {
		visited = append(visited, k)
		return k != "a"
	})
	assert.Equal(t, []string{"z", "a"}, visited)
}

func TestInterface(t *testing.T) {
	v := MapValue(NewMap().Set("l", []int{1}).Set("f", 1.5).Set("n", nil))
	assert.Equal(t, map[string]interface{}{
		"l": []interface{}{int64(1)},
		"f": 1.5,
		"n": nil,
	}, v.Interface())
}

func TestAppendJSON(t *testing.T) {
	v := MapValue(NewMap().
		Set("s", "quote\" back\\ nl\n ctl\x01 <&> ünï").
		Set("nan", math.NaN()).
		Set("set", Set(Int(1))).
		Set("empty", []string{}))
	assert.Equal(t,
		`{"s":"quote\" back\\ nl\n ctl\u0001 <&> ünï","nan":null,"set":[1],"empty":[]}`,
		string(AppendJSON(nil, v)))

	b, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, string(AppendJSON(nil, v)), string(b))
}

func TestParseJSON(t *testing.T) {
	v, err := ParseJSON([]byte(`{"b":1,"a":[1.5,true,null,"x",{"z":2e3}],"c":-3}`))
	require.NoError(t, err)
	require.Equal(t, KindMap, v.Kind())
	assert.Equal(t, []string{"b", "a", "c"}, v.Map().Keys())

	a, ok := v.Map().Get("a")
	require.True(t, ok)
	require.Equal(t, 5, a.Len())
	assert.Equal(t, KindFloat, a.Elems()[0].Kind())
	assert.Equal(t, KindBool, a.Elems()[1].Kind())
	assert.True(t, a.Elems()[2].IsNull())
	assert.Equal(t, `{"z":2000}`, a.Elems()[4].Text())

	c, _ := v.Map().Get("c")
	assert.Equal(t, KindInt, c.Kind())
	assert.Equal(t, "-3", c.Text())

	_, err = ParseJSON([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestParseJSONMap(t *testing.T) {
	m, err := ParseJSONMap(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	m, err = ParseJSONMap([]byte(`{"x":"y"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, m.Keys())

	_, err = ParseJSONMap([]byte(`[1]`))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	root := ValueOf(map[string]interface{}{
		"data": map[string]interface{}{
			"list": []string{"foo", "bar"},
			"size": "own",
		},
	})
	tests := []struct {
		path  string
		found bool
		text  string
	}{
		{"data.list.0", true, "foo"},
		{"data.list.1", true, "bar"},
		{"data.list.size", true, "2"},
		{"data.size", true, "own"},
		{"data.list.2", false, ""},
		{"data.list.+1", false, ""},
		{"data.missing", false, ""},
		{".", true, `{"data":{"list":["foo","bar"],"size":"own"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			v, ok := Resolve(root, ParsePath(tt.path))
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.text, v.Text())
		})
	}
}

func TestValidIdentifier(t *testing.T) {
	for _, ok := range []string{".", "a", "a.b", "a.0.size", "_x-y"} {
		assert.True(t, validIdentifier(ok), ok)
	}
	for _, bad := range []string{"", "a b", "a..b", ".a", "a.", "{a}"} {
		assert.False(t, validIdentifier(bad), bad)
	}
}

func TestIsSyntaxError(t *testing.T) {
	assert.False(t, IsSyntaxError(errors.New("x")))
	assert.True(t, IsSyntaxError(newSyntaxError("t", 1, "boom")))
}
