package handlebars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/dago-node-template/internal/eval/mustache"
)

func render(t *testing.T, engine *Engine, src string, data interface{}) string {
	t.Helper()
	tmpl, err := engine.Compile(src)
	require.NoError(t, err)
	got, err := tmpl.Exec(data)
	require.NoError(t, err)
	return got
}

func TestRender(t *testing.T) {
	engine := NewEngine(nil)
	data := map[string]interface{}{
		"name":  " Ada ",
		"tags":  []string{"a", "b", "c"},
		"score": 0.9,
		"obj":   map[string]interface{}{"k": "v"},
		"q":     "a b&c~",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"variable", "{{name}}", " Ada "},
		{"trim upper", "{{uppercase (trim name)}}", "ADA"},
		{"toJson map", "{{toJson obj}}", `{"k":"v"}`},
		{"toJson list", "{{toJson tags}}", `["a","b","c"]`},
		{"toJson scalar", "{{toJson score}}", "0.9"},
		{"join default", "{{join tags}}", "a,b,c"},
		{"join delimiter", `{{join tags delimiter="/"}}`, "a/b/c"},
		{"url block", "{{#url}}{{{q}}}{{/url}}", "a+b%26c%7E"},
		{"default", `{{default missing "N/A"}}`, "N/A"},
		{"gt", `{{#if (gt score 0.8)}}high{{else}}low{{/if}}`, "high"},
		{"contains", `{{#if (contains name "Ad")}}yes{{/if}}`, "yes"},
		{"len", "{{len tags}}", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, engine, tt.template, data))
		})
	}
}

func TestOrderedMapData(t *testing.T) {
	engine := NewEngine(nil)
	tmpl, err := engine.Compile("{{user.name}} {{join user.roles}}")
	require.NoError(t, err)

	params := mustache.NewMap().
		Set("user", mustache.NewMap().Set("name", "bob").Set("roles", []string{"x", "y"}))
	got, err := tmpl.Exec(params)
	require.NoError(t, err)
	assert.Equal(t, "bob x,y", got)
}

func TestEnginesDoNotShareHelperRegistry(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, "x", render(t, NewEngine(nil), "{{lowercase v}}", map[string]string{"v": "X"}))
	}
}

func TestCompileErrors(t *testing.T) {
	engine := NewEngine(nil)

	_, err := engine.Compile("")
	assert.Error(t, err)

	_, err = engine.Compile("{{#if x}}unclosed")
	assert.Error(t, err)

	_, err = engine.Compile("{{/b}}")
	assert.Error(t, err)
}
