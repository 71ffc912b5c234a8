package script

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/dago-node-template/internal/eval/cel"
	"github.com/aescanero/dago-node-template/internal/eval/handlebars"
	"github.com/aescanero/dago-node-template/internal/eval/mustache"
)

func newTestService(t *testing.T, cacheSize int, catalog *Catalog) *Service {
	t.Helper()
	svc := NewService(cacheSize, "", catalog, nil)
	svc.Register(NewMustacheEngine(mustache.NewEngine(nil)))
	svc.Register(NewHandlebarsEngine(handlebars.NewEngine(nil)))
	svc.Register(NewExpressionEngine(cel.NewEvaluator()))
	return svc
}

func TestRunLanguages(t *testing.T) {
	svc := newTestService(t, 0, nil)
	params := map[string]interface{}{
		"name": "ada",
		"tags": []string{"x", "y"},
	}

	tests := []struct {
		name   string
		script Script
		want   interface{}
	}{
		{"default lang", Script{Source: "Hi {{name}} {{#join}}tags{{/join}}"}, "Hi ada x,y"},
		{"mustache", Script{Lang: LangMustache, Source: "{{#toJson}}tags{{/toJson}}"}, `["x","y"]`},
		{"handlebars", Script{Lang: LangHandlebars, Source: "{{uppercase name}}"}, "ADA"},
		{"expression", Script{Lang: LangExpression, Source: "size(params.tags) == 2"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Run(tt.script, params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunOrderedParams(t *testing.T) {
	svc := newTestService(t, 0, nil)
	params := mustache.NewMap().Set("b", 1).Set("a", 2)

	got, err := svc.Run(Script{Source: "{{#toJson}}.{{/toJson}}"}, params)
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":2}`, got)
}

func TestMustacheOptions(t *testing.T) {
	svc := newTestService(t, 0, nil)

	got, err := svc.Run(Script{
		Source:  `{"q":"{{q}}"}`,
		Options: map[string]string{mustache.OptionContentType: mustache.ContentTypeJSON},
	}, map[string]interface{}{"q": `say "hi"`})
	require.NoError(t, err)
	assert.Equal(t, `{"q":"say \"hi\""}`, got)

	_, err = svc.Compile(Script{
		Source:  "{{q}}",
		Options: map[string]string{mustache.OptionContentType: "text/html"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No encoder found for MIME type [text/html]")
}

func TestCompileErrors(t *testing.T) {
	svc := newTestService(t, 0, nil)

	_, err := svc.Compile(Script{Lang: "lua", Source: "x"})
	assert.True(t, errors.Is(err, ErrUnknownLang))

	_, err = svc.Compile(Script{})
	assert.True(t, errors.Is(err, mustache.ErrEmptyTemplate))

	_, err = svc.Compile(Script{Source: "{{#join}}a b{{/join}}"})
	var syntaxErr *mustache.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, "inline", syntaxErr.Template)

	_, err = svc.Compile(Script{Lang: LangHandlebars, Source: "{{x}}", Options: map[string]string{"a": "b"}})
	assert.Error(t, err)

	_, err = svc.Compile(Script{Lang: LangExpression, Source: "1 +"})
	assert.Error(t, err)

	_, err = svc.Compile(Script{ID: "missing"})
	assert.True(t, errors.Is(err, ErrScriptNotFound))
}

func TestStoredScripts(t *testing.T) {
	catalog, err := NewCatalog(
		Script{ID: "greet", Source: "Hello {{name}}"},
		Script{ID: "query", Lang: LangMustache, Source: "q={{q}}", Options: map[string]string{
			mustache.OptionContentType: mustache.ContentTypeURLEncoded,
		}},
		Script{ID: "check", Lang: LangExpression, Source: "params.n > 1"},
	)
	require.NoError(t, err)
	svc := newTestService(t, 0, catalog)

	got, err := svc.Run(Script{ID: "greet"}, map[string]interface{}{"name": "bob"})
	require.NoError(t, err)
	assert.Equal(t, "Hello bob", got)

	got, err = svc.Run(Script{ID: "query"}, map[string]interface{}{"q": "a b"})
	require.NoError(t, err)
	assert.Equal(t, "q=a+b", got)

	got, err = svc.Run(Script{ID: "check"}, map[string]interface{}{"n": 2})
	require.NoError(t, err)
	assert.Equal(t, true, got)

	// caller options override stored ones
	got, err = svc.Run(Script{ID: "query", Options: map[string]string{
		mustache.OptionContentType: mustache.ContentTypePlain,
	}}, map[string]interface{}{"q": "a b"})
	require.NoError(t, err)
	assert.Equal(t, "q=a b", got)
}

func TestCompileCache(t *testing.T) {
	svc := newTestService(t, 2, nil)

	a1, err := svc.Compile(Script{Source: "{{a}}"})
	require.NoError(t, err)
	a2, err := svc.Compile(Script{Source: "{{a}}", Lang: LangMustache})
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	withOpts, err := svc.Compile(Script{Source: "{{a}}", Options: map[string]string{
		mustache.OptionContentType: mustache.ContentTypeJSON,
	}})
	require.NoError(t, err)
	assert.NotSame(t, a1, withOpts)
	assert.Equal(t, 2, svc.CacheLen())

	_, err = svc.Compile(Script{Source: "{{b}}"})
	require.NoError(t, err)
	assert.Equal(t, 2, svc.CacheLen())

	// least recently used entry was evicted
	a3, err := svc.Compile(Script{Source: "{{a}}"})
	require.NoError(t, err)
	assert.NotSame(t, a1, a3)

	svc.ClearCache()
	assert.Equal(t, 0, svc.CacheLen())
}

func TestConcurrentCompile(t *testing.T) {
	svc := newTestService(t, 0, nil)
	params := map[string]interface{}{"n": 1}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.Run(Script{Source: "n={{n}}"}, params)
			assert.NoError(t, err)
			assert.Equal(t, "n=1", got)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, svc.CacheLen())
}

func TestLangs(t *testing.T) {
	svc := newTestService(t, 0, nil)
	assert.Equal(t, []string{LangExpression, LangHandlebars, LangMustache}, svc.Langs())
}
