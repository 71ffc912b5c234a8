package mustache

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Template is a compiled template. It is never modified after Compile
// returns, so one Template may be rendered concurrently with different data.
type Template struct {
	name        string
	contentType string
	nodes       []node
	enc         encoder
}

// Compile parses src into a Template
func Compile(src string, opts Options) (*Template, error) {
	if src == "" {
		return nil, ErrEmptyTemplate
	}
	enc, err := opts.encoder()
	if err != nil {
		return nil, newSyntaxError(opts.name(), 0, "%v", err)
	}
	nodes, err := compile(opts.name(), src)
	if err != nil {
		return nil, err
	}
	return &Template{
		name:        opts.name(),
		contentType: opts.ContentType,
		nodes:       nodes,
		enc:         enc,
	}, nil
}

// MustCompile is like Compile but panics on error
func MustCompile(src string, opts Options) *Template {
	t, err := Compile(src, opts)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the template name used in error messages
func (t *Template) Name() string { return t.name }

// ContentType returns the content type the template was compiled with
func (t *Template) ContentType() string { return t.contentType }

// Render renders the template against data. Missing values render empty.
func (t *Template) Render(data interface{}) []byte {
	return renderNodes(nil, t.nodes, scopes{ValueOf(data)}, t.enc)
}

// Execute renders the template against data and writes the result to w
func (t *Template) Execute(w io.Writer, data interface{}) error {
	if _, err := w.Write(t.Render(data)); err != nil {
		return fmt.Errorf("failed to write rendered template: %w", err)
	}
	return nil
}

// Engine compiles templates and binds them to parameters
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new mustache engine
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Compile compiles a template, failing fast on syntax errors
func (e *Engine) Compile(src string, opts Options) (*Template, error) {
	tmpl, err := Compile(src, opts)
	if err != nil {
		e.logger.Debug("mustache compile failed",
			zap.String("template", opts.name()),
			zap.Error(err),
		)
		return nil, err
	}
	e.logger.Debug("mustache template compiled",
		zap.String("template", tmpl.name),
		zap.Int("nodes", len(tmpl.nodes)),
	)
	return tmpl, nil
}

// Bind pairs a compiled template with parameters
func (e *Engine) Bind(tmpl *Template, params map[string]interface{}) *Invocation {
	return &Invocation{tmpl: tmpl, params: params}
}

// BindMap pairs a compiled template with ordered parameters
func (e *Engine) BindMap(tmpl *Template, params *Map) *Invocation {
	return &Invocation{tmpl: tmpl, params: params}
}

// BindValue pairs a compiled template with any data ValueOf accepts
func (e *Engine) BindValue(tmpl *Template, params interface{}) *Invocation {
	return &Invocation{tmpl: tmpl, params: params}
}

// Invocation is a template bound to parameters
type Invocation struct {
	tmpl   *Template
	params interface{}
}

// Run renders the bound template. Repeated calls yield the same bytes as
// long as the parameters are not modified in between.
func (i *Invocation) Run() []byte {
	return i.tmpl.Render(i.params)
}

// String renders the bound template as a string
func (i *Invocation) String() string {
	return string(i.Run())
}
