package script

import (
	"context"
	"fmt"

	"github.com/aescanero/dago-node-template/internal/eval/cel"
	"github.com/aescanero/dago-node-template/internal/eval/handlebars"
	"github.com/aescanero/dago-node-template/internal/eval/mustache"
)

// MustacheEngine runs mustache templates. Run returns the rendered string.
type MustacheEngine struct {
	engine *mustache.Engine
}

// NewMustacheEngine wraps a mustache engine
func NewMustacheEngine(engine *mustache.Engine) *MustacheEngine {
	return &MustacheEngine{engine: engine}
}

// Lang implements Engine
func (e *MustacheEngine) Lang() string { return LangMustache }

// Compile implements Engine
func (e *MustacheEngine) Compile(name, source string, options map[string]string) (interface{}, error) {
	opts, err := mustache.ParseOptions(name, options)
	if err != nil {
		return nil, err
	}
	return e.engine.Compile(source, opts)
}

// Executable implements Engine
func (e *MustacheEngine) Executable(compiled *CompiledScript, params interface{}) ExecutableScript {
	tmpl := compiled.compiled.(*mustache.Template)
	switch p := params.(type) {
	case *mustache.Map:
		return mustacheRun{e.engine.BindMap(tmpl, p)}
	case map[string]interface{}:
		return mustacheRun{e.engine.Bind(tmpl, p)}
	default:
		return mustacheRun{e.engine.BindValue(tmpl, p)}
	}
}

type mustacheRun struct {
	inv *mustache.Invocation
}

func (r mustacheRun) Run() (interface{}, error) {
	return r.inv.String(), nil
}

// HandlebarsEngine runs Handlebars templates. Run returns the rendered string.
type HandlebarsEngine struct {
	engine *handlebars.Engine
}

// NewHandlebarsEngine wraps a handlebars engine
func NewHandlebarsEngine(engine *handlebars.Engine) *HandlebarsEngine {
	return &HandlebarsEngine{engine: engine}
}

// Lang implements Engine
func (e *HandlebarsEngine) Lang() string { return LangHandlebars }

// Compile implements Engine
func (e *HandlebarsEngine) Compile(name, source string, options map[string]string) (interface{}, error) {
	if len(options) > 0 {
		return nil, fmt.Errorf("%s: handlebars scripts take no options", name)
	}
	tmpl, err := e.engine.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return tmpl, nil
}

// Executable implements Engine
func (e *HandlebarsEngine) Executable(compiled *CompiledScript, params interface{}) ExecutableScript {
	return handlebarsRun{tmpl: compiled.compiled.(*handlebars.Template), params: params}
}

type handlebarsRun struct {
	tmpl   *handlebars.Template
	params interface{}
}

func (r handlebarsRun) Run() (interface{}, error) {
	return r.tmpl.Exec(r.params)
}

// ExpressionEngine evaluates CEL expressions. The params map is visible as
// params, and its state entry, if any, as state.
type ExpressionEngine struct {
	evaluator *cel.Evaluator
}

// NewExpressionEngine wraps a CEL evaluator
func NewExpressionEngine(evaluator *cel.Evaluator) *ExpressionEngine {
	return &ExpressionEngine{evaluator: evaluator}
}

// Lang implements Engine
func (e *ExpressionEngine) Lang() string { return LangExpression }

// Compile implements Engine. The program itself is cached by the evaluator.
func (e *ExpressionEngine) Compile(name, source string, options map[string]string) (interface{}, error) {
	if len(options) > 0 {
		return nil, fmt.Errorf("%s: expression scripts take no options", name)
	}
	if err := e.evaluator.ValidateExpression(source); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return source, nil
}

// Executable implements Engine
func (e *ExpressionEngine) Executable(compiled *CompiledScript, params interface{}) ExecutableScript {
	return expressionRun{
		evaluator:  e.evaluator,
		expression: compiled.compiled.(string),
		params:     params,
	}
}

type expressionRun struct {
	evaluator  *cel.Evaluator
	expression string
	params     interface{}
}

func (r expressionRun) Run() (interface{}, error) {
	vars := map[string]interface{}{}
	if p, ok := mustache.ValueOf(r.params).Interface().(map[string]interface{}); ok {
		vars[cel.VarParams] = p
		if st, ok := p["state"].(map[string]interface{}); ok {
			vars[cel.VarState] = st
		}
	}
	return r.evaluator.Evaluate(context.Background(), r.expression, vars)
}
