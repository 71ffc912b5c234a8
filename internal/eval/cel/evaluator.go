package cel

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"google.golang.org/protobuf/types/known/structpb"
)

// Variables visible to every expression
const (
	VarParams = "params"
	VarState  = "state"
)

// Evaluator evaluates CEL expressions over template params and graph state
type Evaluator struct {
	env   *cel.Env
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewEvaluator creates a new CEL evaluator
func NewEvaluator() *Evaluator {
	env, err := cel.NewEnv(
		cel.Variable(VarParams, cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable(VarState, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create CEL environment: %v", err))
	}

	return &Evaluator{
		env:   env,
		cache: make(map[string]cel.Program),
	}
}

// Evaluate evaluates a CEL expression with the given variables. Missing
// params or state variables are bound to empty maps.
func (e *Evaluator) Evaluate(ctx context.Context, expression string, vars map[string]interface{}) (interface{}, error) {
	program, err := e.getProgram(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", err)
	}

	out, _, err := program.ContextEval(ctx, bind(vars))
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	result, err := native(out)
	if err != nil {
		return nil, fmt.Errorf("failed to convert result: %w", err)
	}

	return result, nil
}

// EvaluateBool evaluates a condition. Non-boolean results are an error.
func (e *Evaluator) EvaluateBool(ctx context.Context, expression string, vars map[string]interface{}) (bool, error) {
	result, err := e.Evaluate(ctx, expression, vars)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, expected bool", expression, result)
	}
	return b, nil
}

// getProgram gets a compiled program from cache or compiles it
func (e *Evaluator) getProgram(expression string) (cel.Program, error) {
	// Check cache first (read lock)
	e.mu.RLock()
	if program, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Check again in case another goroutine compiled it
	if program, ok := e.cache[expression]; ok {
		return program, nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("parse error: %w", issues.Err())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program generation error: %w", err)
	}

	e.cache[expression] = program

	return program, nil
}

// ValidateExpression validates a CEL expression without evaluating it
func (e *Evaluator) ValidateExpression(expression string) error {
	_, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return issues.Err()
	}
	return nil
}

// ValidateCondition validates an expression used as a guard. Expressions
// whose type is only known at runtime (dyn) are accepted.
func (e *Evaluator) ValidateCondition(expression string) error {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return issues.Err()
	}
	switch t := ast.OutputType().String(); t {
	case "bool", "dyn":
		return nil
	default:
		return fmt.Errorf("condition must be boolean, got %s", t)
	}
}

// ClearCache clears the compiled program cache
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]cel.Program)
}

// CacheSize returns the number of compiled programs held
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

func bind(vars map[string]interface{}) map[string]interface{} {
	bound := make(map[string]interface{}, len(vars)+2)
	for k, v := range vars {
		bound[k] = v
	}
	for _, name := range []string{VarParams, VarState} {
		if bound[name] == nil {
			bound[name] = map[string]interface{}{}
		}
	}
	return bound
}

var jsonValueType = reflect.TypeOf(&structpb.Value{})

// native converts a CEL result to plain Go values. Maps and lists go through
// their JSON representation so nested CEL values are converted too.
func native(out ref.Val) (interface{}, error) {
	switch out.Type() {
	case types.MapType, types.ListType:
		v, err := out.ConvertToNative(jsonValueType)
		if err != nil {
			return nil, err
		}
		return v.(*structpb.Value).AsInterface(), nil
	case types.NullType:
		return nil, nil
	default:
		return out.Value(), nil
	}
}
