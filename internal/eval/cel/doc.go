// Package cel provides a CEL (Common Expression Language) evaluator for the
// expression script language and for render guards.
//
// Expressions see two map variables: params, the render parameters, and
// state, the graph state of the node being rendered.
//
// Example usage:
//
//	evaluator := cel.NewEvaluator()
//
//	vars := map[string]interface{}{
//	    "params": map[string]interface{}{"priority": "high"},
//	}
//
//	ok, err := evaluator.EvaluateBool(ctx, "params.priority == 'high'", vars)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Supported operations:
//   - Comparisons: ==, !=, <, <=, >, >=
//   - Boolean logic: &&, ||, !
//   - String operations: contains, startsWith, endsWith, matches
//   - Arithmetic: +, -, *, /, %
//   - List operations: in, size
//   - Map access: params.field, state["field"], has(params.field)
package cel
