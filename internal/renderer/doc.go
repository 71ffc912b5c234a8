// Package renderer renders a node's template against graph state.
//
// The template sees a context built from three layers, later layers
// overriding earlier ones:
//   - state: graph_id, status, inputs and node_states of the graph
//   - each graph input under its own name
//   - the node's params, in the order they appear in the node config
//
// Example config:
//
//	config := &NodeConfig{
//	    Template:  "{{#url}}{{query}}{{/url}}",
//	    Params:    json.RawMessage(`{"query": "open issues"}`),
//	    When:      "state.status == 'running'",
//	    OutputKey: "search_query",
//	}
//	result, err := renderer.Render(ctx, state, config)
//
// A when condition that evaluates to false skips the render; the result is
// returned with Skipped set and no output.
//
// Variants pick a different template per request. Their CEL conditions are
// evaluated in order and the first one that holds wins; conditions that fail
// or return a non-boolean are skipped. The node template is the fallback:
//
//	Variants: []Variant{
//	    {Condition: "params.format == 'json'", Template: "{{#toJson}}.{{/toJson}}"},
//	    {Condition: "state.status == 'failed'", TemplateID: "failure_report"},
//	},
package renderer
