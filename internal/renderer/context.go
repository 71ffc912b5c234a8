package renderer

import (
	"github.com/aescanero/dago-libs/pkg/domain"

	"github.com/aescanero/dago-node-template/internal/eval/mustache"
)

// buildContext assembles the render parameters: the state object, then each
// graph input at top level, then the node params. Later entries win.
func buildContext(state *domain.GraphState, stateVars map[string]interface{}, params *mustache.Map) *mustache.Map {
	ctx := mustache.NewMap().Set("state", stateVars)

	if inputs := mustache.ValueOf(state.Inputs).Map(); inputs != nil {
		inputs.Range(func(key string, value mustache.Value) bool {
			ctx.Set(key, value)
			return true
		})
	}

	params.Range(func(key string, value mustache.Value) bool {
		ctx.Set(key, value)
		return true
	})

	return ctx
}

// prepareState converts GraphState to a map usable from templates and CEL
func prepareState(state *domain.GraphState) map[string]interface{} {
	return map[string]interface{}{
		"graph_id":    state.GraphID,
		"status":      string(state.Status),
		"inputs":      mustache.ValueOf(state.Inputs).Interface(),
		"node_states": convertNodeStates(state.NodeStates),
	}
}

// convertNodeStates converts node states to plain maps
func convertNodeStates(nodeStates map[string]*domain.NodeState) map[string]interface{} {
	result := make(map[string]interface{}, len(nodeStates))
	for nodeID, nodeState := range nodeStates {
		if nodeState == nil {
			continue
		}
		result[nodeID] = mustache.ValueOf(map[string]interface{}{
			"status":       string(nodeState.Status),
			"output":       nodeState.Output,
			"error":        nodeState.Error,
			"started_at":   nodeState.StartedAt,
			"completed_at": nodeState.CompletedAt,
		}).Interface()
	}
	return result
}
