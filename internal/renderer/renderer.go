package renderer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aescanero/dago-libs/pkg/domain"
	"go.uber.org/zap"

	"github.com/aescanero/dago-node-template/internal/eval/cel"
	"github.com/aescanero/dago-node-template/internal/eval/mustache"
	"github.com/aescanero/dago-node-template/internal/script"
)

// DefaultOutputKey names the rendered output when the node config sets none
const DefaultOutputKey = "output"

// NodeConfig represents the template configuration for a node
type NodeConfig struct {
	Lang       string            `json:"lang,omitempty"`
	Template   string            `json:"template,omitempty"`
	TemplateID string            `json:"template_id,omitempty"`
	Options    map[string]string `json:"options,omitempty"`
	Params     json.RawMessage   `json:"params,omitempty"`
	When       string            `json:"when,omitempty"`
	Variants   []Variant         `json:"variants,omitempty"`
	OutputKey  string            `json:"output_key,omitempty"`
}

// Variant is an alternative template. Variants are tried in order and the
// first whose condition holds replaces the node's template.
type Variant struct {
	Condition  string            `json:"condition"`
	Lang       string            `json:"lang,omitempty"`
	Template   string            `json:"template,omitempty"`
	TemplateID string            `json:"template_id,omitempty"`
	Options    map[string]string `json:"options,omitempty"`
}

// RenderResult represents the outcome of rendering a node's template
type RenderResult struct {
	OutputKey string        `json:"output_key"`
	Output    interface{}   `json:"output,omitempty"`
	Lang      string        `json:"lang"`
	Variant   int           `json:"variant"` // index into Variants, -1 for the node template
	Skipped   bool          `json:"skipped"`
	Reason    string        `json:"reason,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Renderer renders node templates against graph state
type Renderer struct {
	scripts      *script.Service
	celEvaluator *cel.Evaluator
	defaultLang  string
	logger       *zap.Logger
}

// NewRenderer creates a new renderer. A nil evaluator disables when guards
// and variants.
func NewRenderer(scripts *script.Service, celEvaluator *cel.Evaluator, defaultLang string, logger *zap.Logger) *Renderer {
	if defaultLang == "" {
		defaultLang = script.LangMustache
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		scripts:      scripts,
		celEvaluator: celEvaluator,
		defaultLang:  defaultLang,
		logger:       logger,
	}
}

// Render renders the configured template with the graph state and params
func (r *Renderer) Render(ctx context.Context, state *domain.GraphState, config *NodeConfig) (*RenderResult, error) {
	if err := r.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	start := time.Now()
	outputKey := config.OutputKey
	if outputKey == "" {
		outputKey = DefaultOutputKey
	}

	r.logger.Info("render request",
		zap.String("graph_id", state.GraphID),
		zap.String("template_id", config.TemplateID),
		zap.Int("variants", len(config.Variants)),
	)

	params, err := mustache.ParseJSONMap(config.Params)
	if err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	stateVars := prepareState(state)
	renderCtx := buildContext(state, stateVars, params)

	var celVars map[string]interface{}
	if r.celEvaluator != nil {
		celVars = map[string]interface{}{
			cel.VarParams: mustache.MapValue(renderCtx).Interface(),
			cel.VarState:  stateVars,
		}
	}

	if config.When != "" {
		matched, err := r.celEvaluator.EvaluateBool(ctx, config.When, celVars)
		if err != nil {
			return nil, fmt.Errorf("when condition failed: %w", err)
		}
		if !matched {
			r.logger.Info("when condition false, render skipped",
				zap.String("graph_id", state.GraphID),
				zap.String("when", config.When),
			)
			return &RenderResult{
				OutputKey: outputKey,
				Variant:   -1,
				Skipped:   true,
				Reason:    fmt.Sprintf("when condition false: %s", config.When),
				Duration:  time.Since(start),
			}, nil
		}
	}

	variant, s := r.selectScript(ctx, config, celVars)

	output, lang, err := r.run(s, renderCtx)
	if err != nil {
		r.logger.Error("render failed",
			zap.String("graph_id", state.GraphID),
			zap.String("lang", lang),
			zap.Int("variant", variant),
			zap.Error(err),
		)
		return nil, err
	}

	result := &RenderResult{
		OutputKey: outputKey,
		Output:    output,
		Lang:      lang,
		Variant:   variant,
		Duration:  time.Since(start),
	}

	r.logger.Info("template rendered",
		zap.String("graph_id", state.GraphID),
		zap.String("output_key", outputKey),
		zap.String("lang", lang),
		zap.Int("variant", variant),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// selectScript evaluates variant conditions in order and returns the first
// matching variant, or -1 and the node template when none matches.
func (r *Renderer) selectScript(ctx context.Context, config *NodeConfig, celVars map[string]interface{}) (int, script.Script) {
	for i, v := range config.Variants {
		r.logger.Debug("evaluating variant",
			zap.Int("variant", i),
			zap.String("condition", v.Condition),
		)

		result, err := r.celEvaluator.Evaluate(ctx, v.Condition, celVars)
		if err != nil {
			r.logger.Warn("variant condition error",
				zap.Int("variant", i),
				zap.String("condition", v.Condition),
				zap.Error(err),
			)
			// Continue to next variant on error
			continue
		}

		matched, ok := result.(bool)
		if !ok {
			r.logger.Warn("variant condition did not return boolean",
				zap.Int("variant", i),
				zap.String("condition", v.Condition),
				zap.Any("result", result),
			)
			continue
		}

		if matched {
			r.logger.Debug("variant matched", zap.Int("variant", i))
			return i, r.scriptFor(v.Lang, v.Template, v.TemplateID, v.Options)
		}
	}

	return -1, r.scriptFor(config.Lang, config.Template, config.TemplateID, config.Options)
}

// scriptFor builds the script for a template reference. Stored scripts keep
// their catalog language unless one is given.
func (r *Renderer) scriptFor(lang, source, id string, options map[string]string) script.Script {
	if lang == "" && id == "" {
		lang = r.defaultLang
	}
	return script.Script{ID: id, Lang: lang, Source: source, Options: options}
}

// run compiles the script and runs it, returning the output and the
// language that ran it
func (r *Renderer) run(s script.Script, renderCtx *mustache.Map) (interface{}, string, error) {
	compiled, err := r.scripts.Compile(s)
	if err != nil {
		return nil, s.Lang, fmt.Errorf("compile failed: %w", err)
	}
	exec, err := r.scripts.Executable(compiled, renderCtx)
	if err != nil {
		return nil, compiled.Lang, err
	}
	output, err := exec.Run()
	if err != nil {
		return nil, compiled.Lang, fmt.Errorf("render failed: %w", err)
	}
	return output, compiled.Lang, nil
}

// validateConfig validates the template configuration
func (r *Renderer) validateConfig(config *NodeConfig) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if err := validateTemplateRef(config.Template, config.TemplateID); err != nil {
		return err
	}

	if (config.When != "" || len(config.Variants) > 0) && r.celEvaluator == nil {
		return fmt.Errorf("when and variants require CEL, which is disabled")
	}

	if config.When != "" {
		if err := r.celEvaluator.ValidateCondition(config.When); err != nil {
			return fmt.Errorf("when: %w", err)
		}
	}

	for i, v := range config.Variants {
		if v.Condition == "" {
			return fmt.Errorf("variant %d: condition is required", i)
		}
		if err := validateTemplateRef(v.Template, v.TemplateID); err != nil {
			return fmt.Errorf("variant %d: %w", i, err)
		}
	}

	return nil
}

func validateTemplateRef(template, templateID string) error {
	switch {
	case template == "" && templateID == "":
		return fmt.Errorf("template or template_id is required")
	case template != "" && templateID != "":
		return fmt.Errorf("template and template_id are mutually exclusive")
	}
	return nil
}
