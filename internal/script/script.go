package script

// Engine languages registered by default
const (
	LangMustache   = "mustache"
	LangHandlebars = "handlebars"
	LangExpression = "expression"
)

// Script names the source to compile: inline source, or the id of a stored
// script when Source is empty.
type Script struct {
	ID      string            `json:"id,omitempty" yaml:"id"`
	Lang    string            `json:"lang,omitempty" yaml:"lang"`
	Source  string            `json:"source,omitempty" yaml:"source"`
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Stored reports whether the script refers to a catalog entry
func (s Script) Stored() bool {
	return s.Source == "" && s.ID != ""
}

// Engine compiles scripts of one language and binds them to parameters
type Engine interface {
	// Lang returns the language name scripts select the engine by
	Lang() string

	// Compile compiles source. name identifies the script in errors.
	Compile(name, source string, options map[string]string) (interface{}, error)

	// Executable binds a compiled script to params
	Executable(compiled *CompiledScript, params interface{}) ExecutableScript
}

// ExecutableScript is a compiled script bound to its parameters
type ExecutableScript interface {
	Run() (interface{}, error)
}

// CompiledScript is the shareable result of compiling a script
type CompiledScript struct {
	Name     string
	Lang     string
	Options  map[string]string
	compiled interface{}
}

// Compiled returns the engine specific compiled form
func (c *CompiledScript) Compiled() interface{} {
	return c.compiled
}
