package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aescanero/dago-node-template/internal/eval/cel"
	"github.com/aescanero/dago-node-template/internal/eval/handlebars"
	"github.com/aescanero/dago-node-template/internal/eval/mustache"
	"github.com/aescanero/dago-node-template/internal/script"
)

// scriptFlags are shared by render and validate
type scriptFlags struct {
	lang        string
	contentType string
	catalog     string
	verbose     bool
}

func (f *scriptFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.lang, "lang", "l", script.LangMustache, "script language: mustache, handlebars or expression")
	cmd.Flags().StringVar(&f.contentType, "content-type", "", "variable encoding for mustache templates (text/plain, application/json, application/x-www-form-urlencoded)")
	cmd.Flags().StringVar(&f.catalog, "catalog", "", "YAML catalog of stored scripts")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "log compilation details to stderr")
}

func (f *scriptFlags) options() map[string]string {
	if f.contentType == "" {
		return nil
	}
	return map[string]string{mustache.OptionContentType: f.contentType}
}

// service builds a script service with every engine registered
func (f *scriptFlags) service() (*script.Service, error) {
	logger := zap.NewNop()
	if f.verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		var err error
		if logger, err = cfg.Build(); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	var catalog *script.Catalog
	if f.catalog != "" {
		var err error
		if catalog, err = script.LoadCatalog(f.catalog); err != nil {
			return nil, err
		}
	}

	svc := script.NewService(0, f.lang, catalog, logger)
	svc.Register(script.NewMustacheEngine(mustache.NewEngine(logger)))
	svc.Register(script.NewHandlebarsEngine(handlebars.NewEngine(logger)))
	svc.Register(script.NewExpressionEngine(cel.NewEvaluator()))
	return svc, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mustache",
		Short: "Render and validate templates",
		Long: `Render and validate mustache, handlebars and CEL expression scripts
with the same engines the template worker uses.

Examples:
  # Render a template file with JSON params
  mustache render greeting.mustache -p params.json

  # Render an inline template
  mustache render -e "{{#join}}tags{{/join}}" -p params.json

  # Render a stored script
  mustache render --catalog templates.yaml --id search_query -p params.json

  # Check every script in a catalog
  mustache validate --catalog templates.yaml`,
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRenderCmd(), newValidateCmd())
	return root
}

// readSource reads a file, or stdin when path is "-"
func readSource(in io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(in)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
