package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aescanero/dago-node-template/internal/eval/mustache"
	"github.com/aescanero/dago-node-template/internal/script"
)

func newRenderCmd() *cobra.Command {
	var (
		flags      scriptFlags
		inline     string
		id         string
		paramsFile string
	)

	cmd := &cobra.Command{
		Use:   "render [template-file]",
		Short: "Render a template with JSON params",
		Long: `Render a template with JSON params.

The template comes from a file argument ("-" for stdin), --inline, or
--id with --catalog. Params are a JSON object; key order is preserved.
String output is written as is, other results as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := 0
			for _, set := range []bool{len(args) == 1, inline != "", id != ""} {
				if set {
					sources++
				}
			}
			if sources != 1 {
				return errors.New("exactly one of a template file, --inline or --id is required")
			}

			s := script.Script{ID: id, Source: inline, Options: flags.options()}
			if cmd.Flags().Changed("lang") || id == "" {
				s.Lang = flags.lang
			}
			if len(args) == 1 {
				src, err := readSource(cmd.InOrStdin(), args[0])
				if err != nil {
					return err
				}
				s.Source = string(src)
				s.ID = args[0]
			}

			params := mustache.NewMap()
			if paramsFile != "" {
				data, err := readSource(cmd.InOrStdin(), paramsFile)
				if err != nil {
					return err
				}
				if params, err = mustache.ParseJSONMap(data); err != nil {
					return fmt.Errorf("invalid params: %w", err)
				}
			}

			svc, err := flags.service()
			if err != nil {
				return err
			}
			out, err := svc.Run(s, params)
			if err != nil {
				return err
			}

			if str, ok := out.(string); ok {
				_, err = fmt.Fprint(cmd.OutOrStdout(), str)
			} else {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), mustache.ToJSON(out))
			}
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&inline, "inline", "e", "", "inline template source")
	cmd.Flags().StringVar(&id, "id", "", "stored script id (requires --catalog)")
	cmd.Flags().StringVarP(&paramsFile, "params", "p", "", "JSON params file (\"-\" for stdin)")
	return cmd
}
