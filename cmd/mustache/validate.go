package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aescanero/dago-node-template/internal/script"
)

func newValidateCmd() *cobra.Command {
	var flags scriptFlags

	cmd := &cobra.Command{
		Use:   "validate [template-file...]",
		Short: "Compile templates and report syntax errors",
		Long: `Compile template files, and every stored script when --catalog is
given, without rendering them. Exits non-zero if any fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && flags.catalog == "" {
				return fmt.Errorf("no templates given: pass files or --catalog")
			}

			svc, err := flags.service()
			if err != nil {
				return err
			}

			var scripts []script.Script
			for _, path := range args {
				src, err := readSource(cmd.InOrStdin(), path)
				if err != nil {
					return err
				}
				scripts = append(scripts, script.Script{
					ID:      path,
					Lang:    flags.lang,
					Source:  string(src),
					Options: flags.options(),
				})
			}
			for _, id := range svc.Catalog().IDs() {
				scripts = append(scripts, script.Script{ID: id})
			}

			failed := 0
			out := cmd.OutOrStdout()
			for _, s := range scripts {
				if _, err := svc.Compile(s); err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", s.ID, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s\n", s.ID)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d templates failed to compile", failed, len(scripts))
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
