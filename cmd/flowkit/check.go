package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recera/flowkit/pkg/mermaid"
	"github.com/recera/flowkit/pkg/render"
)

func newCheckCommand(g *globalOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check [diagram]",
		Short: "Report nodes that the editor cannot select or draw",
		Long: `Checks that every node has a metadata comment, a declaration and a click
binding that agree with each other. Exits non-zero when problems are found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.loadConfig()
			if strict {
				cfg.Layout.Strict = true
			}

			source, err := readSource(g.diagramPath(cfg, args), cmd.InOrStdin(), false)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			issues := mermaid.Parse(source).Validate()
			for _, issue := range issues {
				failColor.Fprint(out, "✗ ")
				fmt.Fprintln(out, issue.String())
			}

			problems := len(issues)
			if cfg.Layout.Strict {
				_, err := newRenderer(cfg).Render(cmd.Context(), source, render.Options{})
				var syntaxErr *render.SyntaxError
				if errors.As(err, &syntaxErr) {
					for _, st := range syntaxErr.Statements {
						failColor.Fprint(out, "✗ ")
						fmt.Fprintf(out, "unsupported statement %q\n", st)
					}
					problems += len(syntaxErr.Statements)
				} else if err != nil {
					return err
				}
			}

			if problems > 0 {
				return fmt.Errorf("%d problem(s) found", problems)
			}
			okColor.Fprintln(out, "✓ No problems found")
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Also reject statements outside the flowchart subset")

	return cmd
}
