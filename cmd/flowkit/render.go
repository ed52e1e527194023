package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recera/flowkit/pkg/render"
	"github.com/recera/flowkit/pkg/renderer/html"
)

func newRenderCommand(g *globalOptions) *cobra.Command {
	var output string
	var strict bool

	cmd := &cobra.Command{
		Use:   "render [diagram]",
		Short: "Render a diagram to SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.loadConfig()
			if strict {
				cfg.Layout.Strict = true
			}

			source, err := readSource(g.diagramPath(cfg, args), cmd.InOrStdin(), false)
			if err != nil {
				return err
			}
			svg, err := renderSVG(cmd.Context(), newRenderer(cfg), source, false)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				fmt.Fprintln(cmd.OutOrStdout(), svg)
				return nil
			}
			if err := os.WriteFile(output, []byte(svg+"\n"), 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			okColor.Fprintf(cmd.ErrOrStderr(), "✅ Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the SVG to a file instead of stdout")
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject statements outside the flowchart subset")

	return cmd
}

// renderSVG renders source to an SVG document
func renderSVG(ctx context.Context, r render.Renderer, source string, invalidate bool) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	d, err := r.Render(ctx, source, render.Options{Invalidate: invalidate})
	if err != nil {
		return "", fmt.Errorf("render diagram: %w", err)
	}
	return html.RenderToString(d.Root)
}
