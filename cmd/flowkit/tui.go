package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/recera/flowkit/internal/tui"
	"github.com/recera/flowkit/pkg/flowchart"
	"github.com/recera/flowkit/pkg/render"
)

func newTUICommand(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui [diagram]",
		Short: "Edit a diagram in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.loadConfig()
			opts, err := editorOptions(cfg)
			if err != nil {
				return err
			}

			path := g.diagramPath(cfg, args)
			source, err := readSource(path, cmd.InOrStdin(), true)
			if err != nil {
				return err
			}

			editor := flowchart.NewEditor(source, opts)
			defer editor.Close()
			bridge := render.ForEditor(newRenderer(cfg), editor)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			unmount := editor.Mount(ctx, bridge)
			defer unmount()

			var save func(string) error
			if path != "-" {
				save = func(source string) error { return writeSource(path, source) }
			}

			model := tui.NewModel(editor, bridge, tui.Options{Save: save})
			if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
				return fmt.Errorf("run tui: %w", err)
			}
			return nil
		},
	}
	return cmd
}
