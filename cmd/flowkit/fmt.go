package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recera/flowkit/pkg/mermaid"
)

func newFmtCommand(g *globalOptions) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "fmt [diagram]",
		Short: "Normalize statement layout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.loadConfig()
			path := g.diagramPath(cfg, args)
			source, err := readSource(path, cmd.InOrStdin(), false)
			if err != nil {
				return err
			}

			formatted := mermaid.Parse(source).Format()
			if !write || path == "-" {
				fmt.Fprint(cmd.OutOrStdout(), formatted)
				return nil
			}
			if formatted == source {
				return nil
			}
			return writeSource(path, formatted)
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the diagram file")

	return cmd
}
