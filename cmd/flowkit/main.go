package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts globalOptions

	rootCmd := &cobra.Command{
		Use:   "flowkit",
		Short: "flowkit - edit Mermaid flowcharts through their rendered diagram",
		Long: `flowkit keeps a Mermaid flowchart source in sync with an interactive
rendering. Nodes are selected, connected, restyled and deleted on the
diagram and every change is written back into the text.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.projectDir, "project", ".", "Directory containing flowkit.yaml")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	// Add commands
	rootCmd.AddCommand(newServeCommand(&opts))
	rootCmd.AddCommand(newRenderCommand(&opts))
	rootCmd.AddCommand(newEditCommand(&opts))
	rootCmd.AddCommand(newCheckCommand(&opts))
	rootCmd.AddCommand(newFmtCommand(&opts))
	rootCmd.AddCommand(newTUICommand(&opts))

	return rootCmd
}
