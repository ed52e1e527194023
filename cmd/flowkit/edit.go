package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recera/flowkit/internal/diffview"
	"github.com/recera/flowkit/pkg/flowchart"
	"github.com/recera/flowkit/pkg/mermaid"
)

// editOps are the mutations requested on the command line. They are
// applied in field order.
type editOps struct {
	setNodes    []string // id:shape:text[:bg[:color]]
	deleteEdges []string // from:to
	deleteNodes []string
	addShapes   []string
	addEdges    []string // from:to
}

func (o editOps) empty() bool {
	return len(o.setNodes)+len(o.deleteEdges)+len(o.deleteNodes)+len(o.addShapes)+len(o.addEdges) == 0
}

func newEditCommand(g *globalOptions) *cobra.Command {
	var ops editOps
	var write bool
	var showDiff bool

	cmd := &cobra.Command{
		Use:   "edit [diagram]",
		Short: "Apply editor operations to a diagram",
		Long: `Applies the same operations the interactive editor performs. The result is
printed to stdout unless --write is given.

  flowkit edit diagram.mmd --add-shape diamond --add-edge A:node-1700000000000
  flowkit edit diagram.mmd --set-node 'A:circle:Start:#ffeeaa' --write`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ops.empty() {
				return fmt.Errorf("no operations given")
			}
			cfg := g.loadConfig()
			opts, err := editorOptions(cfg)
			if err != nil {
				return err
			}

			path := g.diagramPath(cfg, args)
			before, err := readSource(path, cmd.InOrStdin(), true)
			if err != nil {
				return err
			}

			after, err := applyEdits(before, ops, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if showDiff {
				fmt.Fprint(cmd.ErrOrStderr(), diffview.Unified(before, after, 2, diffview.Color{}))
			}
			if !write || path == "-" {
				fmt.Fprint(cmd.OutOrStdout(), after)
				return nil
			}
			if after == before {
				dimColor.Fprintln(cmd.ErrOrStderr(), "No changes")
				return nil
			}
			if err := writeSource(path, after); err != nil {
				return err
			}
			ins, del := diffview.Changed(diffview.Lines(before, after))
			okColor.Fprintf(cmd.ErrOrStderr(), "✅ Updated %s (+%d -%d)\n", path, ins, del)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&ops.setNodes, "set-node", nil, "Set node props as id:shape:text[:bg[:color]]")
	cmd.Flags().StringArrayVar(&ops.deleteEdges, "delete-edge", nil, "Delete edges as from:to")
	cmd.Flags().StringArrayVar(&ops.deleteNodes, "delete-node", nil, "Delete a node and every statement referencing it")
	cmd.Flags().StringArrayVar(&ops.addShapes, "add-shape", nil, "Add a shape (rect, circle, diamond)")
	cmd.Flags().StringArrayVar(&ops.addEdges, "add-edge", nil, "Add an edge as from:to")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the diagram file")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Print a diff of the changes to stderr")

	return cmd
}

// applyEdits runs ops through an editor and returns the resulting source.
// Progress lines go to log.
func applyEdits(source string, ops editOps, opts flowchart.Options, log io.Writer) (string, error) {
	editor := flowchart.NewEditor(source, opts)
	defer editor.Close()

	for _, spec := range ops.setNodes {
		node, err := parseNodeSpec(spec)
		if err != nil {
			return "", err
		}
		if !editor.SetNodeProps(node) {
			return "", fmt.Errorf("set-node %s: node has no metadata", node.ID)
		}
		fmt.Fprintf(log, "set %s\n", node.Shape.Encode(node.ID, node.Text))
	}

	for _, spec := range ops.deleteEdges {
		from, to, err := parseEdgeSpec(spec)
		if err != nil {
			return "", err
		}
		editor.HandleEdgeClick(flowchart.EdgeRef{From: from, To: to})
		n := editor.DeleteSelectedEdge()
		if n == 0 {
			warnColor.Fprintf(log, "no edge %s --> %s\n", from, to)
			continue
		}
		fmt.Fprintf(log, "deleted %d edge(s) %s --> %s\n", n, from, to)
	}

	for _, id := range ops.deleteNodes {
		n := editor.DeleteNode(id)
		if n == 0 {
			warnColor.Fprintf(log, "no statements reference %s\n", id)
			continue
		}
		fmt.Fprintf(log, "deleted %s (%d statements)\n", id, n)
	}

	for _, name := range ops.addShapes {
		shape, err := mermaid.ParseShape(name)
		if err != nil {
			return "", fmt.Errorf("add-shape: %w", err)
		}
		fmt.Fprintf(log, "added %s\n", editor.AddShape(shape))
	}

	for _, spec := range ops.addEdges {
		from, to, err := parseEdgeSpec(spec)
		if err != nil {
			return "", err
		}
		editor.AddEdge(from, to)
		fmt.Fprintf(log, "added %s --> %s\n", from, to)
	}

	return editor.Source(), nil
}

func parseEdgeSpec(spec string) (from, to string, err error) {
	from, to, ok := strings.Cut(spec, ":")
	if !ok || from == "" || to == "" {
		return "", "", fmt.Errorf("invalid edge %q: want from:to", spec)
	}
	return from, to, nil
}

func parseNodeSpec(spec string) (mermaid.Node, error) {
	parts := strings.SplitN(spec, ":", 5)
	if len(parts) < 3 || parts[0] == "" {
		return mermaid.Node{}, fmt.Errorf("invalid node %q: want id:shape:text[:bg[:color]]", spec)
	}
	shape, err := mermaid.ParseShape(parts[1])
	if err != nil {
		return mermaid.Node{}, fmt.Errorf("invalid node %q: %w", spec, err)
	}
	node := mermaid.Node{ID: parts[0], Shape: shape, Text: parts[2]}
	if len(parts) > 3 {
		node.BgColor = parts[3]
	}
	if len(parts) > 4 {
		node.Color = parts[4]
	}
	return node, nil
}
