// Package render turns diagram source into an SVG node tree and bridges the
// rendered tree to an editor: it owns the hit overlays drawn over edges and
// the listeners attached to them, and routes node clicks to the editor's
// dispatcher.
package render

import (
	"context"

	"github.com/recera/flowkit/pkg/flowchart"
	"github.com/recera/flowkit/pkg/mermaid"
	"github.com/recera/flowkit/pkg/vdom"
)

// debugLog is set by pkg/debug
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// Options controls a single render
type Options struct {
	// Invalidate forces a fresh render even when the source is unchanged
	Invalidate bool
}

// Renderer turns diagram source into a drawable diagram
type Renderer interface {
	Render(ctx context.Context, source string, opts Options) (*Diagram, error)
}

// RendererFunc adapts a function to the Renderer interface
type RendererFunc func(ctx context.Context, source string, opts Options) (*Diagram, error)

// Render calls f
func (f RendererFunc) Render(ctx context.Context, source string, opts Options) (*Diagram, error) {
	return f(ctx, source, opts)
}

// NodeBox is a laid-out node
type NodeBox struct {
	ID        string         `json:"id"`
	ElementID string         `json:"elementId"`
	Shape     mermaid.Shape  `json:"shape"`
	Label     string         `json:"label"`
	Bounds    flowchart.Rect `json:"bounds"`
	Callback  string         `json:"callback,omitempty"`
	Rank      int            `json:"rank"`
}

// EdgePath is a laid-out edge
type EdgePath struct {
	ID    string          `json:"id"`
	From  string          `json:"from"`
	To    string          `json:"to"`
	Label string          `json:"label,omitempty"`
	Start flowchart.Point `json:"start"`
	End   flowchart.Point `json:"end"`
}

// Ref returns the edge reference handed to editors
func (e EdgePath) Ref() flowchart.EdgeRef {
	return flowchart.EdgeRef{ID: e.ID, From: e.From, To: e.To}
}

// Diagram is a rendered diagram: the SVG tree plus the geometry needed for
// hit testing
type Diagram struct {
	Root      *vdom.VNode
	Nodes     []NodeBox
	Edges     []EdgePath
	Direction string
	Width     float64
	Height    float64
}

// Node returns the laid-out node with the given id
func (d *Diagram) Node(id string) (NodeBox, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeBox{}, false
}

// Edge returns the laid-out edge with the given element id
func (d *Diagram) Edge(id string) (EdgePath, bool) {
	for _, e := range d.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return EdgePath{}, false
}

// NodeAt returns the topmost node containing p
func (d *Diagram) NodeAt(p flowchart.Point) (NodeBox, bool) {
	for i := len(d.Nodes) - 1; i >= 0; i-- {
		if d.Nodes[i].Bounds.Contains(p) {
			return d.Nodes[i], true
		}
	}
	return NodeBox{}, false
}

// Clone returns a deep copy, so a cached diagram can be decorated without
// affecting the cache
func (d *Diagram) Clone() *Diagram {
	if d == nil {
		return nil
	}
	c := *d
	c.Root = d.Root.Clone()
	c.Nodes = append([]NodeBox(nil), d.Nodes...)
	c.Edges = append([]EdgePath(nil), d.Edges...)
	return &c
}
