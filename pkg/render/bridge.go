package render

import (
	"context"
	"fmt"
	"sync"

	"github.com/recera/flowkit/pkg/flowchart"
	"github.com/recera/flowkit/pkg/renderer/html"
	"github.com/recera/flowkit/pkg/vdom"
)

const (
	// CloneSuffix is appended to an edge id to name its hit overlay
	CloneSuffix = "-clone"
	// OverlayStyle makes an overlay a wide, invisible click target
	OverlayStyle = "cursor:pointer;stroke-width:20px;opacity:0"
)

// Bridge renders an editor's source and keeps its interaction overlays in
// step with the rendered tree. It implements flowchart.Surface.
type Bridge struct {
	renderer    Renderer
	dispatcher  *flowchart.Dispatcher
	onEdgeClick func(flowchart.EdgeRef)

	mu        sync.Mutex
	diagram   *Diagram
	overlays  []string
	listeners *ListenerSet
	loads     int
}

// NewBridge creates a bridge that routes node clicks through dispatcher and
// edge clicks to onEdgeClick. Either may be nil.
func NewBridge(renderer Renderer, dispatcher *flowchart.Dispatcher, onEdgeClick func(flowchart.EdgeRef)) *Bridge {
	return &Bridge{
		renderer:    renderer,
		dispatcher:  dispatcher,
		onEdgeClick: onEdgeClick,
		listeners:   NewListenerSet(),
	}
}

// ForEditor creates a bridge wired to an editor's dispatcher and edge
// handler
func ForEditor(renderer Renderer, editor *flowchart.Editor) *Bridge {
	return NewBridge(renderer, editor.Dispatcher(), editor.HandleEdgeClick)
}

// Load renders source and attaches fresh overlays. Previous overlays are
// detached first. When rendering fails the previous diagram stays on
// screen with its overlays restored.
func (b *Bridge) Load(ctx context.Context, source string, invalidate bool) error {
	b.Detach()

	d, err := b.renderer.Render(ctx, source, Options{Invalidate: invalidate})

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loads++
	if err != nil {
		if b.diagram != nil {
			b.attach()
		}
		return fmt.Errorf("render diagram: %w", err)
	}
	b.diagram = d
	b.attach()
	if debugLog != nil {
		debugLog("[Bridge] Attached", b.listeners.Count(), "listeners")
	}
	return nil
}

// attach clones every edge path into a hit overlay and registers the click
// listeners. Caller holds b.mu.
func (b *Bridge) attach() {
	d := b.diagram
	for _, group := range d.Root.FindAll(vdom.Element("g", "edgePaths")) {
		for _, path := range group.FindAll(vdom.Element("path", "flowchart-link")) {
			edge, ok := d.Edge(path.ID())
			if !ok {
				continue
			}
			overlay := path.Clone()
			overlayID := edge.ID + CloneSuffix
			overlay.SetAttr("id", overlayID)
			overlay.SetAttr("class", "flowchart-link-overlay")
			overlay.SetAttr("style", OverlayStyle)
			overlay.SetAttr("marker-end", nil)
			group.AppendChild(overlay)
			b.overlays = append(b.overlays, overlayID)

			ref := edge.Ref()
			b.listeners.Add(overlayID, func() {
				if b.onEdgeClick != nil {
					b.onEdgeClick(ref)
				}
			})
		}
	}

	for _, n := range d.Nodes {
		if n.Callback == "" {
			continue
		}
		id := n.ID
		b.listeners.Add(n.ElementID, func() { b.ClickNode(id) })
	}
}

// Detach removes all overlays and listeners and returns how many listeners
// were removed
func (b *Bridge) Detach() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	if b.diagram != nil {
		ids := make(map[string]bool, len(b.overlays))
		for _, id := range b.overlays {
			ids[id] = true
			removed += b.listeners.Remove(id)
		}
		b.diagram.Root.RemoveAll(func(n *vdom.VNode) bool {
			return n.IsElement() && ids[n.ID()]
		})
		for _, n := range b.diagram.Nodes {
			removed += b.listeners.Remove(n.ElementID)
		}
	}
	b.overlays = nil
	return removed
}

// ListenerCount returns the number of attached listeners
func (b *Bridge) ListenerCount() int {
	return b.listeners.Count()
}

// Overlays returns the ids of the attached edge overlays
func (b *Bridge) Overlays() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.overlays...)
}

// Loads returns how many times the bridge has rendered
func (b *Bridge) Loads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loads
}

// ClickNode delivers a click on node id to the callback named by its click
// binding. Nodes without a binding are not clickable.
func (b *Bridge) ClickNode(id string) bool {
	b.mu.Lock()
	var callback string
	if b.diagram != nil {
		if n, ok := b.diagram.Node(id); ok {
			callback = n.Callback
		}
	}
	b.mu.Unlock()

	if callback == "" || b.dispatcher == nil {
		return false
	}
	return b.dispatcher.Dispatch(callback, id)
}

// ClickElement fires the listeners attached to an element id
func (b *Bridge) ClickElement(elementID string) bool {
	return b.listeners.Fire(elementID) > 0
}

// ClickAt clicks whatever is under p: a node, if one contains the point
func (b *Bridge) ClickAt(p flowchart.Point) bool {
	b.mu.Lock()
	var id string
	if b.diagram != nil {
		if n, ok := b.diagram.NodeAt(p); ok {
			id = n.ID
		}
	}
	b.mu.Unlock()

	if id == "" {
		return false
	}
	return b.ClickNode(id)
}

// NodeBounds returns the rendered bounding box of node id
func (b *Bridge) NodeBounds(id string) (flowchart.Rect, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.diagram == nil {
		return flowchart.Rect{}, false
	}
	n, ok := b.diagram.Node(id)
	return n.Bounds, ok
}

// Diagram returns a copy of the current diagram, or nil before the first
// successful render
func (b *Bridge) Diagram() *Diagram {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.diagram.Clone()
}

// SVG serializes the current tree, overlays included
func (b *Bridge) SVG() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.diagram == nil {
		return "", nil
	}
	return html.RenderToString(b.diagram.Root)
}
