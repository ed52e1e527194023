// Package flowchart implements the interaction state machine of the
// flowchart editor.
//
// An Editor owns the diagram source and the transient UI state around it:
// the selected node, the anchor of its contextual menu, and an edge-creation
// gesture in progress. Every mutation goes through the mermaid document
// model, and the bound Surface re-renders after each change of the source.
//
// Interaction states:
//
//	Idle          -> NodeSelected  HandleNodeClick
//	NodeSelected  -> Connecting    StartCreateEdge
//	Connecting    -> Idle          HandleNodeClick (edge completed) or CancelCreateEdge
//	NodeSelected  -> Idle          DeleteNode
package flowchart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/recera/flowkit/pkg/mermaid"
	"github.com/recera/flowkit/pkg/reactive"
)

// debugLog is set by pkg/debug
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// Surface is the rendered view an editor drives
type Surface interface {
	// Load renders source, replacing whatever was shown before
	Load(ctx context.Context, source string, invalidate bool) error
	// Detach removes interaction overlays and listeners, returning how many
	// listeners were removed
	Detach() int
	// NodeBounds returns the rendered bounding box of a node
	NodeBounds(id string) (Rect, bool)
}

// Options configures an editor
type Options struct {
	// ConnectMode decides what happens after an edge is completed
	ConnectMode ConnectMode
	// Callback is the click callback name this editor answers to
	Callback string
	// DefaultLabel is the text of newly added shapes
	DefaultLabel string
	// Now supplies the clock used for new node ids
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Callback == "" {
		o.Callback = mermaid.DefaultCallback
	}
	if o.DefaultLabel == "" {
		o.DefaultLabel = mermaid.DefaultLabel
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Editor is one flowchart editing session
type Editor struct {
	opts       Options
	rt         *reactive.Runtime
	dispatcher *Dispatcher
	unregister func()

	source         *reactive.State[string]
	selectedNodeID *reactive.State[string]
	selectedNode   *reactive.State[*mermaid.Node]
	selectedEdge   *reactive.State[*EdgeRef]
	floatingPoint  *reactive.State[*Point]
	connecting     *reactive.State[bool]
	pendingEdge    *reactive.State[*PendingEdge]

	selection *reactive.Effect

	mu         sync.Mutex
	pointer    *Point
	surface    Surface
	render     *reactive.Effect
	renderErr  error
	renderRuns int
	closed     bool
}

// NewEditor creates an editor over defaultSource and registers its click
// handler under opts.Callback
func NewEditor(defaultSource string, opts Options) *Editor {
	opts = opts.withDefaults()
	rt := reactive.NewRuntime()

	e := &Editor{
		opts:           opts,
		rt:             rt,
		dispatcher:     NewDispatcher(),
		source:         reactive.NewStateFunc(defaultSource, rt, reactive.Equal[string]),
		selectedNodeID: reactive.NewStateFunc("", rt, reactive.Equal[string]),
		selectedNode:   reactive.NewState[*mermaid.Node](nil, rt),
		selectedEdge:   reactive.NewState[*EdgeRef](nil, rt),
		floatingPoint:  reactive.NewState[*Point](nil, rt),
		connecting:     reactive.NewStateFunc(false, rt, reactive.Equal[bool]),
		pendingEdge:    reactive.NewState[*PendingEdge](nil, rt),
	}

	e.selection = reactive.NewEffect(func() func() {
		e.selectedNode.Set(e.resolveSelected())
		return nil
	}, e.source, e.selectedNodeID)

	e.unregister = e.dispatcher.Register(opts.Callback, e.HandleNodeClick)
	return e
}

// resolveSelected looks the selected id up in the current source
func (e *Editor) resolveSelected() *mermaid.Node {
	id := e.selectedNodeID.Get()
	if id == "" {
		return nil
	}
	node, ok := mermaid.Parse(e.source.Get()).Node(id)
	if !ok {
		return nil
	}
	return node
}

// Dispatcher returns the registry renderers deliver node clicks through
func (e *Editor) Dispatcher() *Dispatcher {
	return e.dispatcher
}

// Callback returns the click callback name of this editor
func (e *Editor) Callback() string {
	return e.opts.Callback
}

// ConnectMode returns the configured connect mode
func (e *Editor) ConnectMode() ConnectMode {
	return e.opts.ConnectMode
}

// Mount binds a surface and renders the current source into it. The
// surface re-renders after every change of the source until the returned
// function is called or the editor is closed. Only the first render and
// renders following a failed one ask the surface to invalidate.
func (e *Editor) Mount(ctx context.Context, surface Surface) (unmount func()) {
	e.mu.Lock()
	if e.render != nil {
		prev := e.render
		e.render = nil
		e.mu.Unlock()
		prev.Stop()
		e.mu.Lock()
	}
	e.surface = surface
	e.mu.Unlock()

	// The first load and any load after a failure bypass the renderer cache
	force := true
	effect := reactive.NewEffect(func() func() {
		src := e.source.Get()
		e.mu.Lock()
		invalidate := force
		e.mu.Unlock()

		err := surface.Load(ctx, src, invalidate)

		e.mu.Lock()
		force = err != nil
		e.renderErr = err
		e.renderRuns++
		e.mu.Unlock()

		if err != nil && debugLog != nil {
			debugLog("[Editor] Render failed:", err)
		}
		return func() {
			removed := surface.Detach()
			if debugLog != nil {
				debugLog("[Editor] Detached", removed, "listeners")
			}
		}
	}, e.source)

	e.mu.Lock()
	e.render = effect
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		if e.render == effect {
			e.render = nil
			e.surface = nil
		}
		e.mu.Unlock()
		effect.Stop()
	}
}

// RenderErr returns the error of the last render, if any
func (e *Editor) RenderErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.renderErr
}

// Renders returns how many times the mounted surfaces have been rendered
func (e *Editor) Renders() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.renderRuns
}

// Close stops rendering and releases the click callback
func (e *Editor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	render := e.render
	e.render = nil
	e.surface = nil
	e.mu.Unlock()

	if render != nil {
		render.Stop()
	}
	e.selection.Stop()
	e.unregister()
}

// Source returns the current diagram text
func (e *Editor) Source() string {
	return e.source.Get()
}

// SetSource replaces the diagram text
func (e *Editor) SetSource(src string) {
	e.source.Set(src)
}

// SelectedNodeID returns the id of the selected node, or ""
func (e *Editor) SelectedNodeID() string {
	return e.selectedNodeID.Get()
}

// SetSelectedNodeID selects a node by id; "" clears the selection
func (e *Editor) SetSelectedNodeID(id string) {
	e.selectedNodeID.Set(id)
}

// SelectedNode returns the properties of the selected node, or nil when
// nothing is selected or the node has no metadata comment
func (e *Editor) SelectedNode() *mermaid.Node {
	n := e.selectedNode.Get()
	if n == nil {
		return nil
	}
	c := *n
	return &c
}

// SelectedEdge returns the selected edge, or nil
func (e *Editor) SelectedEdge() *EdgeRef {
	ref := e.selectedEdge.Get()
	if ref == nil {
		return nil
	}
	c := *ref
	return &c
}

// FloatingPoint returns the anchor of the node menu, or nil
func (e *Editor) FloatingPoint() *Point {
	return clonePoint(e.floatingPoint.Get())
}

// SetFloatingPoint moves the node menu anchor; nil hides it
func (e *Editor) SetFloatingPoint(p *Point) {
	e.floatingPoint.Set(clonePoint(p))
}

// IsConnecting reports whether an edge-creation gesture is active
func (e *Editor) IsConnecting() bool {
	return e.connecting.Get()
}

// PendingEdge returns the edge being created, or nil
func (e *Editor) PendingEdge() *PendingEdge {
	return e.pendingEdge.Get().clone()
}

// Phase derives the interaction state
func (e *Editor) Phase() Phase {
	switch {
	case e.connecting.Get():
		return PhaseConnecting
	case e.selectedNodeID.Get() != "":
		return PhaseNodeSelected
	default:
		return PhaseIdle
	}
}

// Snapshot copies the editor state
func (e *Editor) Snapshot() Snapshot {
	return Snapshot{
		Source:         e.Source(),
		Phase:          e.Phase(),
		SelectedNodeID: e.SelectedNodeID(),
		SelectedNode:   e.SelectedNode(),
		SelectedEdge:   e.SelectedEdge(),
		FloatingPoint:  e.FloatingPoint(),
		IsConnecting:   e.IsConnecting(),
		PendingEdge:    e.PendingEdge(),
	}
}

// nextID derives a node id from the clock, bumping it until the id is not
// already used in doc
func (e *Editor) nextID(doc *mermaid.Document) string {
	ms := e.opts.Now().UnixMilli()
	id := fmt.Sprintf("node-%d", ms)
	for doc.Has(id) {
		ms++
		id = fmt.Sprintf("node-%d", ms)
	}
	return id
}

// AddShape appends a new node with the default label and returns its id
func (e *Editor) AddShape(shape mermaid.Shape) string {
	var id string
	e.source.Update(func(src string) string {
		doc := mermaid.Parse(src)
		id = e.nextID(doc)
		doc.AddNode(mermaid.Node{ID: id, Shape: shape, Text: e.opts.DefaultLabel}, e.opts.Callback)
		return doc.String()
	})
	if debugLog != nil {
		debugLog("[Editor] Added shape", shape.Label(), "as", id)
	}
	return id
}

// DeleteNode removes every statement referencing id and clears the
// selection
func (e *Editor) DeleteNode(id string) int {
	removed := 0
	e.rt.Batch(func() {
		e.source.Update(func(src string) string {
			doc := mermaid.Parse(src)
			removed = doc.DeleteNode(id)
			return doc.String()
		})
		e.selectedNodeID.Set("")
		e.floatingPoint.Set(nil)
	})
	if debugLog != nil {
		debugLog("[Editor] Deleted node", id, "removed", removed, "statements")
	}
	return removed
}

// DeleteSelected deletes the selected node, if any
func (e *Editor) DeleteSelected() int {
	id := e.selectedNodeID.Get()
	if id == "" {
		return 0
	}
	return e.DeleteNode(id)
}

// AddEdge appends "source --> target;" and clears the pending edge
func (e *Editor) AddEdge(source, target string) {
	e.rt.Batch(func() {
		e.appendEdge(source, target)
		e.pendingEdge.Set(nil)
	})
}

func (e *Editor) appendEdge(source, target string) {
	e.source.Update(func(src string) string {
		doc := mermaid.Parse(src)
		doc.AddEdge(source, target)
		return doc.String()
	})
	if debugLog != nil {
		debugLog("[Editor] Added edge", source, "-->", target)
	}
}

// SetNodeProps rewrites a node's label, shape and colors and reselects it.
// It reports false when the node has no metadata comment.
func (e *Editor) SetNodeProps(n mermaid.Node) bool {
	if n.ID == "" {
		return false
	}
	ok := false
	e.rt.Batch(func() {
		e.source.Update(func(src string) string {
			doc := mermaid.Parse(src)
			ok = doc.SetNodeProps(n)
			return doc.String()
		})
		if ok {
			e.selectedNodeID.Set(n.ID)
		}
	})
	if !ok && debugLog != nil {
		debugLog("[Editor] No metadata for node", n.ID)
	}
	return ok
}

// StartCreateEdge begins an edge gesture from the selected node. It is a
// no-op unless a node is selected and its menu anchor is known.
func (e *Editor) StartCreateEdge() bool {
	id := e.selectedNodeID.Get()
	anchor := e.floatingPoint.Get()
	if id == "" || anchor == nil {
		return false
	}
	e.rt.Batch(func() {
		e.pendingEdge.Set(&PendingEdge{SourceID: id, SourcePoint: clonePoint(anchor)})
		e.connecting.Set(true)
		e.selectedNodeID.Set("")
		e.floatingPoint.Set(nil)
	})
	return true
}

// CancelCreateEdge abandons the edge gesture
func (e *Editor) CancelCreateEdge() {
	e.rt.Batch(func() {
		e.connecting.Set(false)
		e.pendingEdge.Set(nil)
	})
}

// HandlePointerMove tracks the pointer; while connecting it moves the
// pending edge's target point
func (e *Editor) HandlePointerMove(x, y float64) {
	e.mu.Lock()
	e.pointer = &Point{X: x, Y: y}
	e.mu.Unlock()

	if !e.connecting.Get() {
		return
	}
	pending := e.pendingEdge.Get()
	if pending == nil || pending.SourcePoint == nil {
		return
	}
	next := pending.clone()
	next.TargetPoint = &Point{X: x, Y: y}
	e.pendingEdge.Set(next)
}

// HandleNodeClick completes a pending edge at id, or selects id and anchors
// its menu below the node
func (e *Editor) HandleNodeClick(id string) {
	if e.connecting.Get() {
		if pending := e.pendingEdge.Get(); pending != nil && pending.SourceID != "" {
			e.completeEdge(pending, id)
			return
		}
	}

	anchor, ok := e.menuAnchor(id)
	e.rt.Batch(func() {
		e.selectedNodeID.Set(id)
		e.selectedEdge.Set(nil)
		if ok {
			e.floatingPoint.Set(&anchor)
		}
	})
	if debugLog != nil {
		debugLog("[Editor] Selected node", id)
	}
}

// menuAnchor finds where the node menu opens: below the rendered node, or
// at the pointer when the node is not rendered
func (e *Editor) menuAnchor(id string) (Point, bool) {
	e.mu.Lock()
	surface := e.surface
	pointer := clonePoint(e.pointer)
	e.mu.Unlock()

	if surface != nil {
		if bounds, ok := surface.NodeBounds(id); ok {
			return bounds.MenuAnchor(), true
		}
	}
	if pointer != nil {
		return *pointer, true
	}
	return Point{}, false
}

func (e *Editor) completeEdge(pending *PendingEdge, target string) {
	e.rt.Batch(func() {
		e.appendEdge(pending.SourceID, target)
		switch e.opts.ConnectMode {
		case ConnectMulti:
			e.pendingEdge.Set(&PendingEdge{
				SourceID:    pending.SourceID,
				SourcePoint: clonePoint(pending.SourcePoint),
			})
		case ConnectSticky:
			e.pendingEdge.Set(nil)
		default:
			e.pendingEdge.Set(nil)
			e.connecting.Set(false)
		}
	})
}

// HandleEdgeClick selects a rendered edge. Clicks are ignored while
// connecting.
func (e *Editor) HandleEdgeClick(ref EdgeRef) {
	if e.connecting.Get() {
		return
	}
	e.rt.Batch(func() {
		e.selectedEdge.Set(&ref)
		e.selectedNodeID.Set("")
		e.floatingPoint.Set(nil)
	})
	if debugLog != nil {
		debugLog("[Editor] Edge clicked", ref.ID)
	}
}

// DeleteSelectedEdge removes the edges matching the selected edge's
// endpoints
func (e *Editor) DeleteSelectedEdge() int {
	ref := e.selectedEdge.Get()
	if ref == nil {
		return 0
	}
	removed := 0
	e.rt.Batch(func() {
		e.source.Update(func(src string) string {
			doc := mermaid.Parse(src)
			removed = doc.DeleteEdge(ref.From, ref.To)
			return doc.String()
		})
		e.selectedEdge.Set(nil)
	})
	return removed
}

// ClearSelection deselects any node or edge and hides the menu
func (e *Editor) ClearSelection() {
	e.rt.Batch(func() {
		e.selectedNodeID.Set("")
		e.selectedEdge.Set(nil)
		e.floatingPoint.Set(nil)
	})
}
