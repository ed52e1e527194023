// Package mermaid parses, queries and rewrites the flowchart subset of the
// Mermaid diagram language used by the flow-chart editor.
//
// A source is a sequence of statements separated by ";" or newlines. Every
// visible node is expected to appear three times: as a metadata comment
// (%%A[Label]%%), as a bare declaration (A[Label]) and as a click binding
// (click A callback). Mutations keep these in sync.
package mermaid

import "strings"

const (
	// DefaultLabel is the label given to newly added shapes
	DefaultLabel = "Text"
	// DefaultCallback is the click callback name bound to new shapes
	DefaultCallback = "callback"
)

// Node is the read/write projection of a node's metadata
type Node struct {
	ID      string `json:"id" yaml:"id"`
	Shape   Shape  `json:"shape" yaml:"shape"`
	Text    string `json:"text" yaml:"text"`
	BgColor string `json:"bgColor,omitempty" yaml:"bgColor,omitempty"`
	Color   string `json:"color,omitempty" yaml:"color,omitempty"`
}

// Edge is a directed connection between two node ids
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// Document is a parsed diagram source. The zero value is an empty document.
type Document struct {
	stmts []*Statement
	index map[string][]int // id -> statement positions referencing it
}

// Parse splits src into statements. Parsing never fails: anything that is
// not understood is kept as a raw statement and written back unchanged.
func Parse(src string) *Document {
	d := &Document{}
	start := 0
	for i := 0; i < len(src); i++ {
		if src[i] == ';' || src[i] == '\n' {
			d.stmts = append(d.stmts, parsePiece(src[start:i+1]))
			start = i + 1
		}
	}
	if start < len(src) {
		d.stmts = append(d.stmts, parsePiece(src[start:]))
	}
	d.reindex()
	return d
}

// String serializes the document. For an unmodified document the result is
// byte-identical to the parsed source.
func (d *Document) String() string {
	var b strings.Builder
	for _, st := range d.stmts {
		b.WriteString(st.Raw())
	}
	return b.String()
}

// Format serializes the document canonically: one terminated statement per
// line, blanks dropped.
func (d *Document) Format() string {
	var b strings.Builder
	for _, st := range d.stmts {
		if st.Kind == KindBlank {
			continue
		}
		b.WriteString(st.body)
		b.WriteString(";\n")
	}
	return b.String()
}

// Statements returns a copy of the parsed statements in source order
func (d *Document) Statements() []Statement {
	out := make([]Statement, 0, len(d.stmts))
	for _, st := range d.stmts {
		out = append(out, *st)
	}
	return out
}

// Len returns the number of statements including blanks
func (d *Document) Len() int {
	return len(d.stmts)
}

// Direction returns the header direction ("LR", "TD", ...) or "" when the
// document has no header or the header names none.
func (d *Document) Direction() string {
	if h, ok := d.Header(); ok {
		return h.Direction
	}
	return ""
}

// Header returns the first "graph"/"flowchart" statement
func (d *Document) Header() (Statement, bool) {
	for _, st := range d.stmts {
		if st.Kind == KindHeader {
			return *st, true
		}
	}
	return Statement{}, false
}

// Has reports whether any statement references id
func (d *Document) Has(id string) bool {
	return len(d.index[id]) > 0
}

// Metadata returns the first metadata comment whose id equals id
func (d *Document) Metadata(id string) (Statement, bool) {
	for _, i := range d.index[id] {
		if st := d.stmts[i]; st.Kind == KindMetadata && st.ID == id {
			return *st, true
		}
	}
	return Statement{}, false
}

// Node derives the node projection for id from its metadata comment and
// style statement. Nodes without metadata are not editable and return false.
func (d *Document) Node(id string) (*Node, bool) {
	meta, ok := d.Metadata(id)
	if !ok {
		return nil, false
	}
	n := &Node{ID: id, Shape: meta.Shape, Text: meta.Text}
	if style := d.style(id); style != nil {
		n.BgColor = styleValue(style.Props, "fill")
		n.Color = styleValue(style.Props, "color")
	}
	return n, true
}

// Nodes returns the projection of every node with metadata, in source order
func (d *Document) Nodes() []Node {
	var nodes []Node
	seen := make(map[string]bool)
	for _, st := range d.stmts {
		if st.Kind != KindMetadata || seen[st.ID] {
			continue
		}
		seen[st.ID] = true
		if n, ok := d.Node(st.ID); ok {
			nodes = append(nodes, *n)
		}
	}
	return nodes
}

// Declared returns every node that would be drawn: shaped and bare
// declarations plus edge endpoints, in first-appearance order. A later shaped
// declaration overrides an earlier bare one.
func (d *Document) Declared() []Node {
	var order []string
	nodes := make(map[string]*Node)
	add := func(id string) *Node {
		if n, ok := nodes[id]; ok {
			return n
		}
		n := &Node{ID: id, Shape: ShapeRect, Text: id}
		nodes[id] = n
		order = append(order, id)
		return n
	}
	for _, st := range d.stmts {
		switch st.Kind {
		case KindNode:
			n := add(st.ID)
			if st.Shape != ShapeNone {
				n.Shape, n.Text = st.Shape, st.Text
			}
		case KindEdge:
			add(st.From)
			add(st.To)
		}
	}
	out := make([]Node, 0, len(order))
	for _, id := range order {
		n := nodes[id]
		if style := d.style(id); style != nil {
			n.BgColor = styleValue(style.Props, "fill")
			n.Color = styleValue(style.Props, "color")
		}
		out = append(out, *n)
	}
	return out
}

// Edges returns every edge in source order, duplicates included
func (d *Document) Edges() []Edge {
	var edges []Edge
	for _, st := range d.stmts {
		if st.Kind == KindEdge {
			edges = append(edges, Edge{From: st.From, To: st.To, Label: st.Label})
		}
	}
	return edges
}

// ClickCallback returns the callback name bound to id
func (d *Document) ClickCallback(id string) (string, bool) {
	for _, i := range d.index[id] {
		if st := d.stmts[i]; st.Kind == KindClick && st.ID == id {
			return st.Callback, true
		}
	}
	return "", false
}

func (d *Document) style(id string) *Statement {
	for _, i := range d.index[id] {
		if st := d.stmts[i]; st.Kind == KindStyle && st.ID == id {
			return st
		}
	}
	return nil
}

// reindex rebuilds the id index after the statement list changed
func (d *Document) reindex() {
	d.index = make(map[string][]int)
	for i, st := range d.stmts {
		for _, id := range st.ids() {
			d.index[id] = append(d.index[id], i)
		}
	}
}

// ids returns the node ids a statement references
func (s *Statement) ids() []string {
	switch s.Kind {
	case KindNode, KindMetadata, KindClick, KindStyle:
		return []string{s.ID}
	case KindEdge:
		if s.From == s.To {
			return []string{s.From}
		}
		return []string{s.From, s.To}
	}
	return nil
}
