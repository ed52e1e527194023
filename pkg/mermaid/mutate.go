package mermaid

// AddShape appends a new node with the default label and callback and
// returns its encoded declaration.
func (d *Document) AddShape(id string, shape Shape) string {
	return d.AddNode(Node{ID: id, Shape: shape, Text: DefaultLabel}, DefaultCallback)
}

// AddNode appends the metadata comment, the bare declaration and the click
// binding for n, in that order, so the node is both visible and selectable.
// It returns the encoded declaration.
func (d *Document) AddNode(n Node, callback string) string {
	shape := n.Shape
	if !shape.Valid() {
		shape = ShapeRect
	}
	if callback == "" {
		callback = DefaultCallback
	}
	content := shape.Encode(n.ID, n.Text)
	d.appendText("%%" + content + "%%;\n" + content + ";\nclick " + n.ID + " " + callback + ";\n")
	if n.BgColor != "" || n.Color != "" {
		d.upsertStyle(n.ID, n.BgColor, n.Color)
	}
	return content
}

// AddEdge appends "<source> --> <target>;\n". Neither id is validated.
func (d *Document) AddEdge(source, target string) {
	d.appendText(source + " --> " + target + ";\n")
}

// DeleteNode removes every statement that references id as an exact token
// and returns how many were removed.
func (d *Document) DeleteNode(id string) int {
	return d.remove(func(st *Statement) bool { return st.references(id) })
}

// DeleteEdge removes every edge from -> to and returns how many were removed
func (d *Document) DeleteEdge(from, to string) int {
	return d.remove(func(st *Statement) bool {
		return st.Kind == KindEdge && st.From == from && st.To == to
	})
}

// SetNodeProps rewrites the metadata comment and every shaped declaration of
// n.ID with n's shape and text. Colors, when set, are written to the node's
// style statement. It reports false, changing nothing, when the node has no
// metadata comment.
func (d *Document) SetNodeProps(n Node) bool {
	if n.ID == "" {
		return false
	}
	meta, ok := d.Metadata(n.ID)
	if !ok {
		return false
	}
	shape := n.Shape
	if !shape.Valid() {
		shape = meta.Shape
	}
	content := shape.Encode(n.ID, n.Text)
	for _, i := range d.index[n.ID] {
		st := d.stmts[i]
		switch {
		case st.Kind == KindMetadata && st.ID == n.ID:
			st.setBody("%%" + content + "%%")
		case st.Kind == KindNode && st.ID == n.ID && st.Shape != ShapeNone:
			st.setBody(content)
		}
	}
	if n.BgColor != "" || n.Color != "" {
		d.upsertStyle(n.ID, n.BgColor, n.Color)
	}
	d.reindex()
	return true
}

func (d *Document) upsertStyle(id, fill, color string) {
	if st := d.style(id); st != nil {
		props := mergeStyle(append([]StyleProp(nil), st.Props...), "fill", fill)
		props = mergeStyle(props, "color", color)
		st.setBody(formatStyle(id, props))
		d.reindex()
		return
	}
	props := mergeStyle(nil, "fill", fill)
	props = mergeStyle(props, "color", color)
	d.appendText(formatStyle(id, props) + ";\n")
}

// appendText parses text and appends its statements. A final statement that
// lacks a terminator gets a newline first so the two never fuse.
func (d *Document) appendText(text string) {
	if n := len(d.stmts); n > 0 && !d.stmts[n-1].terminated() {
		d.stmts[n-1].suffix += "\n"
	}
	d.stmts = append(d.stmts, Parse(text).stmts...)
	d.reindex()
}

func (d *Document) remove(drop func(*Statement) bool) int {
	kept := d.stmts[:0]
	removed := 0
	for _, st := range d.stmts {
		if drop(st) {
			removed++
			continue
		}
		kept = append(kept, st)
	}
	for i := len(kept); i < len(d.stmts); i++ {
		d.stmts[i] = nil
	}
	d.stmts = kept
	if removed > 0 {
		d.reindex()
	}
	return removed
}
