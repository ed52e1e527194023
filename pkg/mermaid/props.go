package mermaid

import (
	"fmt"
	"strings"
)

// NodePropsStr returns the encoded content ("<id><open><label><close>") of
// the first metadata comment in src whose id equals nodeID.
func NodePropsStr(src, nodeID string) (string, bool) {
	meta, ok := Parse(src).Metadata(nodeID)
	if !ok {
		return "", false
	}
	return meta.Shape.Encode(meta.ID, meta.Text), true
}

// NodeContent strips the "<id><open>" prefix and "<close>" suffix from
// nodeStr and decodes the entity encoded separators, yielding the label.
func NodeContent(id, nodeStr string, shape Shape) string {
	content := strings.TrimPrefix(nodeStr, id+shape.Open())
	return labelUnescaper.Replace(strings.TrimSuffix(content, shape.Close()))
}

// Problem classifies a broken node invariant
type Problem int

const (
	// MissingMetadata: a shaped declaration has no metadata comment
	MissingMetadata Problem = iota
	// MissingClick: a declared node has no click binding, so it cannot be selected
	MissingClick
	// OrphanMetadata: a metadata comment has no declaration, so it is never drawn
	OrphanMetadata
	// StaleMetadata: metadata and declaration disagree on shape or label
	StaleMetadata
)

// String returns the problem name for display
func (p Problem) String() string {
	switch p {
	case MissingMetadata:
		return "missing metadata"
	case MissingClick:
		return "missing click binding"
	case OrphanMetadata:
		return "orphan metadata"
	case StaleMetadata:
		return "stale metadata"
	default:
		return "unknown"
	}
}

// Issue is one broken invariant for a node
type Issue struct {
	ID      string
	Problem Problem
	Detail  string
}

func (i Issue) String() string {
	if i.Detail == "" {
		return fmt.Sprintf("%s: %s", i.ID, i.Problem)
	}
	return fmt.Sprintf("%s: %s (%s)", i.ID, i.Problem, i.Detail)
}

// Validate checks that every shaped declaration has a matching metadata
// comment and a click binding. Issues are reported in source order.
func (d *Document) Validate() []Issue {
	var issues []Issue
	checked := make(map[string]bool)
	for _, st := range d.stmts {
		if st.Kind != KindNode || st.Shape == ShapeNone || checked[st.ID] {
			continue
		}
		checked[st.ID] = true
		meta, ok := d.Metadata(st.ID)
		switch {
		case !ok:
			issues = append(issues, Issue{ID: st.ID, Problem: MissingMetadata})
		case meta.Shape != st.Shape || meta.Text != st.Text:
			issues = append(issues, Issue{
				ID:      st.ID,
				Problem: StaleMetadata,
				Detail:  fmt.Sprintf("%s vs %s", meta.Shape.Encode(meta.ID, meta.Text), st.body),
			})
		}
		if _, ok := d.ClickCallback(st.ID); !ok {
			issues = append(issues, Issue{ID: st.ID, Problem: MissingClick})
		}
	}
	for _, st := range d.stmts {
		if st.Kind != KindMetadata || checked[st.ID] {
			continue
		}
		checked[st.ID] = true
		if !d.declared(st.ID) {
			issues = append(issues, Issue{ID: st.ID, Problem: OrphanMetadata})
		}
	}
	return issues
}

func (d *Document) declared(id string) bool {
	for _, i := range d.index[id] {
		if d.stmts[i].Kind == KindNode {
			return true
		}
	}
	return false
}
