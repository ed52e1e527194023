// Package vdom is the in-memory node tree diagrams are rendered into.
//
// Unlike a browser DOM the tree is plain data: renderers build it, the
// render bridge decorates it with hit overlays, and pkg/renderer/html
// serializes it.
package vdom

import (
	"fmt"
	"strings"
)

// VKind represents the type of virtual node
type VKind uint8

const (
	// KindElement represents an element node
	KindElement VKind = iota
	// KindText represents a text node
	KindText
	// KindFragment represents a fragment (multiple children without parent)
	KindFragment
)

// Props represents the attributes of a VNode
type Props map[string]any

// VNode represents a node of the tree. Children are held by pointer so
// a subtree can be decorated in place.
type VNode struct {
	// Kind determines the type of this node
	Kind VKind

	// Tag is the element tag name (e.g., "g", "path")
	// Only used when Kind == KindElement
	Tag string

	// Props contains all attributes for this node
	Props Props

	// Kids contains child nodes
	Kids []*VNode

	// Text content (only used when Kind == KindText)
	Text string
}

// NewElement creates a new element VNode
func NewElement(tag string, props Props, children ...*VNode) *VNode {
	if props == nil {
		props = Props{}
	}
	n := &VNode{Kind: KindElement, Tag: tag, Props: props}
	n.AppendChild(children...)
	return n
}

// NewText creates a new text VNode
func NewText(text string) *VNode {
	return &VNode{Kind: KindText, Text: text}
}

// NewFragment creates a new fragment VNode
func NewFragment(children ...*VNode) *VNode {
	n := &VNode{Kind: KindFragment}
	n.AppendChild(children...)
	return n
}

// IsElement returns true if this is an element node
func (v *VNode) IsElement() bool {
	return v.Kind == KindElement
}

// IsText returns true if this is a text node
func (v *VNode) IsText() bool {
	return v.Kind == KindText
}

// IsFragment returns true if this is a fragment node
func (v *VNode) IsFragment() bool {
	return v.Kind == KindFragment
}

// Attr returns an attribute formatted as a string, or "" when unset
func (v *VNode) Attr(key string) string {
	if v.Props == nil {
		return ""
	}
	switch val := v.Props[key].(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// SetAttr sets an attribute, allocating Props when needed
func (v *VNode) SetAttr(key string, value any) {
	if v.Props == nil {
		v.Props = Props{}
	}
	v.Props[key] = value
}

// ID returns the id attribute
func (v *VNode) ID() string {
	return v.Attr("id")
}

// HasClass reports whether the class attribute lists cls
func (v *VNode) HasClass(cls string) bool {
	for _, c := range strings.Fields(v.Attr("class")) {
		if c == cls {
			return true
		}
	}
	return false
}

// AppendChild adds children at the end, skipping nils
func (v *VNode) AppendChild(children ...*VNode) {
	for _, child := range children {
		if child != nil {
			v.Kids = append(v.Kids, child)
		}
	}
}

// Clone returns a deep copy of the subtree
func (v *VNode) Clone() *VNode {
	if v == nil {
		return nil
	}
	c := &VNode{Kind: v.Kind, Tag: v.Tag, Text: v.Text}
	if v.Props != nil {
		c.Props = make(Props, len(v.Props))
		for k, val := range v.Props {
			c.Props[k] = val
		}
	}
	if len(v.Kids) > 0 {
		c.Kids = make([]*VNode, len(v.Kids))
		for i, kid := range v.Kids {
			c.Kids[i] = kid.Clone()
		}
	}
	return c
}

// Walk visits the subtree depth-first, parents before children. The root
// is visited with a nil parent. Returning false skips the node's children.
func (v *VNode) Walk(fn func(n, parent *VNode) bool) {
	v.walk(nil, fn)
}

func (v *VNode) walk(parent *VNode, fn func(n, parent *VNode) bool) {
	if v == nil || !fn(v, parent) {
		return
	}
	for _, kid := range v.Kids {
		kid.walk(v, fn)
	}
}

// FindAll returns every node in the subtree that matches, in document order
func (v *VNode) FindAll(match func(*VNode) bool) []*VNode {
	var found []*VNode
	v.Walk(func(n, _ *VNode) bool {
		if match(n) {
			found = append(found, n)
		}
		return true
	})
	return found
}

// Find returns the first node in the subtree that matches, or nil
func (v *VNode) Find(match func(*VNode) bool) *VNode {
	var found *VNode
	v.Walk(func(n, _ *VNode) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindByID returns the element whose id attribute equals id, or nil
func (v *VNode) FindByID(id string) *VNode {
	return v.Find(func(n *VNode) bool { return n.IsElement() && n.ID() == id })
}

// RemoveAll detaches every descendant that matches and returns how many
// were removed. The root itself is never removed.
func (v *VNode) RemoveAll(match func(*VNode) bool) int {
	removed := 0
	v.Walk(func(n, _ *VNode) bool {
		kept := n.Kids[:0]
		for _, kid := range n.Kids {
			if match(kid) {
				removed++
				continue
			}
			kept = append(kept, kid)
		}
		for i := len(kept); i < len(n.Kids); i++ {
			n.Kids[i] = nil
		}
		n.Kids = kept
		return true
	})
	return removed
}

// Element matches elements by tag and class. An empty tag or class matches
// any.
func Element(tag, class string) func(*VNode) bool {
	return func(n *VNode) bool {
		if !n.IsElement() {
			return false
		}
		if tag != "" && n.Tag != tag {
			return false
		}
		return class == "" || n.HasClass(class)
	}
}
