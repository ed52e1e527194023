package html

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/recera/flowkit/pkg/vdom"
)

// voidElements are HTML elements that cannot have children
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// svgShapes are SVG elements written self-closing when they have no
// children
var svgShapes = map[string]bool{
	"circle":   true,
	"ellipse":  true,
	"line":     true,
	"path":     true,
	"polygon":  true,
	"polyline": true,
	"rect":     true,
	"stop":     true,
	"use":      true,
}

// booleanAttributes are HTML attributes that are boolean flags
var booleanAttributes = map[string]bool{
	"checked":   true,
	"disabled":  true,
	"readonly":  true,
	"required":  true,
	"selected":  true,
	"defer":     true,
	"async":     true,
	"multiple":  true,
	"autofocus": true,
}

// Applier serializes VNode trees. Attributes are written in sorted order
// so equal trees always produce equal bytes.
type Applier struct {
	w   io.Writer
	err error
}

// NewApplier creates a new applier writing to w
func NewApplier(w io.Writer) *Applier {
	return &Applier{w: w}
}

// Apply renders a VNode tree
func (a *Applier) Apply(node *vdom.VNode) error {
	if node == nil {
		return nil
	}
	a.renderNode(node)
	return a.err
}

// write helper that tracks errors
func (a *Applier) write(s string) {
	if a.err != nil {
		return
	}
	_, a.err = io.WriteString(a.w, s)
}

// renderNode renders a single VNode
func (a *Applier) renderNode(node *vdom.VNode) {
	if node == nil || a.err != nil {
		return
	}

	switch node.Kind {
	case vdom.KindText:
		a.write(html.EscapeString(node.Text))

	case vdom.KindElement:
		a.renderElement(node)

	case vdom.KindFragment:
		for _, kid := range node.Kids {
			a.renderNode(kid)
		}
	}
}

// renderElement renders an element node
func (a *Applier) renderElement(node *vdom.VNode) {
	a.write("<")
	a.write(node.Tag)
	a.renderAttrs(node.Props)

	if len(node.Kids) == 0 && svgShapes[node.Tag] {
		a.write("/>")
		return
	}
	a.write(">")

	if voidElements[node.Tag] {
		return
	}

	// Script and style content is written unescaped
	isRawTextElement := node.Tag == "script" || node.Tag == "style"
	for _, kid := range node.Kids {
		if isRawTextElement {
			a.renderRawNode(kid)
		} else {
			a.renderNode(kid)
		}
	}

	a.write("</")
	a.write(node.Tag)
	a.write(">")
}

func (a *Applier) renderAttrs(props vdom.Props) {
	if len(props) == 0 {
		return
	}
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := props[key]
		// Skip handlers and special props
		if value == nil || key == "key" || key == "ref" || (len(key) > 2 && key[0] == 'o' && key[1] == 'n') {
			continue
		}

		if booleanAttributes[key] {
			if v, ok := value.(bool); ok && v {
				a.write(" ")
				a.write(key)
			}
			continue
		}

		valueStr := formatValue(value)

		// Security: prevent javascript: URLs in href/src attributes
		if (key == "href" || key == "src" || key == "xlink:href") && strings.HasPrefix(strings.ToLower(valueStr), "javascript:") {
			valueStr = "#"
		}

		a.write(" ")
		a.write(key)
		a.write(`="`)
		a.write(html.EscapeString(valueStr))
		a.write(`"`)
	}
}

// formatValue writes floats without trailing zeros
func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// renderRawNode renders a node without escaping (for script/style content)
func (a *Applier) renderRawNode(node *vdom.VNode) {
	if node == nil || a.err != nil {
		return
	}

	switch node.Kind {
	case vdom.KindText:
		a.write(node.Text)

	case vdom.KindElement:
		a.renderElement(node)

	case vdom.KindFragment:
		for _, kid := range node.Kids {
			a.renderRawNode(kid)
		}
	}
}

// RenderToString is a convenience function to render a VNode to a string
func RenderToString(node *vdom.VNode) (string, error) {
	var buf strings.Builder
	if err := NewApplier(&buf).Apply(node); err != nil {
		return "", err
	}
	return buf.String(), nil
}
