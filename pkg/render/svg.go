package render

import (
	"fmt"
	"math"
	"strconv"

	"github.com/recera/flowkit/pkg/flowchart"
	"github.com/recera/flowkit/pkg/mermaid"
	"github.com/recera/flowkit/pkg/vdom"
)

const stylesheet = `.node rect,.node circle,.node polygon{fill:#ECECFF;stroke:#9370DB;stroke-width:1px}` +
	`.node text{font-family:sans-serif;font-size:14px;text-anchor:middle;dominant-baseline:central}` +
	`.node.clickable{cursor:pointer}` +
	`.flowchart-link{stroke:#333;stroke-width:2px;fill:none}` +
	`.edgeLabel text{font-family:sans-serif;font-size:12px;text-anchor:middle}`

// num formats a coordinate with at most two decimals
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func buildSVG(d *Diagram, nodes []mermaid.Node) *vdom.VNode {
	edgePaths := vdom.NewElement("g", vdom.Props{"class": "edgePaths"})
	edgeLabels := vdom.NewElement("g", vdom.Props{"class": "edgeLabels"})
	for _, e := range d.Edges {
		edgePaths.AppendChild(vdom.NewElement("path", vdom.Props{
			"id":         e.ID,
			"class":      "flowchart-link",
			"d":          edgeGeometry(d, e),
			"data-from":  e.From,
			"data-to":    e.To,
			"marker-end": "url(#arrowhead)",
		}))
		if e.Label != "" {
			mid := flowchart.Point{X: (e.Start.X + e.End.X) / 2, Y: (e.Start.Y + e.End.Y) / 2}
			edgeLabels.AppendChild(vdom.NewElement("g", vdom.Props{"class": "edgeLabel", "data-id": e.ID},
				vdom.NewElement("text", vdom.Props{"x": num(mid.X), "y": num(mid.Y)}, vdom.NewText(e.Label)),
			))
		}
	}

	group := vdom.NewElement("g", vdom.Props{"class": "nodes"})
	for i, box := range d.Nodes {
		group.AppendChild(nodeElement(box, nodes[i]))
	}

	return vdom.NewElement("svg", vdom.Props{
		"xmlns":          "http://www.w3.org/2000/svg",
		"class":          "flowchart",
		"width":          num(d.Width),
		"height":         num(d.Height),
		"viewBox":        fmt.Sprintf("0 0 %s %s", num(d.Width), num(d.Height)),
		"data-direction": d.Direction,
	},
		vdom.NewElement("style", nil, vdom.NewText(stylesheet)),
		vdom.NewElement("defs", nil,
			vdom.NewElement("marker", vdom.Props{
				"id":           "arrowhead",
				"viewBox":      "0 0 10 10",
				"refX":         "9",
				"refY":         "5",
				"markerWidth":  "8",
				"markerHeight": "8",
				"orient":       "auto",
			}, vdom.NewElement("path", vdom.Props{"d": "M0,0 L10,5 L0,10 z"})),
		),
		vdom.NewElement("g", vdom.Props{"class": "root"}, edgePaths, edgeLabels, group),
	)
}

func edgeGeometry(d *Diagram, e EdgePath) string {
	if e.From != e.To {
		return fmt.Sprintf("M%s,%s L%s,%s", num(e.Start.X), num(e.Start.Y), num(e.End.X), num(e.End.Y))
	}
	// Self loop off the right side of the node
	box, _ := d.Node(e.From)
	b := box.Bounds
	x := b.X + b.Width
	cy := b.Y + b.Height/2
	return fmt.Sprintf("M%s,%s C%s,%s %s,%s %s,%s",
		num(x), num(cy-8),
		num(x+30), num(cy-30),
		num(x+30), num(cy+30),
		num(x), num(cy+8))
}

func nodeElement(box NodeBox, n mermaid.Node) *vdom.VNode {
	w, h := box.Bounds.Width, box.Bounds.Height
	class := "node default"
	if box.Callback != "" {
		class += " clickable"
	}

	var shape *vdom.VNode
	switch box.Shape {
	case mermaid.ShapeCircle:
		shape = vdom.NewElement("circle", vdom.Props{"cx": num(w / 2), "cy": num(h / 2), "r": num(w / 2)})
	case mermaid.ShapeDiamond:
		shape = vdom.NewElement("polygon", vdom.Props{
			"points": fmt.Sprintf("%s,0 %s,%s %s,%s 0,%s", num(w/2), num(w), num(h/2), num(w/2), num(h), num(h/2)),
		})
	default:
		shape = vdom.NewElement("rect", vdom.Props{"x": "0", "y": "0", "width": num(w), "height": num(h), "rx": "4"})
	}
	if n.BgColor != "" {
		shape.SetAttr("style", "fill:"+n.BgColor)
	}

	label := vdom.NewElement("text", vdom.Props{"x": num(w / 2), "y": num(h / 2)}, vdom.NewText(box.Label))
	if n.Color != "" {
		label.SetAttr("style", "fill:"+n.Color)
	}

	return vdom.NewElement("g", vdom.Props{
		"id":        box.ElementID,
		"class":     class,
		"data-id":   box.ID,
		"transform": fmt.Sprintf("translate(%s,%s)", num(box.Bounds.X), num(box.Bounds.Y)),
	}, shape, label)
}
