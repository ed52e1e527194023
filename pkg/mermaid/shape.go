package mermaid

import (
	"fmt"
	"strings"
)

// Shape is the visual shape of a flowchart node
type Shape string

const (
	// ShapeNone marks a bare node reference without brackets
	ShapeNone    Shape = ""
	ShapeRect    Shape = "rect"
	ShapeDiamond Shape = "diamond"
	ShapeCircle  Shape = "circle"
)

// syntax is the bracket pair enclosing a node label
type syntax struct {
	open  string
	close string
}

var shapeSyntax = map[Shape]syntax{
	ShapeRect:    {open: "[", close: "]"},
	ShapeCircle:  {open: "((", close: "))"},
	ShapeDiamond: {open: "{", close: "}"},
}

// decodeOrder is the order in which bracket pairs are tried when decoding.
// Circle comes first so "((" is never read as a stray "(" label.
var decodeOrder = []Shape{ShapeCircle, ShapeRect, ShapeDiamond}

// Shapes returns every supported shape in menu order
func Shapes() []Shape {
	return []Shape{ShapeRect, ShapeCircle, ShapeDiamond}
}

// ParseShape converts a shape name into a Shape
func ParseShape(name string) (Shape, error) {
	s := Shape(name)
	if !s.Valid() {
		return ShapeNone, fmt.Errorf("unknown shape %q (want rect, circle or diamond)", name)
	}
	return s, nil
}

// Valid reports whether the shape has a bracket syntax
func (s Shape) Valid() bool {
	_, ok := shapeSyntax[s]
	return ok
}

// Open returns the opening bracket token for the shape
func (s Shape) Open() string {
	return shapeSyntax[s].open
}

// Close returns the closing bracket token for the shape
func (s Shape) Close() string {
	return shapeSyntax[s].close
}

// Statement separators inside labels are written as Mermaid entity codes
var (
	labelEscaper   = strings.NewReplacer(";", "#59;", "\n", "#10;", "\r", "#13;")
	labelUnescaper = strings.NewReplacer("#59;", ";", "#10;", "\n", "#13;", "\r")
)

// Encode builds the bracketed declaration "<id><open><text><close>". Label
// characters that would end the statement are entity encoded.
func (s Shape) Encode(id, text string) string {
	if !s.Valid() {
		return id
	}
	return id + s.Open() + labelEscaper.Replace(text) + s.Close()
}

// Next cycles to the following shape in menu order
func (s Shape) Next() Shape {
	all := Shapes()
	for i, candidate := range all {
		if candidate == s {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}

// Label returns the human readable shape name
func (s Shape) Label() string {
	switch s {
	case ShapeRect:
		return "Rectangle"
	case ShapeCircle:
		return "Circle"
	case ShapeDiamond:
		return "Diamond"
	default:
		return "None"
	}
}
