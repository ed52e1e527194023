package flowchart

// Point is a screen-space coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a rendered bounding box
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MenuAnchor returns the bottom-left corner, where the node's contextual
// menu opens
func (r Rect) MenuAnchor() Point {
	return Point{X: r.X, Y: r.Y + r.Height}
}

// Center returns the center point of the rectangle
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains checks if a point is inside the rectangle
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

func clonePoint(p *Point) *Point {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
