package render

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/recera/flowkit/internal/cache"
	"github.com/recera/flowkit/pkg/flowchart"
	"github.com/recera/flowkit/pkg/mermaid"
)

// LayoutOptions configures the layered layout
type LayoutOptions struct {
	NodeHeight   float64
	MinNodeWidth float64
	CharWidth    float64
	Padding      float64
	RankGap      float64
	NodeGap      float64
	Margin       float64

	// Strict rejects sources containing statements outside the flowchart
	// subset
	Strict bool

	// Cache stores rendered diagrams by source hash. Nil creates a private
	// cache.
	Cache *cache.Cache[*Diagram]
}

// DefaultLayoutOptions returns the default layout metrics
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		NodeHeight:   40,
		MinNodeWidth: 80,
		CharWidth:    8,
		Padding:      16,
		RankGap:      60,
		NodeGap:      30,
		Margin:       20,
	}
}

func (o LayoutOptions) withDefaults() LayoutOptions {
	def := DefaultLayoutOptions()
	if o.NodeHeight <= 0 {
		o.NodeHeight = def.NodeHeight
	}
	if o.MinNodeWidth <= 0 {
		o.MinNodeWidth = def.MinNodeWidth
	}
	if o.CharWidth <= 0 {
		o.CharWidth = def.CharWidth
	}
	if o.Padding <= 0 {
		o.Padding = def.Padding
	}
	if o.RankGap <= 0 {
		o.RankGap = def.RankGap
	}
	if o.NodeGap <= 0 {
		o.NodeGap = def.NodeGap
	}
	if o.Margin <= 0 {
		o.Margin = def.Margin
	}
	return o
}

// SyntaxError reports statements a strict renderer does not understand
type SyntaxError struct {
	Statements []string
}

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("unrecognized statement %q", e.Statements[0])
	if n := len(e.Statements) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}

// LayoutRenderer is the built-in renderer. Nodes are ranked by longest path
// from the roots and laid out rank by rank along the header direction.
type LayoutRenderer struct {
	opts    LayoutOptions
	cache   *cache.Cache[*Diagram]
	renders atomic.Int64
}

// NewLayoutRenderer creates a renderer; zero metrics take their defaults
func NewLayoutRenderer(opts LayoutOptions) *LayoutRenderer {
	opts = opts.withDefaults()
	c := opts.Cache
	if c == nil {
		c = cache.New(cache.DefaultConfig[*Diagram]())
	}
	return &LayoutRenderer{opts: opts, cache: c}
}

// Render lays out source. Results are cached by source hash unless
// opts.Invalidate is set; callers always receive their own copy.
func (r *LayoutRenderer) Render(ctx context.Context, source string, opts Options) (*Diagram, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cache.Key(source)
	if !opts.Invalidate {
		if d, ok := r.cache.Get(key); ok {
			return d.Clone(), nil
		}
	}

	doc := mermaid.Parse(source)
	if r.opts.Strict {
		if err := checkSyntax(doc); err != nil {
			return nil, err
		}
	}

	d := r.layout(doc)
	r.renders.Add(1)
	r.cache.Put(key, d)
	if debugLog != nil {
		debugLog("[Render] Laid out", len(d.Nodes), "nodes and", len(d.Edges), "edges")
	}
	return d.Clone(), nil
}

// Renders returns how many layouts were computed, cache hits excluded
func (r *LayoutRenderer) Renders() int64 {
	return r.renders.Load()
}

func checkSyntax(doc *mermaid.Document) error {
	var bad []string
	for _, st := range doc.Statements() {
		if st.Kind == mermaid.KindRaw {
			bad = append(bad, strings.TrimSpace(st.Body()))
		}
	}
	if len(bad) > 0 {
		return &SyntaxError{Statements: bad}
	}
	return nil
}

// normalizeDirection maps header directions onto LR, RL, TD and BT
func normalizeDirection(dir string) string {
	switch strings.ToUpper(dir) {
	case "LR":
		return "LR"
	case "RL":
		return "RL"
	case "BT":
		return "BT"
	default:
		return "TD"
	}
}

// assignRanks gives every node the length of the longest edge path
// reaching it. Ranks are capped at n-1 so cycles terminate.
func assignRanks(n int, edges []mermaid.Edge, index map[string]int) []int {
	rank := make([]int, n)
	for pass := 0; pass < n; pass++ {
		changed := false
		for _, e := range edges {
			from, to := index[e.From], index[e.To]
			if from == to {
				continue
			}
			if next := rank[from] + 1; rank[to] < next && next < n {
				rank[to] = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return rank
}

func (r *LayoutRenderer) nodeSize(n mermaid.Node) (w, h float64) {
	w = float64(len([]rune(n.Text)))*r.opts.CharWidth + 2*r.opts.Padding
	if w < r.opts.MinNodeWidth {
		w = r.opts.MinNodeWidth
	}
	h = r.opts.NodeHeight
	switch n.Shape {
	case mermaid.ShapeCircle:
		d := math.Max(w, h)
		return d, d
	case mermaid.ShapeDiamond:
		return w + h/2, h * 1.5
	}
	return w, h
}

func (r *LayoutRenderer) layout(doc *mermaid.Document) *Diagram {
	nodes := doc.Declared()
	edges := doc.Edges()
	dir := normalizeDirection(doc.Direction())
	horizontal := dir == "LR" || dir == "RL"
	reversed := dir == "RL" || dir == "BT"

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}
	ranks := assignRanks(len(nodes), edges, index)

	maxRank := 0
	for _, rk := range ranks {
		if rk > maxRank {
			maxRank = rk
		}
	}

	type size struct{ main, cross float64 }
	sizes := make([]size, len(nodes))
	rankMain := make([]float64, maxRank+1)
	rankCross := make([]float64, maxRank+1)
	rankCount := make([]int, maxRank+1)
	for i, n := range nodes {
		w, h := r.nodeSize(n)
		s := size{main: h, cross: w}
		if horizontal {
			s = size{main: w, cross: h}
		}
		sizes[i] = s
		rk := ranks[i]
		rankMain[rk] = math.Max(rankMain[rk], s.main)
		if rankCount[rk] > 0 {
			rankCross[rk] += r.opts.NodeGap
		}
		rankCross[rk] += s.cross
		rankCount[rk]++
	}

	crossExtent := 0.0
	for _, c := range rankCross {
		crossExtent = math.Max(crossExtent, c)
	}
	mainPos := make([]float64, maxRank+1)
	totalMain := r.opts.Margin
	for rk := range rankMain {
		mainPos[rk] = totalMain
		totalMain += rankMain[rk]
		if rk < maxRank {
			totalMain += r.opts.RankGap
		}
	}
	totalMain += r.opts.Margin
	if len(nodes) == 0 {
		totalMain = 2 * r.opts.Margin
	}
	totalCross := crossExtent + 2*r.opts.Margin

	cursor := make([]float64, maxRank+1)
	for rk := range cursor {
		cursor[rk] = r.opts.Margin + (crossExtent-rankCross[rk])/2
	}

	d := &Diagram{Direction: dir}
	for i, n := range nodes {
		rk := ranks[i]
		s := sizes[i]
		main := mainPos[rk] + (rankMain[rk]-s.main)/2
		if reversed {
			main = totalMain - main - s.main
		}
		cross := cursor[rk]
		cursor[rk] += s.cross + r.opts.NodeGap

		bounds := flowchart.Rect{X: cross, Y: main, Width: s.cross, Height: s.main}
		if horizontal {
			bounds = flowchart.Rect{X: main, Y: cross, Width: s.main, Height: s.cross}
		}
		callback, _ := doc.ClickCallback(n.ID)
		d.Nodes = append(d.Nodes, NodeBox{
			ID:        n.ID,
			ElementID: "flowchart-" + n.ID,
			Shape:     n.Shape,
			Label:     n.Text,
			Bounds:    bounds,
			Callback:  callback,
			Rank:      rk,
		})
	}

	if horizontal {
		d.Width, d.Height = totalMain, totalCross
	} else {
		d.Width, d.Height = totalCross, totalMain
	}

	// Ids are L-<from>-<to>-<n> with n bumped until the id is unused, since
	// dashed node ids let two pairs spell the same id
	seen := make(map[string]int)
	used := make(map[string]bool, len(edges))
	for _, e := range edges {
		pair := e.From + "\x00" + e.To
		var id string
		for {
			id = fmt.Sprintf("L-%s-%s-%d", e.From, e.To, seen[pair])
			seen[pair]++
			if !used[id] {
				break
			}
		}
		used[id] = true

		from := d.Nodes[index[e.From]].Bounds
		to := d.Nodes[index[e.To]].Bounds
		d.Edges = append(d.Edges, EdgePath{
			ID:    id,
			From:  e.From,
			To:    e.To,
			Label: e.Label,
			Start: clip(from, to.Center()),
			End:   clip(to, from.Center()),
		})
	}

	d.Root = buildSVG(d, nodes)
	return d
}

// clip returns where the line from r's center toward p leaves r
func clip(r flowchart.Rect, p flowchart.Point) flowchart.Point {
	c := r.Center()
	dx, dy := p.X-c.X, p.Y-c.Y
	if dx == 0 && dy == 0 {
		return c
	}
	scale := math.Inf(1)
	if dx != 0 {
		scale = math.Min(scale, (r.Width/2)/math.Abs(dx))
	}
	if dy != 0 {
		scale = math.Min(scale, (r.Height/2)/math.Abs(dy))
	}
	return flowchart.Point{X: c.X + dx*scale, Y: c.Y + dy*scale}
}
