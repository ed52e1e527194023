package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/recera/flowkit/internal/cache"
	"github.com/recera/flowkit/pkg/renderer/html"
)

func TestLayout_Ranks(t *testing.T) {
	r := NewLayoutRenderer(LayoutOptions{})
	d, err := r.Render(context.Background(), "graph TD;\nA --> B;\nB --> C;\nA --> C;\nD;\n", Options{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := map[string]int{"A": 0, "B": 1, "C": 2, "D": 0}
	for id, rank := range want {
		n, ok := d.Node(id)
		if !ok {
			t.Errorf("Expected node %s", id)
			continue
		}
		if n.Rank != rank {
			t.Errorf("Node %s: expected rank %d, got %d", id, rank, n.Rank)
		}
	}
}

func TestLayout_CyclesTerminate(t *testing.T) {
	r := NewLayoutRenderer(LayoutOptions{})
	d, err := r.Render(context.Background(), "A --> B;B --> A;B --> B;", Options{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(d.Nodes) != 2 || len(d.Edges) != 3 {
		t.Errorf("Expected 2 nodes and 3 edges, got %d and %d", len(d.Nodes), len(d.Edges))
	}
}

func TestLayout_Direction(t *testing.T) {
	tests := []struct {
		header string
		check  func(a, b NodeBox) bool
	}{
		{"graph LR", func(a, b NodeBox) bool { return a.Bounds.X < b.Bounds.X }},
		{"graph RL", func(a, b NodeBox) bool { return a.Bounds.X > b.Bounds.X }},
		{"graph TD", func(a, b NodeBox) bool { return a.Bounds.Y < b.Bounds.Y }},
		{"graph TB", func(a, b NodeBox) bool { return a.Bounds.Y < b.Bounds.Y }},
		{"graph BT", func(a, b NodeBox) bool { return a.Bounds.Y > b.Bounds.Y }},
	}

	r := NewLayoutRenderer(LayoutOptions{})
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			d, err := r.Render(context.Background(), tt.header+";\nA --> B;\n", Options{})
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			a, _ := d.Node("A")
			b, _ := d.Node("B")
			if !tt.check(a, b) {
				t.Errorf("Unexpected placement for %s: A=%+v B=%+v", tt.header, a.Bounds, b.Bounds)
			}
		})
	}
}

func TestLayout_NodesFitCanvas(t *testing.T) {
	r := NewLayoutRenderer(LayoutOptions{})
	d, err := r.Render(context.Background(), sample, Options{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for _, n := range d.Nodes {
		b := n.Bounds
		if b.X < 0 || b.Y < 0 || b.X+b.Width > d.Width || b.Y+b.Height > d.Height {
			t.Errorf("Node %s at %+v outside %vx%v", n.ID, b, d.Width, d.Height)
		}
	}
	for i := 0; i < len(d.Nodes); i++ {
		for j := i + 1; j < len(d.Nodes); j++ {
			a, b := d.Nodes[i].Bounds, d.Nodes[j].Bounds
			if a.X < b.X+b.Width && b.X < a.X+a.Width && a.Y < b.Y+b.Height && b.Y < a.Y+a.Height {
				t.Errorf("Nodes %s and %s overlap", d.Nodes[i].ID, d.Nodes[j].ID)
			}
		}
	}
}

func TestLayout_SVGStructure(t *testing.T) {
	r := NewLayoutRenderer(LayoutOptions{})
	d, err := r.Render(context.Background(), sample+"style B fill:#f9f,color:#000;\nA -->|yes| B;\n", Options{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	svg, err := html.RenderToString(d.Root)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	for _, want := range []string{
		`<svg class="flowchart" data-direction="LR"`,
		`<g class="edgePaths">`,
		`class="flowchart-link"`,
		`id="L-A-B-1"`,
		`class="node default clickable" data-id="A"`,
		`class="node default" data-id="B"`,
		`<polygon`,
		`<circle`,
		`style="fill:#f9f"`,
		`<text x=`,
		`>yes</text>`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("Expected %q in %s", want, svg)
		}
	}
}

func TestLayout_Cache(t *testing.T) {
	c := cache.New(cache.DefaultConfig[*Diagram]())
	r := NewLayoutRenderer(LayoutOptions{Cache: c})
	ctx := context.Background()

	first, _ := r.Render(ctx, sample, Options{})
	first.Root.Kids = nil
	second, _ := r.Render(ctx, sample, Options{})

	if r.Renders() != 1 {
		t.Errorf("Expected cached second render, got %d layouts", r.Renders())
	}
	if len(second.Root.Kids) == 0 {
		t.Error("Expected cached diagram to be unaffected by caller edits")
	}

	r.Render(ctx, sample, Options{Invalidate: true})
	if r.Renders() != 2 {
		t.Errorf("Expected Invalidate to bypass the cache, got %d layouts", r.Renders())
	}
	if c.Len() != 1 {
		t.Errorf("Expected one cached source, got %d", c.Len())
	}
}

func TestLayout_Strict(t *testing.T) {
	r := NewLayoutRenderer(LayoutOptions{Strict: true})

	_, err := r.Render(context.Background(), "A --> B;\nodd ^^ stuff;\n", Options{})
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("Expected SyntaxError, got %v", err)
	}
	if syntaxErr.Statements[0] != "odd ^^ stuff" {
		t.Errorf("Expected offending statement, got %v", syntaxErr.Statements)
	}

	if _, err := r.Render(context.Background(), sample, Options{}); err != nil {
		t.Errorf("Expected sample to pass strict mode, got %v", err)
	}
}

func TestLayout_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLayoutRenderer(LayoutOptions{}).Render(ctx, sample, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestLayout_EdgeIDsUnique(t *testing.T) {
	d, err := NewLayoutRenderer(LayoutOptions{}).Render(context.Background(), "a-b --> c;\na --> b-c;\na-b --> c;\n", Options{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, e := range d.Edges {
		if seen[e.ID] {
			t.Errorf("Duplicate edge id %s", e.ID)
		}
		seen[e.ID] = true

		got, ok := d.Edge(e.ID)
		if !ok || got.From != e.From || got.To != e.To {
			t.Errorf("Edge(%s) = %+v, want %s -> %s", e.ID, got, e.From, e.To)
		}
	}
	if len(seen) != 3 {
		t.Errorf("Expected 3 distinct ids, got %d", len(seen))
	}
}
