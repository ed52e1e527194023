package mermaid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
graph LR;
A --> B;
C --> A;
A --> C;
%%A[Text]%%;
A[Text];
%%B{Text}%%;
B{Text};
%%C((Text))%%;
C((Text));
click A callback;
`

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		sample,
		"A-->B;",
		"graph TD\n  A[x]\n  B[y]\n  A --> B",
		"  %% just a comment ;; \n\n",
		"style A fill:#f9f,color:#000;odd ^^ stuff;",
	}
	for _, in := range inputs {
		assert.Equal(t, in, Parse(in).String(), "round trip of %q", in)
	}
}

func TestParse_Kinds(t *testing.T) {
	tests := []struct {
		body string
		kind Kind
	}{
		{"graph LR", KindHeader},
		{"flowchart TD", KindHeader},
		{"A[Text]", KindNode},
		{"node-1((Hi there))", KindNode},
		{"B{Yes?}", KindNode},
		{"A", KindNode},
		{"%%A[Text]%%", KindMetadata},
		{"%% a note", KindComment},
		{"A --> B", KindEdge},
		{"A-->B", KindEdge},
		{"node-1-->node-2", KindEdge},
		{"A -->|yes| B", KindEdge},
		{"click A callback", KindClick},
		{"style A fill:#fff", KindStyle},
		{"subgraph one", KindRaw},
		{"A[unclosed", KindRaw},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			stmts := Parse(tt.body + ";").Statements()
			require.Len(t, stmts, 1)
			assert.Equal(t, tt.kind, stmts[0].Kind)
			assert.Equal(t, tt.body, stmts[0].Body())
		})
	}
}

func TestParse_Fields(t *testing.T) {
	stmts := Parse("node-1-->node-2;A -->|yes| B;click A callback;%%C((Hi))%%").Statements()
	require.Len(t, stmts, 4)

	assert.Equal(t, "node-1", stmts[0].From)
	assert.Equal(t, "node-2", stmts[0].To)

	assert.Equal(t, "yes", stmts[1].Label)

	assert.Equal(t, "A", stmts[2].ID)
	assert.Equal(t, "callback", stmts[2].Callback)

	assert.Equal(t, "C", stmts[3].ID)
	assert.Equal(t, ShapeCircle, stmts[3].Shape)
	assert.Equal(t, "Hi", stmts[3].Text)
}

func TestDocument_Queries(t *testing.T) {
	doc := Parse(sample)

	assert.Equal(t, "LR", doc.Direction())
	header, ok := doc.Header()
	require.True(t, ok)
	assert.Equal(t, KindHeader, header.Kind)
	_, ok = Parse("A --> B;").Header()
	assert.False(t, ok)

	assert.True(t, doc.Has("A"))
	assert.False(t, doc.Has("Z"))

	n, ok := doc.Node("B")
	require.True(t, ok)
	assert.Equal(t, Node{ID: "B", Shape: ShapeDiamond, Text: "Text"}, *n)

	_, ok = doc.Node("Z")
	assert.False(t, ok)

	cb, ok := doc.ClickCallback("A")
	assert.True(t, ok)
	assert.Equal(t, "callback", cb)
	_, ok = doc.ClickCallback("B")
	assert.False(t, ok)

	assert.Equal(t, []Edge{{From: "A", To: "B"}, {From: "C", To: "A"}, {From: "A", To: "C"}}, doc.Edges())

	ids := []string{}
	for _, n := range doc.Declared() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"A", "B", "C"}, ids)
	assert.Len(t, doc.Nodes(), 3)
}

func TestDocument_DeclaredUsesShapedDeclaration(t *testing.T) {
	doc := Parse("A --> B;B{Decide};")
	declared := doc.Declared()
	require.Len(t, declared, 2)
	assert.Equal(t, Node{ID: "A", Shape: ShapeRect, Text: "A"}, declared[0])
	assert.Equal(t, Node{ID: "B", Shape: ShapeDiamond, Text: "Decide"}, declared[1])
}

func TestNodeContent_RoundTrip(t *testing.T) {
	labels := []string{"Text", "", "two words", "with [brackets]", "a{b}c", "((x))", "yes; no", "two\nlines"}
	for _, shape := range Shapes() {
		for _, label := range labels {
			encoded := shape.Encode("node-7", label)
			assert.Equal(t, label, NodeContent("node-7", encoded, shape), "%s %q", shape, label)
		}
	}
}

func TestNodeContent_RoundTripThroughParser(t *testing.T) {
	for _, shape := range Shapes() {
		doc := Parse("")
		doc.AddNode(Node{ID: "X", Shape: shape, Text: "label here"}, "")
		n, ok := doc.Node("X")
		require.True(t, ok)
		assert.Equal(t, shape, n.Shape)
		assert.Equal(t, "label here", n.Text)
	}
}

func TestAddShape(t *testing.T) {
	for _, shape := range Shapes() {
		t.Run(string(shape), func(t *testing.T) {
			doc := Parse(sample)
			content := doc.AddShape("node-1700000000000", shape)
			src := doc.String()

			assert.Equal(t, 1, strings.Count(src, "%%"+content+"%%"))
			assert.Equal(t, 1, strings.Count(src, "\n"+content+";"))
			assert.Equal(t, 1, strings.Count(src, "click node-1700000000000 callback;"))

			got, ok := NodePropsStr(src, "node-1700000000000")
			require.True(t, ok)
			assert.Equal(t, content, got)

			for _, issue := range Parse(src).Validate() {
				assert.NotEqual(t, "node-1700000000000", issue.ID, issue.String())
			}
		})
	}
}

func TestAddShape_UnterminatedSource(t *testing.T) {
	doc := Parse("A-->B")
	doc.AddShape("N", ShapeRect)
	assert.Equal(t, "A-->B\n%%N[Text]%%;\nN[Text];\nclick N callback;\n", doc.String())
	assert.Len(t, Parse(doc.String()).Edges(), 1)
}

func TestAddEdge_ExactAppend(t *testing.T) {
	doc := Parse("A-->B;")
	doc.AddEdge("A", "C")
	assert.Equal(t, "A-->B;A --> C;\n", doc.String())

	doc.AddEdge("A", "C")
	assert.Equal(t, "A-->B;A --> C;\nA --> C;\n", doc.String())
}

func TestDeleteNode(t *testing.T) {
	doc := Parse("A[x];B[y];click A callback;")
	assert.Equal(t, 2, doc.DeleteNode("A"))
	assert.Equal(t, "B[y];", doc.String())
	assert.False(t, doc.Has("A"))
}

func TestDeleteNode_ExactToken(t *testing.T) {
	src := "%%node-1[a]%%;node-1[a];%%node-10[b]%%;node-10[b];node-10 --> node-1;click node-10 callback;"
	doc := Parse(src)
	assert.Equal(t, 3, doc.DeleteNode("node-1"))
	assert.Equal(t, "%%node-10[b]%%;node-10[b];click node-10 callback;", doc.String())
}

func TestDeleteNode_Sample(t *testing.T) {
	doc := Parse(sample)
	doc.DeleteNode("A")
	out := doc.String()
	for _, tok := range tokens(out) {
		assert.NotEqual(t, "A", tok)
	}
	assert.Contains(t, out, "B{Text};")
	assert.Contains(t, out, "C((Text));")
	assert.Empty(t, doc.Edges())
}

func TestDeleteEdge(t *testing.T) {
	doc := Parse("A --> B;B --> A;A --> B;")
	assert.Equal(t, 2, doc.DeleteEdge("A", "B"))
	assert.Equal(t, "B --> A;", doc.String())
}

func TestSetNodeProps(t *testing.T) {
	doc := Parse(sample)
	want := Node{ID: "A", Shape: ShapeCircle, Text: "Start"}

	require.True(t, doc.SetNodeProps(want))
	first := doc.String()
	n, ok := doc.Node("A")
	require.True(t, ok)
	assert.Equal(t, want, *n)
	assert.Contains(t, first, "%%A((Start))%%;")
	assert.Contains(t, first, "\nA((Start));")
	assert.Contains(t, first, "A --> B;")

	require.True(t, doc.SetNodeProps(want))
	assert.Equal(t, first, doc.String())
}

func TestSetNodeProps_SeparatorsSurviveReparse(t *testing.T) {
	labels := []string{"yes; no", "first\nsecond", "a;b;\n"}
	for _, label := range labels {
		t.Run(label, func(t *testing.T) {
			doc := Parse(sample)
			require.True(t, doc.SetNodeProps(Node{ID: "A", Shape: ShapeRect, Text: label}))

			reparsed := Parse(doc.String())
			n, ok := reparsed.Node("A")
			require.True(t, ok)
			assert.Equal(t, label, n.Text)
			assert.Empty(t, reparsed.Validate())
			assert.Equal(t, doc.Len(), reparsed.Len())
		})
	}

	doc := Parse(sample)
	doc.SetNodeProps(Node{ID: "A", Shape: ShapeRect, Text: "yes; no"})
	assert.Contains(t, doc.String(), "%%A[yes#59; no]%%;")
}

func TestAddNode_SeparatorsSurviveReparse(t *testing.T) {
	doc := Parse("")
	doc.AddNode(Node{ID: "X", Shape: ShapeDiamond, Text: "ok;\nnext"}, "")

	n, ok := Parse(doc.String()).Node("X")
	require.True(t, ok)
	assert.Equal(t, "ok;\nnext", n.Text)
}

func TestSetNodeProps_Colors(t *testing.T) {
	doc := Parse(sample)
	require.True(t, doc.SetNodeProps(Node{ID: "B", Shape: ShapeDiamond, Text: "Text", BgColor: "#f9f"}))
	require.True(t, doc.SetNodeProps(Node{ID: "B", Shape: ShapeDiamond, Text: "Text", Color: "#333"}))

	assert.Equal(t, 1, strings.Count(doc.String(), "style B"))
	n, ok := doc.Node("B")
	require.True(t, ok)
	assert.Equal(t, "#f9f", n.BgColor)
	assert.Equal(t, "#333", n.Color)
}

func TestSetNodeProps_Missing(t *testing.T) {
	doc := Parse("A[x];")
	assert.False(t, doc.SetNodeProps(Node{ID: "A", Shape: ShapeRect, Text: "y"}))
	assert.False(t, doc.SetNodeProps(Node{}))
	assert.Equal(t, "A[x];", doc.String())
}

func TestSetNodeProps_InvalidShapeKeepsExisting(t *testing.T) {
	doc := Parse("%%A{x}%%;A{x};")
	require.True(t, doc.SetNodeProps(Node{ID: "A", Shape: "hexagon", Text: "y"}))
	assert.Equal(t, "%%A{y}%%;A{y};", doc.String())
}

func TestNodePropsStr_FirstExactMatch(t *testing.T) {
	src := "%%AB[wrong]%%;%%A[right]%%;%%A[later]%%;"
	got, ok := NodePropsStr(src, "A")
	require.True(t, ok)
	assert.Equal(t, "A[right]", got)

	_, ok = NodePropsStr(src, "Q")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	doc := Parse("%%A[x]%%;A[x];click A callback;B[y];%%C[z]%%;%%D[old]%%;D[new];click D callback;")
	issues := doc.Validate()
	require.Len(t, issues, 4)
	assert.Equal(t, Issue{ID: "B", Problem: MissingMetadata}, issues[0])
	assert.Equal(t, MissingClick, issues[1].Problem)
	assert.Equal(t, "B", issues[1].ID)
	assert.Equal(t, StaleMetadata, issues[2].Problem)
	assert.Equal(t, "D", issues[2].ID)
	assert.Equal(t, Issue{ID: "C", Problem: OrphanMetadata}, issues[3])
	assert.Equal(t, "C: orphan metadata", issues[3].String())
}

func TestFormat(t *testing.T) {
	doc := Parse("graph LR\n  A[x];;\n\n A-->B")
	assert.Equal(t, "graph LR;\nA[x];\nA-->B;\n", doc.Format())
}

func TestShape(t *testing.T) {
	s, err := ParseShape("diamond")
	require.NoError(t, err)
	assert.Equal(t, ShapeDiamond, s)

	_, err = ParseShape("hexagon")
	assert.Error(t, err)

	assert.Equal(t, ShapeCircle, ShapeRect.Next())
	assert.Equal(t, ShapeRect, ShapeDiamond.Next())
	assert.Equal(t, "Q", ShapeNone.Encode("Q", "ignored"))
}
