package vdom

import "testing"

func sampleTree() *VNode {
	return NewElement("svg", Props{"id": "root"},
		NewElement("g", Props{"class": "edgePaths"},
			NewElement("path", Props{"id": "L-A-B-0", "class": "flowchart-link"}),
			NewElement("path", Props{"id": "L-B-C-0", "class": "flowchart-link extra"}),
		),
		NewElement("g", Props{"class": "nodes"},
			NewElement("g", Props{"class": "node", "data-id": "A"}, NewText("A")),
		),
		nil,
	)
}

func TestNewElement_SkipsNilChildren(t *testing.T) {
	root := sampleTree()

	if len(root.Kids) != 2 {
		t.Errorf("Expected 2 children, got %d", len(root.Kids))
	}
	if root.Props == nil {
		t.Error("Expected props to be allocated")
	}
}

func TestVNode_FindAll(t *testing.T) {
	root := sampleTree()

	links := root.FindAll(Element("path", "flowchart-link"))
	if len(links) != 2 {
		t.Fatalf("Expected 2 links, got %d", len(links))
	}
	if links[0].ID() != "L-A-B-0" || links[1].ID() != "L-B-C-0" {
		t.Errorf("Expected links in document order, got %s %s", links[0].ID(), links[1].ID())
	}
	if got := root.FindAll(Element("", "node")); len(got) != 1 {
		t.Errorf("Expected 1 node group, got %d", len(got))
	}
}

func TestVNode_FindByID(t *testing.T) {
	root := sampleTree()

	if n := root.FindByID("L-B-C-0"); n == nil || !n.HasClass("extra") {
		t.Errorf("Expected to find L-B-C-0, got %+v", n)
	}
	if n := root.FindByID("missing"); n != nil {
		t.Errorf("Expected nil for a missing id, got %+v", n)
	}
}

func TestVNode_CloneIsDeep(t *testing.T) {
	root := sampleTree()
	link := root.FindByID("L-A-B-0")

	clone := link.Clone()
	clone.SetAttr("id", "L-A-B-0-clone")
	clone.SetAttr("style", "opacity:0")

	if link.ID() != "L-A-B-0" || link.Attr("style") != "" {
		t.Errorf("Expected original untouched, got %v", link.Props)
	}

	treeClone := root.Clone()
	treeClone.Kids[0].AppendChild(NewElement("path", nil))
	if len(root.Kids[0].Kids) != 2 {
		t.Errorf("Expected original children untouched, got %d", len(root.Kids[0].Kids))
	}
}

func TestVNode_RemoveAll(t *testing.T) {
	root := sampleTree()
	group := root.Find(Element("g", "edgePaths"))
	group.AppendChild(NewElement("path", Props{"id": "L-A-B-0-clone"}))

	removed := root.RemoveAll(func(n *VNode) bool {
		return n.ID() == "L-A-B-0-clone"
	})

	if removed != 1 {
		t.Errorf("Expected 1 removal, got %d", removed)
	}
	if len(group.Kids) != 2 {
		t.Errorf("Expected 2 paths left, got %d", len(group.Kids))
	}
}

func TestVNode_Attr(t *testing.T) {
	n := NewElement("rect", Props{"width": 40.5, "x": 3})

	if n.Attr("width") != "40.5" || n.Attr("x") != "3" {
		t.Errorf("Expected formatted attrs, got %q %q", n.Attr("width"), n.Attr("x"))
	}
	if n.Attr("height") != "" {
		t.Errorf("Expected empty for unset attr, got %q", n.Attr("height"))
	}

	var bare VNode
	bare.SetAttr("id", "x")
	if bare.ID() != "x" {
		t.Errorf("Expected SetAttr to allocate props, got %q", bare.ID())
	}
}
