package live

import "github.com/recera/flowkit/pkg/flowchart"

// Client frame types
const (
	MsgHello        = "hello"
	MsgPing         = "ping"
	MsgNodeClick    = "nodeClick"
	MsgElementClick = "elementClick"
	MsgEdgeClick    = "edgeClick"
	MsgPointer      = "pointer"
	MsgAddShape     = "addShape"
	MsgDeleteNode   = "deleteNode"
	MsgStartEdge    = "startEdge"
	MsgCancelEdge   = "cancelEdge"
	MsgAddEdge      = "addEdge"
	MsgDeleteEdge   = "deleteEdge"
	MsgSetNode      = "setNode"
	MsgSetSource    = "setSource"
	MsgSelect       = "select"
	MsgSave         = "save"
)

// Server frame types
const (
	MsgRender = "render"
	MsgPong   = "pong"
	MsgSaved  = "saved"
	MsgError  = "error"
)

// ClientMessage is a JSON frame sent by the browser. Fields are used
// according to Type.
type ClientMessage struct {
	Type      string  `json:"type"`
	ID        string  `json:"id,omitempty"`
	ElementID string  `json:"elementId,omitempty"`
	From      string  `json:"from,omitempty"`
	To        string  `json:"to,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	Shape     string  `json:"shape,omitempty"`
	Text      string  `json:"text,omitempty"`
	BgColor   string  `json:"bgColor,omitempty"`
	Color     string  `json:"color,omitempty"`
	Source    string  `json:"source,omitempty"`
}

// ServerMessage is a JSON frame pushed to the browser
type ServerMessage struct {
	Type  string              `json:"type"`
	Seq   uint64              `json:"seq"`
	ID    string              `json:"id,omitempty"`
	SVG   string              `json:"svg,omitempty"`
	State *flowchart.Snapshot `json:"state,omitempty"`
	Error string              `json:"error,omitempty"`
}
