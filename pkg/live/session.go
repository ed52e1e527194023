package live

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/recera/flowkit/pkg/flowchart"
	"github.com/recera/flowkit/pkg/mermaid"
	"github.com/recera/flowkit/pkg/render"
)

// debugLog is set by pkg/debug
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// SaveFunc persists a session's source
type SaveFunc func(sessionID, source string) error

// Session is one live editor: an editor, the bridge rendering it and the
// websocket currently attached to it. Frames are applied one at a time.
type Session struct {
	ID string

	editor  *flowchart.Editor
	bridge  *render.Bridge
	unmount func()
	onSave  SaveFunc

	mu        sync.Mutex
	seq       uint64
	lastLoads int

	connMu    sync.Mutex
	conn      *websocket.Conn
	sendChan  chan []byte
	closeChan chan struct{}
}

// NewSession creates a session editing source
func NewSession(ctx context.Context, id, source string, renderer render.Renderer, opts flowchart.Options, onSave SaveFunc) *Session {
	editor := flowchart.NewEditor(source, opts)
	bridge := render.ForEditor(renderer, editor)
	s := &Session{
		ID:        id,
		editor:    editor,
		bridge:    bridge,
		onSave:    onSave,
		sendChan:  make(chan []byte, 256),
		closeChan: make(chan struct{}),
	}
	s.unmount = editor.Mount(ctx, bridge)
	return s
}

// Editor returns the session's editor. Callers must not drive it
// concurrently with Handle.
func (s *Session) Editor() *flowchart.Editor {
	return s.editor
}

// Bridge returns the session's render bridge
func (s *Session) Bridge() *render.Bridge {
	return s.bridge
}

// Handle applies one client frame and returns the reply
func (s *Session) Handle(msg ClientMessage) ServerMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if debugLog != nil {
		debugLog("[Live Session "+s.ID+"] Frame", msg.Type)
	}

	if msg.Type == MsgPing {
		s.seq++
		return ServerMessage{Type: MsgPong, Seq: s.seq}
	}

	id, err := s.apply(msg)
	if err != nil {
		s.seq++
		return ServerMessage{Type: MsgError, Seq: s.seq, Error: err.Error()}
	}
	if msg.Type == MsgSave {
		s.seq++
		return ServerMessage{Type: MsgSaved, Seq: s.seq}
	}
	return s.renderLocked(id, msg.Type == MsgHello)
}

// apply runs the editor action named by msg. It returns the id of a
// created node, if any.
func (s *Session) apply(msg ClientMessage) (string, error) {
	e := s.editor
	switch msg.Type {
	case MsgHello:
	case MsgNodeClick:
		s.bridge.ClickNode(msg.ID)
	case MsgElementClick:
		s.bridge.ClickElement(msg.ElementID)
	case MsgEdgeClick:
		elementID := msg.ID
		if !strings.HasSuffix(elementID, render.CloneSuffix) {
			elementID += render.CloneSuffix
		}
		s.bridge.ClickElement(elementID)
	case MsgPointer:
		e.HandlePointerMove(msg.X, msg.Y)
	case MsgAddShape:
		shape := mermaid.ShapeRect
		if msg.Shape != "" {
			parsed, err := mermaid.ParseShape(msg.Shape)
			if err != nil {
				return "", err
			}
			shape = parsed
		}
		return e.AddShape(shape), nil
	case MsgDeleteNode:
		if msg.ID == "" {
			e.DeleteSelected()
		} else {
			e.DeleteNode(msg.ID)
		}
	case MsgStartEdge:
		e.StartCreateEdge()
	case MsgCancelEdge:
		e.CancelCreateEdge()
	case MsgAddEdge:
		if msg.From == "" || msg.To == "" {
			return "", errors.New("addEdge needs from and to")
		}
		e.AddEdge(msg.From, msg.To)
	case MsgDeleteEdge:
		e.DeleteSelectedEdge()
	case MsgSetNode:
		id := msg.ID
		if id == "" {
			id = e.SelectedNodeID()
		}
		n := mermaid.Node{ID: id, Shape: mermaid.Shape(msg.Shape), Text: msg.Text, BgColor: msg.BgColor, Color: msg.Color}
		if !e.SetNodeProps(n) {
			return "", fmt.Errorf("node %q has no metadata", id)
		}
	case MsgSetSource:
		e.SetSource(msg.Source)
	case MsgSelect:
		if msg.ID == "" {
			e.ClearSelection()
		} else {
			e.SetSelectedNodeID(msg.ID)
		}
	case MsgSave:
		if s.onSave == nil {
			return "", errors.New("saving is not enabled")
		}
		if err := s.onSave(s.ID, e.Source()); err != nil {
			return "", fmt.Errorf("save: %w", err)
		}
	default:
		return "", fmt.Errorf("unknown frame type %q", msg.Type)
	}
	return "", nil
}

// renderLocked builds a render frame. The SVG is included only when the
// bridge re-rendered since the last frame, or when full is set. Caller
// holds s.mu.
func (s *Session) renderLocked(id string, full bool) ServerMessage {
	s.seq++
	snap := s.editor.Snapshot()
	msg := ServerMessage{Type: MsgRender, Seq: s.seq, ID: id, State: &snap}

	if loads := s.bridge.Loads(); full || loads != s.lastLoads {
		s.lastLoads = loads
		svg, err := s.bridge.SVG()
		if err != nil {
			msg.Error = err.Error()
		}
		msg.SVG = svg
	}
	if err := s.editor.RenderErr(); err != nil {
		msg.Error = err.Error()
	}
	return msg
}

// SetSource replaces the session's source and returns the render frame to
// push
func (s *Session) SetSource(source string) ServerMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.SetSource(source)
	return s.renderLocked("", false)
}

// Close releases the editor and its render surface
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unmount()
	s.editor.Close()
}
