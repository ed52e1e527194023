package flowchart

import (
	"fmt"

	"github.com/recera/flowkit/pkg/mermaid"
)

// Phase is the interaction state of an editor
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseNodeSelected
	PhaseConnecting
)

// String returns the phase name for display
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseNodeSelected:
		return "node-selected"
	case PhaseConnecting:
		return "connecting"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name written by MarshalText
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*p = PhaseIdle
	case "node-selected":
		*p = PhaseNodeSelected
	case "connecting":
		*p = PhaseConnecting
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// ConnectMode decides what happens after an edge is completed
type ConnectMode int

const (
	// ConnectSingle leaves connecting mode after one edge
	ConnectSingle ConnectMode = iota
	// ConnectMulti keeps connecting from the same source until cancelled
	ConnectMulti
	// ConnectSticky clears the pending edge but keeps the connecting flag,
	// so the next click selects a node while the flag stays set
	ConnectSticky
)

// String returns the mode name used in configuration
func (m ConnectMode) String() string {
	switch m {
	case ConnectSingle:
		return "single"
	case ConnectMulti:
		return "multi"
	case ConnectSticky:
		return "sticky"
	default:
		return "unknown"
	}
}

// ParseConnectMode converts a configuration name into a ConnectMode
func ParseConnectMode(name string) (ConnectMode, error) {
	switch name {
	case "", "single":
		return ConnectSingle, nil
	case "multi":
		return ConnectMulti, nil
	case "sticky":
		return ConnectSticky, nil
	default:
		return ConnectSingle, fmt.Errorf("unknown connect mode %q (want single, multi or sticky)", name)
	}
}

// PendingEdge captures an edge-creation gesture in progress
type PendingEdge struct {
	SourceID    string `json:"sourceId,omitempty"`
	TargetID    string `json:"targetId,omitempty"`
	SourcePoint *Point `json:"sourcePoint,omitempty"`
	TargetPoint *Point `json:"targetPoint,omitempty"`
}

func (p *PendingEdge) clone() *PendingEdge {
	if p == nil {
		return nil
	}
	return &PendingEdge{
		SourceID:    p.SourceID,
		TargetID:    p.TargetID,
		SourcePoint: clonePoint(p.SourcePoint),
		TargetPoint: clonePoint(p.TargetPoint),
	}
}

// EdgeRef identifies a rendered edge and its endpoints
type EdgeRef struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Snapshot is a copy of an editor's state for hosts
type Snapshot struct {
	Source         string        `json:"source"`
	Phase          Phase         `json:"phase"`
	SelectedNodeID string        `json:"selectedNodeId,omitempty"`
	SelectedNode   *mermaid.Node `json:"selectedNode,omitempty"`
	SelectedEdge   *EdgeRef      `json:"selectedEdge,omitempty"`
	FloatingPoint  *Point        `json:"floatingPoint,omitempty"`
	IsConnecting   bool          `json:"isConnecting"`
	PendingEdge    *PendingEdge  `json:"pendingEdge,omitempty"`
}
