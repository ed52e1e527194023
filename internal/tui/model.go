// Package tui is a terminal host for the flow-chart editor. It lists the
// rendered nodes and edges, delivers clicks through the render bridge and
// shows the node menu as a settings panel.
package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/recera/flowkit/pkg/flowchart"
	"github.com/recera/flowkit/pkg/mermaid"
	"github.com/recera/flowkit/pkg/render"
)

// Mode is what keyboard input currently drives
type Mode int

const (
	ModeBrowse Mode = iota
	ModeEdit
)

// Input field positions in the settings panel
const (
	inputText = iota
	inputBgColor
	inputColor
)

// ItemKind distinguishes list entries
type ItemKind int

const (
	ItemNode ItemKind = iota
	ItemEdge
)

// Item is one selectable row of the list
type Item struct {
	Kind  ItemKind
	ID    string
	Label string
	Edge  flowchart.EdgeRef
}

// Options configures the terminal host
type Options struct {
	// Save persists the source; nil disables saving
	Save func(source string) error

	// Copy writes text to the clipboard; defaults to the system clipboard
	Copy func(text string) error
}

// Model represents the TUI application state
type Model struct {
	editor *flowchart.Editor
	bridge *render.Bridge
	opts   Options

	// Window dimensions
	width  int
	height int

	mode   Mode
	cursor int

	// Settings panel
	inputs       []textinput.Model
	currentInput int

	// Source before and after the last mutation
	before string
	after  string

	showHelp bool
	quitting bool

	// Messages
	statusMessage string
	errorMessage  string
}

// NewModel creates a model driving editor through bridge. The editor is
// expected to be mounted on the bridge.
func NewModel(editor *flowchart.Editor, bridge *render.Bridge, opts Options) Model {
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}

	textInput := textinput.New()
	textInput.Placeholder = mermaid.DefaultLabel
	textInput.CharLimit = 80
	textInput.Width = 30

	bgInput := textinput.New()
	bgInput.Placeholder = "#ffffff"
	bgInput.CharLimit = 32
	bgInput.Width = 12

	colorInput := textinput.New()
	colorInput.Placeholder = "#000000"
	colorInput.CharLimit = 32
	colorInput.Width = 12

	return Model{
		editor: editor,
		bridge: bridge,
		opts:   opts,
		inputs: []textinput.Model{textInput, bgInput, colorInput},
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Items returns the rendered nodes followed by the rendered edges
func (m Model) Items() []Item {
	d := m.bridge.Diagram()
	if d == nil {
		return nil
	}
	items := make([]Item, 0, len(d.Nodes)+len(d.Edges))
	for _, n := range d.Nodes {
		items = append(items, Item{Kind: ItemNode, ID: n.ID, Label: n.Label})
	}
	for _, e := range d.Edges {
		items = append(items, Item{
			Kind:  ItemEdge,
			ID:    e.ID,
			Label: e.From + " → " + e.To,
			Edge:  e.Ref(),
		})
	}
	return items
}

// Mode returns the current input mode
func (m Model) Mode() Mode {
	return m.mode
}

// Status returns the status line and the last error message
func (m Model) Status() (status, err string) {
	return m.statusMessage, m.errorMessage
}

// LastChange returns the source before and after the last mutation
func (m Model) LastChange() (before, after string) {
	return m.before, m.after
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.mode == ModeEdit {
			return m.handleEditKeys(msg)
		}
		return m.handleBrowseKeys(msg)
	}
	return m, nil
}

func (m Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errorMessage = ""
	items := m.Items()

	switch {
	case key.Matches(msg, DefaultKeyMap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, DefaultKeyMap.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, DefaultKeyMap.Down):
		if m.cursor < len(items)-1 {
			m.cursor++
		}

	case key.Matches(msg, DefaultKeyMap.Select):
		if m.cursor < len(items) {
			m.click(items[m.cursor])
		}

	case key.Matches(msg, DefaultKeyMap.Add):
		var id string
		m.mutate(func() { id = m.editor.AddShape(mermaid.ShapeRect) })
		m.statusMessage = "Added " + id
		m.moveToNode(id)

	case key.Matches(msg, DefaultKeyMap.Shape):
		node := m.editor.SelectedNode()
		if node == nil {
			m.errorMessage = "Select a node first"
			break
		}
		node.Shape = node.Shape.Next()
		m.mutate(func() {
			m.editor.SetNodeProps(*node)
			m.statusMessage = fmt.Sprintf("%s is now a %s", node.ID, strings.ToLower(node.Shape.Label()))
		})

	case key.Matches(msg, DefaultKeyMap.Delete):
		m.delete()

	case key.Matches(msg, DefaultKeyMap.Connect):
		if !m.editor.StartCreateEdge() {
			m.errorMessage = "Select a node to connect from"
			break
		}
		m.statusMessage = "Pick a target node"

	case key.Matches(msg, DefaultKeyMap.Edit):
		node := m.editor.SelectedNode()
		if node == nil {
			m.errorMessage = "Select a node with metadata first"
			break
		}
		m.openEditor(*node)
		return m, textinput.Blink

	case key.Matches(msg, DefaultKeyMap.Back):
		if m.editor.IsConnecting() {
			m.editor.CancelCreateEdge()
			m.statusMessage = "Connection cancelled"
		} else {
			m.editor.ClearSelection()
			m.statusMessage = ""
		}

	case key.Matches(msg, DefaultKeyMap.Copy):
		if err := m.opts.Copy(m.editor.Source()); err != nil {
			m.errorMessage = fmt.Sprintf("Copy failed: %v", err)
			break
		}
		m.statusMessage = "Copied source to clipboard"

	case key.Matches(msg, DefaultKeyMap.Save):
		if m.opts.Save == nil {
			m.errorMessage = "Saving is not enabled"
			break
		}
		if err := m.opts.Save(m.editor.Source()); err != nil {
			m.errorMessage = fmt.Sprintf("Save failed: %v", err)
			break
		}
		m.statusMessage = "Saved"
	}

	if n := len(m.Items()); m.cursor >= n && n > 0 {
		m.cursor = n - 1
	}
	return m, nil
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, DefaultKeyMap.Back):
		m.closeEditor()
		m.statusMessage = "Edit cancelled"
		return m, nil

	case key.Matches(msg, DefaultKeyMap.Tab):
		m.inputs[m.currentInput].Blur()
		m.currentInput = (m.currentInput + 1) % len(m.inputs)
		m.inputs[m.currentInput].Focus()
		return m, nil

	case msg.Type == tea.KeyEnter:
		m.applyEdit()
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.currentInput], cmd = m.inputs[m.currentInput].Update(msg)
	return m, cmd
}

// click delivers a click on item the way a pointer would
func (m *Model) click(item Item) {
	switch item.Kind {
	case ItemNode:
		connecting := m.editor.IsConnecting()
		var clicked bool
		m.mutate(func() { clicked = m.bridge.ClickNode(item.ID) })
		if !clicked {
			m.errorMessage = fmt.Sprintf("%s has no click binding", item.ID)
			return
		}
		if connecting {
			m.statusMessage = "Connected to " + item.ID
			return
		}
		m.statusMessage = "Selected " + item.ID

	case ItemEdge:
		if !m.bridge.ClickElement(item.ID + render.CloneSuffix) {
			m.errorMessage = "Edge is not clickable"
			return
		}
		if m.editor.SelectedEdge() == nil {
			m.errorMessage = "Finish connecting first"
			return
		}
		m.statusMessage = "Selected edge " + item.Label
	}
}

func (m *Model) delete() {
	switch {
	case m.editor.SelectedEdge() != nil:
		ref := *m.editor.SelectedEdge()
		m.mutate(func() {
			n := m.editor.DeleteSelectedEdge()
			m.statusMessage = fmt.Sprintf("Deleted %d edge(s) %s → %s", n, ref.From, ref.To)
		})
	case m.editor.SelectedNodeID() != "":
		id := m.editor.SelectedNodeID()
		m.mutate(func() {
			n := m.editor.DeleteSelected()
			m.statusMessage = fmt.Sprintf("Deleted %s (%d statements)", id, n)
		})
	default:
		m.errorMessage = "Nothing selected"
	}
}

func (m *Model) openEditor(node mermaid.Node) {
	m.mode = ModeEdit
	m.currentInput = inputText
	m.inputs[inputText].SetValue(node.Text)
	m.inputs[inputBgColor].SetValue(node.BgColor)
	m.inputs[inputColor].SetValue(node.Color)
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.inputs[inputText].Focus()
}

func (m *Model) closeEditor() {
	m.mode = ModeBrowse
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *Model) applyEdit() {
	node := m.editor.SelectedNode()
	if node == nil {
		m.closeEditor()
		m.errorMessage = "Node no longer exists"
		return
	}
	node.Text = m.inputs[inputText].Value()
	node.BgColor = strings.TrimSpace(m.inputs[inputBgColor].Value())
	node.Color = strings.TrimSpace(m.inputs[inputColor].Value())

	m.mutate(func() {
		if m.editor.SetNodeProps(*node) {
			m.statusMessage = "Updated " + node.ID
		}
	})
	m.closeEditor()
}

// mutate runs fn and records the source change it made
func (m *Model) mutate(fn func()) {
	before := m.editor.Source()
	fn()
	if after := m.editor.Source(); after != before {
		m.before, m.after = before, after
	}
}

func (m *Model) moveToNode(id string) {
	for i, item := range m.Items() {
		if item.Kind == ItemNode && item.ID == id {
			m.cursor = i
			return
		}
	}
}
