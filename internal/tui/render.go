package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/recera/flowkit/internal/diffview"
	"github.com/recera/flowkit/pkg/flowchart"
)

// Style definitions
var (
	// Colors
	primaryColor = lipgloss.Color("#3b82f6")
	successColor = lipgloss.Color("#10b981")
	warningColor = lipgloss.Color("#f59e0b")
	errorColor   = lipgloss.Color("#ef4444")
	mutedColor   = lipgloss.Color("#94a3b8")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor)

	warningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	diffInsert = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "114"})
	diffDelete = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "203"})
)

// diffPainter styles diff lines for the terminal panel
type diffPainter struct{}

func (diffPainter) Equal(s string) string  { return mutedStyle.Render(s) }
func (diffPainter) Insert(s string) string { return diffInsert.Render(s) }
func (diffPainter) Delete(s string) string { return diffDelete.Render(s) }

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("flowkit"))
	sb.WriteString("\n")

	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(m.renderList()),
		"  ",
		boxStyle.Render(m.renderPanel()),
	)
	sb.WriteString(columns)
	sb.WriteString("\n")

	if m.after != "" {
		sb.WriteString(boxStyle.Render("Last change\n" +
			strings.TrimSuffix(diffview.Unified(m.before, m.after, 2, diffPainter{}), "\n")))
		sb.WriteString("\n")
	}

	sb.WriteString(m.renderStatus())
	sb.WriteString(m.renderHelp())
	return sb.String()
}

func (m Model) renderList() string {
	items := m.Items()
	if len(items) == 0 {
		return mutedStyle.Render("Empty diagram. Press a to add a shape.")
	}

	selectedNode := m.editor.SelectedNodeID()
	selectedEdge := m.editor.SelectedEdge()
	var pendingSource string
	if p := m.editor.PendingEdge(); p != nil {
		pendingSource = p.SourceID
	}

	var sb strings.Builder
	for i, item := range items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		marker := " "
		switch {
		case item.Kind == ItemNode && item.ID == pendingSource:
			marker = warningStyle.Render("◆")
		case item.Kind == ItemNode && item.ID == selectedNode:
			marker = successStyle.Render("●")
		case item.Kind == ItemEdge && selectedEdge != nil && selectedEdge.ID == item.ID:
			marker = successStyle.Render("●")
		}

		line := item.Label
		if item.Kind == ItemNode && item.Label != item.ID {
			line = fmt.Sprintf("%s %s", item.ID, mutedStyle.Render(item.Label))
		}
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		sb.WriteString(cursor + marker + " " + line + "\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// renderPanel renders the node menu for the current phase
func (m Model) renderPanel() string {
	var sb strings.Builder
	sb.WriteString(selectedStyle.Render("Phase: " + m.editor.Phase().String()))
	sb.WriteString("\n")

	switch m.editor.Phase() {
	case flowchart.PhaseConnecting:
		if p := m.editor.PendingEdge(); p != nil && p.SourceID != "" {
			sb.WriteString(fmt.Sprintf("From %s, pick a target\n", p.SourceID))
		} else {
			sb.WriteString("Select a source node\n")
		}
		sb.WriteString(mutedStyle.Render("mode: " + m.editor.ConnectMode().String()))

	case flowchart.PhaseNodeSelected:
		node := m.editor.SelectedNode()
		if node == nil {
			sb.WriteString(fmt.Sprintf("%s has no metadata", m.editor.SelectedNodeID()))
			break
		}
		if m.mode == ModeEdit {
			labels := []string{"Text", "Background", "Color"}
			for i, input := range m.inputs {
				sb.WriteString(fmt.Sprintf("%-11s %s\n", labels[i], input.View()))
			}
			sb.WriteString(mutedStyle.Render("enter apply · tab next · esc cancel"))
			break
		}
		sb.WriteString(fmt.Sprintf("Id     %s\n", node.ID))
		sb.WriteString(fmt.Sprintf("Shape  %s\n", node.Shape.Label()))
		sb.WriteString(fmt.Sprintf("Text   %s\n", node.Text))
		if node.BgColor != "" {
			sb.WriteString(fmt.Sprintf("Fill   %s\n", node.BgColor))
		}
		if node.Color != "" {
			sb.WriteString(fmt.Sprintf("Color  %s\n", node.Color))
		}
		if fp := m.editor.FloatingPoint(); fp != nil {
			sb.WriteString(mutedStyle.Render(fmt.Sprintf("menu at %.0f,%.0f", fp.X, fp.Y)))
		}

	default:
		if e := m.editor.SelectedEdge(); e != nil {
			sb.WriteString(fmt.Sprintf("Edge %s → %s\n", e.From, e.To))
			sb.WriteString(mutedStyle.Render("d to delete"))
			break
		}
		sb.WriteString(mutedStyle.Render("Nothing selected"))
	}
	return sb.String()
}

func (m Model) renderStatus() string {
	if m.errorMessage != "" {
		return errorStyle.Render(m.errorMessage) + "\n"
	}
	if err := m.editor.RenderErr(); err != nil {
		return errorStyle.Render(err.Error()) + "\n"
	}
	if m.statusMessage != "" {
		return successStyle.Render(m.statusMessage) + "\n"
	}
	return ""
}

func (m Model) renderHelp() string {
	k := DefaultKeyMap
	short := []string{
		k.Select.Help().Key + " " + k.Select.Help().Desc,
		k.Add.Help().Key + " " + k.Add.Help().Desc,
		k.Connect.Help().Key + " " + k.Connect.Help().Desc,
		k.Quit.Help().Key + " " + k.Quit.Help().Desc,
		k.Help.Help().Key + " " + k.Help.Help().Desc,
	}
	if !m.showHelp {
		return helpStyle.Render(strings.Join(short, " · "))
	}

	all := []key.Binding{k.Up, k.Down, k.Select, k.Add, k.Shape, k.Delete, k.Connect, k.Edit, k.Back, k.Copy, k.Save, k.Quit}
	var lines []string
	for _, b := range all {
		lines = append(lines, fmt.Sprintf("%-8s %s", b.Help().Key, b.Help().Desc))
	}
	return helpStyle.Render(strings.Join(lines, "\n"))
}
