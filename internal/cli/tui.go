package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/flowmap/pkg/graph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailBoxStyle    = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// =============================================================================
// NodeListModel - Interactive node browser
// =============================================================================

// NodeListModel is the bubbletea model of `inspect --interactive`: a
// scrolling node list next to the details of the node under the cursor.
type NodeListModel struct {
	Layout graph.Layout
	Cursor int
	Height int
	Offset int
}

// NewNodeListModel creates a browser over the nodes of l.
func NewNodeListModel(l graph.Layout) NodeListModel {
	return NodeListModel{Layout: l, Height: 15}
}

func (m NodeListModel) Init() tea.Cmd {
	return nil
}

func (m NodeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Layout.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = max(len(m.Layout.Nodes)-1, 0)
			m.Offset = max(m.Cursor-m.Height+1, 0)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m, nil
}

func (m NodeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Nodes"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Layout.Nodes))
	var list strings.Builder
	for i := m.Offset; i < end; i++ {
		n := &m.Layout.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-28s %s", cursor, truncate(n.DisplayLabel(), 28), listDimStyle.Render(n.Placement))
		switch {
		case i == m.Cursor:
			list.WriteString(listSelectedStyle.Render(line))
		case n.IsFogged():
			list.WriteString(listDimStyle.Render(line))
		default:
			list.WriteString(listNormalStyle.Render(line))
		}
		list.WriteString("\n")
	}

	detail := ""
	if m.Cursor < len(m.Layout.Nodes) {
		detail = detailBoxStyle.Render(nodeDetail(&m.Layout.Nodes[m.Cursor]))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list.String(), "  ", detail))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Layout.Nodes))))

	return b.String()
}

// nodeDetail lists the geometry, protocols and connectors of a node.
func nodeDetail(n *graph.Node) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(n.DisplayLabel()))
	b.WriteString("\n")
	if n.Namespace != "" {
		b.WriteString(listDimStyle.Render("namespace " + n.Namespace))
		b.WriteString("\n")
	}
	row := nodeRow(n)
	for i, h := range tableHeaders[1:] {
		fmt.Fprintf(&b, "%-11s %s\n", h, row[i+1])
	}
	fmt.Fprintf(&b, "%-11s %sx%s\n", "Size", fmtNum(n.Width), fmtNum(n.Height))

	if len(n.Protocols) > 0 {
		b.WriteString("\n")
		b.WriteString(StyleHighlight.Render("Protocols"))
		b.WriteString("\n")
	}
	for _, p := range n.Protocols {
		name := p.ID
		if p.Port != 0 {
			name = fmt.Sprintf("%s %s/%d", p.ID, p.L4, p.Port)
		}
		if p.L7 != "" {
			name += " " + p.L7
		}
		fmt.Fprintf(&b, "  %s %s\n", name, listDimStyle.Render("@"+fmtNum(p.Anchor.Y)))
		for _, g := range p.Groups {
			if g.Title != "" {
				fmt.Fprintf(&b, "    %s\n", g.Title)
			}
			for _, f := range g.Functions {
				fmt.Fprintf(&b, "      %s %s\n", f.Name, listDimStyle.Render("@"+fmtNum(f.Anchor.Y)))
			}
		}
		if p.MoreCount > 0 {
			fmt.Fprintf(&b, "    %s\n", listDimStyle.Render(fmt.Sprintf("+%d more", p.MoreCount)))
		}
	}

	if len(n.Connectors) > 0 {
		b.WriteString("\n")
		b.WriteString(StyleHighlight.Render("Connectors"))
		b.WriteString("\n")
	}
	for _, c := range n.Connectors {
		fmt.Fprintf(&b, "  %-5s %s (%s, %s)\n", c.Side, c.Source, fmtNum(c.X), fmtNum(c.Y))
	}
	return strings.TrimRight(b.String(), "\n")
}

// =============================================================================
// Helpers
// =============================================================================

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func fmtNum(f float64) string {
	return fmt.Sprintf("%g", f)
}
