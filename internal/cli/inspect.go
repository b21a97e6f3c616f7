package cli

import (
	"context"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/graph"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		fromLayout  bool
		interactive bool
		noCache     bool
		flags       *layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "inspect [endpoints.yaml | layout.json]",
		Short: "Summarize the nodes of a layout",
		Long: `Summarize the nodes of a layout: placement, level, row, weight,
visibility and connectors.

With --interactive, browse the nodes and their protocols in the terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(c.Config.LayoutOptions())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			l, _, err := c.loadLayout(ctx, runner, args[0], opts, fromLayout)
			if err != nil {
				return err
			}
			if interactive {
				return runNodeBrowser(ctx, l)
			}
			fmt.Println(nodeTable(l))
			printStats(len(l.Nodes), len(l.Edges), false)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromLayout, "from-layout", false, "read a layout.json instead of an endpoint file")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse nodes interactively")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	flags = newLayoutFlags(cmd)

	return cmd
}

var tableHeaders = []string{"Node", "Placement", "Level", "Row", "Weight", "Visibility", "Type", "X", "Y", "Conn"}

// nodeRow formats one table row.
func nodeRow(n *graph.Node) []string {
	weight := "—"
	if n.Weight != nil {
		weight = strconv.Itoa(*n.Weight)
	}
	typ := n.ConnectionType
	if typ == "" {
		typ = n.Type
	}
	if typ == "" {
		typ = "—"
	}
	return []string{
		n.DisplayLabel(),
		n.Placement,
		strconv.Itoa(n.Level),
		strconv.Itoa(n.Row),
		weight,
		n.Visibility,
		typ,
		strconv.FormatFloat(n.X, 'f', -1, 64),
		strconv.FormatFloat(n.Y, 'f', -1, 64),
		strconv.Itoa(len(n.Connectors)),
	}
}

// nodeTable renders every node of l as a bordered table.
func nodeTable(l graph.Layout) string {
	rows := make([][]string, len(l.Nodes))
	for i := range l.Nodes {
		rows[i] = nodeRow(&l.Nodes[i])
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(tableHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row < 0 || row >= len(l.Nodes) {
				return lipgloss.NewStyle()
			}
			n := &l.Nodes[row]
			switch {
			case n.IsFogged():
				return lipgloss.NewStyle().Foreground(colorDim)
			case col == 0 && n.Outside:
				return lipgloss.NewStyle().Foreground(colorYellow)
			case col == 0:
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

func runNodeBrowser(ctx context.Context, l graph.Layout) error {
	if len(l.Nodes) == 0 {
		printInfo("Layout has no nodes")
		return nil
	}
	_, err := tea.NewProgram(NewNodeListModel(l), tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}
