package main

import (
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Interactively browse a document's parsed element tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			root, err := buildTree(string(data))
			if err != nil {
				return err
			}

			lines := flatten(root, 0)
			p := tea.NewProgram(&inspectModel{lines: lines})
			_, err = p.Run()
			return err
		},
	}
}

// treeLine is one flattened, indented row of the tree for display.
type treeLine struct {
	depth int
	node  *treeNode
}

func flatten(n *treeNode, depth int) []treeLine {
	if n == nil {
		return nil
	}
	lines := []treeLine{{depth: depth, node: n}}
	for _, c := range n.Children {
		lines = append(lines, flatten(c, depth+1)...)
	}
	return lines
}

var (
	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	nsStyle       = lipgloss.NewStyle().Faint(true)
	detailStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

type inspectModel struct {
	lines  []treeLine
	cursor int
}

func (m *inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.lines)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m *inspectModel) View() tea.View {
	var b strings.Builder
	for i, line := range m.lines {
		row := strings.Repeat("  ", line.depth) + line.node.Element
		if line.node.Namespace != "" {
			row += " " + nsStyle.Render("{"+line.node.Namespace+"}")
		}
		if i == m.cursor {
			row = selectedStyle.Render(row)
		}
		b.WriteString(row)
		b.WriteByte('\n')
	}

	selected := m.lines[m.cursor].node
	detail := fmt.Sprintf("element: %s\nnamespace: %s\nattributes: %v\ntext: %q",
		selected.Element, selected.Namespace, selected.Attributes, selected.Text)

	return tea.NewView(b.String() + "\n" + detailStyle.Render(detail) + "\n\n(q to quit, j/k to move)")
}
