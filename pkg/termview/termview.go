// Package termview renders chat replies and table rows for the terminal.
package termview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leadcatalyst/leadchat/pkg/controller"
	"github.com/leadcatalyst/leadchat/pkg/table"
)

var (
	Primary     = lipgloss.Color("#6c5ce7")
	Muted       = lipgloss.Color("#8b8a97")
	Destructive = lipgloss.Color("#e53935")
)

type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Body   lipgloss.Style
	Muted  lipgloss.Style
	Error  lipgloss.Style
	Detail lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(Primary),
		Header: lipgloss.NewStyle().Bold(true),
		Body:   lipgloss.NewStyle(),
		Muted:  lipgloss.NewStyle().Foreground(Muted),
		Error:  lipgloss.NewStyle().Bold(true).Foreground(Destructive),
		Detail: lipgloss.NewStyle().Foreground(Muted).PaddingLeft(2),
	}
}

// maxCellWidth keeps a single wide value from pushing the table off screen.
const maxCellWidth = 40

// Table renders rows as a column-aligned text table. Multi-line cells are flattened.
func Table(rows []table.Row, title string, styles Styles) string {
	if len(rows) == 0 {
		return ""
	}
	grid := table.NewGrid(rows)

	cells := make([][]string, len(grid.Cells))
	for i, line := range grid.Cells {
		cells[i] = make([]string, len(line))
		for j, c := range line {
			cells[i][j] = clip(flatten(c), maxCellWidth)
		}
	}

	widths := make([]int, len(grid.Headers))
	for i, h := range grid.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, line := range cells {
		for i, c := range line {
			if w := lipgloss.Width(c); w > widths[i] {
				widths[i] = w
			}
		}
	}
	// lipgloss Width includes padding
	for i := range widths {
		widths[i] += 2
	}

	headerStyle := styles.Header.Padding(0, 1)
	rowStyle := styles.Body.Padding(0, 1)
	sep := styles.Muted.Render("|")

	var sb strings.Builder
	if title != "" {
		sb.WriteString(styles.Title.Render(title))
		sb.WriteString("\n")
	}

	for i, h := range grid.Headers {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(headerStyle.Width(widths[i]).Render(h))
	}
	sb.WriteString("\n")

	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(styles.Muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for _, line := range cells {
		for i, c := range line {
			if i > 0 {
				sb.WriteString(sep)
			}
			sb.WriteString(rowStyle.Width(widths[i]).Render(c))
		}
		sb.WriteString("\n")
	}

	if len(rows) > 10 {
		sb.WriteString(styles.Muted.Render(fmt.Sprintf("Showing %d rows of data.", len(rows))))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Message renders one chat message.
func Message(m controller.ChatMessage, styles Styles) string {
	var sb strings.Builder
	stamp := styles.Muted.Render(m.Timestamp.Format("15:04"))
	switch {
	case m.Error:
		sb.WriteString(styles.Error.Render(m.Text))
	case m.Sender == controller.SenderUser:
		sb.WriteString(styles.Header.Render("> " + m.Text))
	default:
		sb.WriteString(m.Text)
	}
	sb.WriteString(" ")
	sb.WriteString(stamp)
	if m.Detail != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.Detail.Render(m.Detail))
	}
	return sb.String()
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
