package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Format is an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an --output value.
func ParseFormat(v string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(v))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json or yaml)", v)
	}
}

// Render writes v as JSON or YAML, or calls table for the table format.
func Render(w io.Writer, v any, table func(io.Writer) error) error {
	switch OutputFormat() {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return table(w)
	}
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#25D366"))
	inactiveStyle = lipgloss.NewStyle().Faint(true)
)

// Header renders a section title.
func Header(s string) string {
	return headerStyle.Render(s)
}

// StatusBadge renders an active/inactive marker.
func StatusBadge(active bool) string {
	if active {
		return activeStyle.Render("[on] ")
	}
	return inactiveStyle.Render("[off]")
}

// Table writes aligned rows. The first row is the header.
func Table(w io.Writer, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	for r, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			if i < len(row)-1 && i < len(widths) {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)))
			}
		}
		line := b.String()
		if r == 0 {
			line = Header(line)
		}
		fmt.Fprintln(w, line)
	}
}
