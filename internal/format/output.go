package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// Grid is tabular CLI output. In json format it is written as a list of
// objects keyed by header.
type Grid struct {
	Headers []string
	Rows    [][]string
}

func (g Grid) records() []map[string]string {
	out := make([]map[string]string, 0, len(g.Rows))
	for _, r := range g.Rows {
		m := make(map[string]string, len(g.Headers))
		for i, h := range g.Headers {
			if i < len(r) {
				m[h] = r[i]
			}
		}
		out = append(out, m)
	}
	return out
}

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - table (Grid values only; anything else falls back to json)
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		if g, ok := v.(Grid); ok {
			return WriteJSON(w, g.records(), pretty)
		}
		return WriteJSON(w, v, pretty)
	case "table":
		if g, ok := v.(Grid); ok {
			return WriteTable(w, g)
		}
		return WriteJSON(w, v, pretty)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

// maxCellWidth caps a column so one long name does not push the rest off screen.
const maxCellWidth = 40

// WriteTable writes g as space-aligned columns.
func WriteTable(w io.Writer, g Grid) error {
	widths := make([]int, len(g.Headers))
	for i, h := range g.Headers {
		widths[i] = xansi.StringWidth(h)
	}
	for _, r := range g.Rows {
		for i := range widths {
			if i < len(r) {
				widths[i] = max(widths[i], min(xansi.StringWidth(r[i]), maxCellWidth))
			}
		}
	}

	line := func(cells []string) string {
		parts := make([]string, len(widths))
		for i, wd := range widths {
			c := ""
			if i < len(cells) {
				c = cells[i]
			}
			parts[i] = pad(c, wd)
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	if _, err := fmt.Fprintln(w, line(g.Headers)); err != nil {
		return err
	}
	for _, r := range g.Rows {
		if _, err := fmt.Fprintln(w, line(r)); err != nil {
			return err
		}
	}
	return nil
}

func pad(s string, width int) string {
	sw := xansi.StringWidth(s)
	if sw > width {
		return xansi.Truncate(s, width, "…")
	}
	return s + strings.Repeat(" ", width-sw)
}
