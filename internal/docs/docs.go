package docs

import (
	"embed"
	"strings"

	"github.com/charmbracelet/glamour"
)

//go:embed content/*.md
var contentFS embed.FS

// Topics lists the embedded topic names in file name order.
func Topics() []string {
	entries, _ := contentFS.ReadDir("content")
	topics := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".md"); ok && name != "" {
			topics = append(topics, name)
		}
	}
	return topics
}

func Get(topic string) (string, bool) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return "", false
	}
	b, err := contentFS.ReadFile("content/" + topic + ".md")
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Render formats md for a terminal of the given width. style is a glamour
// standard style name ("dark", "light", "notty", ...).
func Render(md string, width int, style string) (string, error) {
	if width < 20 {
		width = 20
	}
	if style == "" {
		style = "dark"
	}
	// Avoid WithAutoStyle(): it queries the terminal and can block.
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
