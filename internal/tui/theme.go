package tui

import (
	"strings"

	"rowbind/internal/binding"
	"rowbind/internal/config"

	"github.com/charmbracelet/lipgloss"
)

// Theme/palette helpers.
//
// The grid must remain readable on both light and dark terminal backgrounds,
// so defaults are adaptive colours; config values override them one by one.

var (
	colorMuted  lipgloss.TerminalColor = lipgloss.AdaptiveColor{Light: "240", Dark: "243"}
	colorError  lipgloss.TerminalColor = lipgloss.AdaptiveColor{Light: "160", Dark: "203"}
	headerStyle                        = lipgloss.NewStyle().Bold(true)
	mutedStyle                         = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle                         = lipgloss.NewStyle().Foreground(colorError).Bold(true)
)

func colorOr(s string, d lipgloss.TerminalColor) lipgloss.TerminalColor {
	if s = strings.TrimSpace(s); s != "" {
		return lipgloss.Color(s)
	}
	return d
}

// decoratorFromTheme builds the striped row decorator from config overrides.
func decoratorFromTheme(t config.Theme) binding.Striped {
	d := binding.DefaultStriped()
	d.SelectedForeground = colorOr(t.SelectedFg, d.SelectedForeground)
	d.SelectedBackground = colorOr(t.SelectedBg, d.SelectedBackground)
	d.EvenBackground = colorOr(t.EvenBg, d.EvenBackground)
	d.OddBackground = colorOr(t.OddBg, d.OddBackground)
	return d
}
