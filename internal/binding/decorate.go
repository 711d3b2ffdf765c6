package binding

import (
	"rowbind/internal/index"

	"github.com/charmbracelet/lipgloss"
)

// Decorator picks the colours of a template for one cell. Hosts replace it to
// change widget-specific colouring without touching the render/edit path.
type Decorator interface {
	Decorate(c index.Component, row, col int, selected bool) Colors
}

type DecoratorFunc func(c index.Component, row, col int, selected bool) Colors

func (f DecoratorFunc) Decorate(c index.Component, row, col int, selected bool) Colors {
	return f(c, row, col, selected)
}

// Striped colours rows by selection first and by row parity otherwise.
type Striped struct {
	Foreground         lipgloss.TerminalColor
	SelectedForeground lipgloss.TerminalColor
	SelectedBackground lipgloss.TerminalColor
	EvenBackground     lipgloss.TerminalColor
	OddBackground      lipgloss.TerminalColor
}

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// DefaultStriped reads well on light and dark terminals.
func DefaultStriped() Striped {
	return Striped{
		Foreground:         ac("235", "252"),
		SelectedForeground: ac("235", "255"),
		SelectedBackground: ac("#e9e9e9", "#262626"),
		EvenBackground:     ac("255", "235"),
		OddBackground:      ac("254", "236"),
	}
}

func (s Striped) Decorate(_ index.Component, row, _ int, selected bool) Colors {
	if selected {
		return Colors{Foreground: s.SelectedForeground, Background: s.SelectedBackground}
	}
	bg := s.EvenBackground
	if row%2 == 1 {
		bg = s.OddBackground
	}
	return Colors{Foreground: s.Foreground, Background: bg}
}
