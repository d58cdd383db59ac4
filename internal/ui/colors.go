package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/recipebox/internal/prefs"
)

var palettes = map[string]*Palette{
	prefs.Light: NewPalette("#5A3FC0", "#027A48", "#C0262D", "#B54708", "#667085"),
	prefs.Dark:  NewPalette("#7D56F4", "#04B575", "#FF5F5F", "#FFA500", "#626262"),
}

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title    lipgloss.Style
	ok       lipgloss.Style
	err      lipgloss.Style
	warn     lipgloss.Style
	help     lipgloss.Style
	cell     lipgloss.Style
	selected lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	border := lipgloss.RoundedBorder()
	return &Palette{
		title:    NewBold(t).MarginBottom(1),
		ok:       NewBold(s),
		err:      NewBold(e),
		warn:     NewStyle(w),
		help:     NewEm(h),
		cell:     lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color(h)).Padding(0, 1),
		selected: lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color(t)).Padding(0, 1).Bold(true),
	}
}

// PaletteFor returns the palette for theme, falling back to the default theme.
func PaletteFor(theme string) *Palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[prefs.Theme.Default()]
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
