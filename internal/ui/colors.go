package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/nowplaying/internal/notify"
)

var styles = NewPalette("#FF7AB6", "#04B575", "#FF5F5F", "#FFA500", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title     lipgloss.Style
	ok        lipgloss.Style
	err       lipgloss.Style
	warn      lipgloss.Style
	help      lipgloss.Style
	tab       lipgloss.Style
	activeTab lipgloss.Style
	bar       lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:     NewBold(t).MarginBottom(1),
		ok:        NewBold(s),
		err:       NewBold(e),
		warn:      NewStyle(w),
		help:      NewEm(h),
		tab:       NewStyle(h).Padding(0, 1),
		activeTab: NewBold(t).Padding(0, 1).Underline(true),
		bar:       lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderTop(true).BorderForeground(lipgloss.Color(h)),
	}
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

// toastStyle picks the style for a toast of kind k.
func (p *Palette) toastStyle(k notify.Kind) lipgloss.Style {
	switch k {
	case notify.Success:
		return p.ok
	case notify.Error:
		return p.err
	default:
		return p.warn
	}
}
