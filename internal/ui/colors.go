package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/equipx/internal/notify"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#3C9EE7", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	info   lipgloss.Style
	help   lipgloss.Style
	active lipgloss.Style
	muted  lipgloss.Style
}

func NewPalette(t, s, e, w, i, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		info:   NewStyle(i),
		help:   NewEm(h),
		active: NewBold(t).Underline(true),
		muted:  NewStyle(h),
	}
}

// toast picks the style for a toast kind.
func (p *Palette) toast(kind notify.Kind) lipgloss.Style {
	switch kind {
	case notify.Success:
		return p.ok
	case notify.Error:
		return p.err
	case notify.Warning:
		return p.warn
	default:
		return p.info
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
