package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/sp2yt/internal/tasks"
)

var styles = NewPalette(Theme{
	Accent:  "#7D56F4",
	Success: "#04B575",
	Error:   "#FF0000",
	Warning: "#FFA500",
	Muted:   "#626262",
})

// Theme names the colors a [Palette] is built from.
type Theme struct {
	Accent  string
	Success string
	Error   string
	Warning string
	Muted   string
}

// Palette maps conversion events and screen elements to [lipgloss.Style] values.
type Palette struct {
	title lipgloss.Style
	step  lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	muted lipgloss.Style
	link  lipgloss.Style
}

func NewPalette(t Theme) *Palette {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return &Palette{
		title: fg(t.Accent).Bold(true).MarginBottom(1),
		step:  fg(t.Accent),
		ok:    fg(t.Success).Bold(true),
		err:   fg(t.Error).Bold(true),
		warn:  fg(t.Warning),
		muted: fg(t.Muted).Italic(true),
		link:  fg(t.Accent).Underline(true),
	}
}

// event styles a progress line by its kind. Track step headers use the accent color.
func (p *Palette) event(u tasks.ProgressUpdate) string {
	switch u.Kind {
	case tasks.Warning:
		return p.warn.Render(u.Message)
	case tasks.Fatal:
		return p.err.Render(u.Message)
	case tasks.Summary:
		return p.ok.Render(u.Message)
	}
	if u.Phase == tasks.PerTrackLoop && u.Step > 0 {
		return p.step.Render(u.Message)
	}
	return p.muted.Render(u.Message)
}
