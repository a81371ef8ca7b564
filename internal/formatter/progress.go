package formatter

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/sp2yt/internal/tasks"
)

var (
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	fatalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
)

// ProgressLine renders one conversion event as a terminal line.
//
// Plain lines are exactly the event message. Colored lines style the message by event kind.
func ProgressLine(u tasks.ProgressUpdate, color bool) string {
	if !color {
		return u.Message
	}

	switch u.Kind {
	case tasks.Warning:
		return warnStyle.Render(u.Message)
	case tasks.Fatal:
		return fatalStyle.Render(u.Message)
	case tasks.Summary:
		return summaryStyle.Render(u.Message)
	case tasks.Info:
		if u.Phase == tasks.PerTrackLoop && u.Step > 0 {
			return stepStyle.Render(u.Message)
		}
	}
	return u.Message
}

// ProgressWriter prints conversion events to w, one per line.
//
// When raw is false the end-of-stream marker is not printed.
type ProgressWriter struct {
	w     io.Writer
	color bool
	raw   bool
	err   error
}

// NewProgressWriter creates a [tasks.Reporter] that writes to w.
func NewProgressWriter(w io.Writer, color, raw bool) *ProgressWriter {
	return &ProgressWriter{w: w, color: color && !raw, raw: raw}
}

func (p *ProgressWriter) Report(u tasks.ProgressUpdate) {
	if p.err != nil {
		return
	}
	if u.Kind == tasks.Done && !p.raw {
		return
	}
	_, p.err = fmt.Fprintln(p.w, ProgressLine(u, p.color))
}

// Err returns the first write error, if any.
func (p *ProgressWriter) Err() error {
	return p.err
}
