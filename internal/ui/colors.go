package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/ytbot/internal/formatter"
	"github.com/desertthunder/ytbot/internal/models"
)

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

// DefaultPalette is the console stylesheet.
func DefaultPalette() *Palette {
	return NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")
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

func (p *Palette) Title(s string) string { return p.title.Render(s) }
func (p *Palette) OK(s string) string    { return p.ok.Render("✓ " + s) }
func (p *Palette) Err(s string) string   { return p.err.Render("✗ " + s) }
func (p *Palette) Warn(s string) string  { return p.warn.Render(s) }
func (p *Palette) Help(s string) string  { return p.help.Render(s) }

// Error renders err's message, or nothing for a nil error.
func (p *Palette) Error(err error) string {
	if err == nil {
		return ""
	}
	return p.Err(err.Error())
}

// Queue lists the queue like [formatter.QueueText] with the current track highlighted.
func (p *Palette) Queue(st models.QueueState, state string) string {
	if len(st.Items) == 0 {
		return p.Warn(formatter.QueueText(st, state))
	}

	lines := strings.Split(formatter.QueueText(st, state), "\n")
	if st.CurrentIndex >= 0 && st.CurrentIndex < len(lines) {
		lines[st.CurrentIndex] = p.ok.Render(lines[st.CurrentIndex])
	}
	return strings.Join(lines, "\n")
}

// NowPlaying is the line printed when a track starts.
func (p *Palette) NowPlaying(d models.Descriptor) string {
	return fmt.Sprintf("%s %s", p.Title("Now playing:"), d)
}
