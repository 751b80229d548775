// status.go - One-line playback status for terminals

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type trackInfo struct {
	name     string
	composer string
	year     string
	track    int
	tracks   int
	hardware string
}

func (ti trackInfo) title() string {
	s := ti.name
	if ti.composer != "" {
		s += " - " + ti.composer
	}
	if ti.year != "" {
		s += " (" + ti.year + ")"
	}
	return s
}

type statusStyles struct {
	track    lipgloss.Style
	title    lipgloss.Style
	time     lipgloss.Style
	hardware lipgloss.Style
}

// ANSI colours so the line follows the terminal theme.
func newStatusStyles() statusStyles {
	return statusStyles{
		track:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(0)).Background(lipgloss.ANSIColor(3)),
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(6)),
		time:     lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(2)),
		hardware: lipgloss.NewStyle().Faint(true),
	}
}

func formatMs(ms int) string {
	return fmt.Sprintf("%d:%02d", ms/60000, ms/1000%60)
}

// line renders the status for position posMs, cut to width cells. A width
// of 0 or less leaves it uncut.
func (st statusStyles) line(ti trackInfo, posMs, durMs, width int) string {
	clock := formatMs(posMs)
	if durMs > 0 {
		clock += "/" + formatMs(durMs)
	}
	parts := []string{
		st.track.Render(fmt.Sprintf(" %d/%d ", ti.track, ti.tracks)),
		st.time.Render(clock),
		st.hardware.Render(ti.hardware),
		st.title.Render(ti.title()),
	}
	s := strings.Join(parts, " ")
	if width > 0 && lipgloss.Width(s) > width {
		s = lipgloss.NewStyle().MaxWidth(width).Render(s)
	}
	return s
}
