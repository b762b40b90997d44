package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/creamcroissant/fpbrowser/internal/domain"
)

var (
	// Colors
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#22C55E")
	colorWarning = lipgloss.Color("#F59E0B")
	colorDanger  = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")

	// Status indicators
	styleOnline = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	styleOffline = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	// Progress bar styles
	styleProgressFilled = lipgloss.NewStyle().
				Foreground(colorSuccess)

	styleProgressEmpty = lipgloss.NewStyle().
				Foreground(colorMuted)
)

// palette 是随主题切换的样式集合。
type palette struct {
	header      lipgloss.Style
	tableHeader lipgloss.Style
	row         lipgloss.Style
	rowSelected lipgloss.Style
	detailBox   lipgloss.Style
	label       lipgloss.Style
	value       lipgloss.Style
	help        lipgloss.Style
}

// paletteFor 按主题构造样式。system 沿用深色。
func paletteFor(theme string) palette {
	fg, selBg := lipgloss.Color("#FFFFFF"), lipgloss.Color("#1F2937")
	if theme == "light" {
		fg, selBg = lipgloss.Color("#111827"), lipgloss.Color("#E5E7EB")
	}
	return palette{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 1),
		tableHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 1),
		row: lipgloss.NewStyle().
			Padding(0, 1),
		rowSelected: lipgloss.NewStyle().
			Background(selBg).
			Foreground(fg).
			Padding(0, 1),
		detailBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2),
		label: lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(18),
		value: lipgloss.NewStyle().
			Foreground(fg),
		help: lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1),
	}
}

// ProfileStatusIcon returns a colored status indicator for a profile.
func ProfileStatusIcon(status domain.ProfileStatus) string {
	switch status {
	case domain.StatusRunning:
		return styleOnline.Render("● Running")
	case domain.StatusLaunching:
		return styleWarning.Render("◐ Launching")
	case domain.StatusStopping:
		return styleWarning.Render("◑ Stopping")
	case domain.StatusError:
		return styleOffline.Render("✕ Error")
	case domain.StatusStopped:
		return styleMuted.Render("○ Stopped")
	default:
		return styleMuted.Render("? Unknown")
	}
}

// ProxyStatusIcon returns a colored status indicator for a proxy.
func ProxyStatusIcon(status domain.ProxyStatus) string {
	switch status {
	case domain.ProxyActive:
		return styleOnline.Render("●")
	case domain.ProxyPending:
		return styleWarning.Render("◐")
	case domain.ProxyError:
		return styleOffline.Render("✕")
	case domain.ProxyExpired:
		return styleOffline.Render("○")
	default:
		return styleMuted.Render("?")
	}
}

// ProgressBar renders a simple progress bar
func ProgressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(float64(width) * percent / 100)
	return styleProgressFilled.Render(strings.Repeat("█", filled)) +
		styleProgressEmpty.Render(strings.Repeat("░", width-filled))
}
