// Package theme turns the configured colors into lipgloss styles, adjusting
// foregrounds for contrast against the detected terminal background.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/b/device-console/pkg/config"
)

const minContrast = 4.5

// Palette holds every style the console and its panels draw with.
type Palette struct {
	Dark bool

	Panel       lipgloss.Style // unfocused panel frame
	PanelFocus  lipgloss.Style // focused panel frame
	Title       lipgloss.Style
	Muted       lipgloss.Style
	Error       lipgloss.Style
	Selected    lipgloss.Style
	Button      lipgloss.Style // toggle button while its panel is hidden
	ButtonOn    lipgloss.Style // toggle button while its panel is visible
	StatusStrip lipgloss.Style
	Header      lipgloss.Style
}

// New builds a palette from cfg. mode "auto" probes the terminal.
func New(cfg config.Theme) Palette {
	return build(cfg, IsDark(cfg.Mode))
}

func build(cfg config.Theme, dark bool) Palette {
	canvas := "#ffffff"
	text := "#1e1e1e"
	if dark {
		canvas = "#1e1e1e"
		text = "#dcdcdc"
	}
	accent := EnsureContrast(cfg.Accent, canvas, 3.0)
	border := EnsureContrast(cfg.BorderFg, canvas, 1.5)
	focus := EnsureContrast(cfg.FocusFg, canvas, 3.0)
	errFg := EnsureContrast(cfg.ErrorFg, canvas, minContrast)
	muted := shade(text, 0.35, !dark)

	return Palette{
		Dark: dark,
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(border)),
		PanelFocus: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(focus)),
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent)),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color(muted)),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color(errFg)),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(TextFor(accent))).Background(lipgloss.Color(accent)),
		Button: lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color(EnsureContrast(text, cfg.ButtonBg, minContrast))).
			Background(lipgloss.Color(cfg.ButtonBg)),
		ButtonOn: lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(lipgloss.Color(TextFor(accent))).
			Background(lipgloss.Color(accent)),
		StatusStrip: lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color(TextFor(cfg.StatusStrip))).
			Background(lipgloss.Color(cfg.StatusStrip)),
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(text)),
	}
}

// Fixed returns a palette for an explicit background, skipping detection.
func Fixed(cfg config.Theme, dark bool) Palette {
	return build(cfg, dark)
}
