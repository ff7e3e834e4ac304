package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles are the lipgloss styles shared by all commands.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusWarning lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles builds styles bound to w. Colors are dropped when w is not a terminal.
func NewStyles(w io.Writer, isTTY bool) *Styles {
	re := lipgloss.NewRenderer(w)
	if !isTTY {
		re.SetColorProfile(termenv.Ascii)
	}

	green := lipgloss.AdaptiveColor{Light: "#1a7f37", Dark: "#3fb950"}
	yellow := lipgloss.AdaptiveColor{Light: "#9a6700", Dark: "#d29922"}
	red := lipgloss.AdaptiveColor{Light: "#cf222e", Dark: "#f85149"}
	blue := lipgloss.AdaptiveColor{Light: "#0969da", Dark: "#58a6ff"}
	gray := lipgloss.AdaptiveColor{Light: "#6e7781", Dark: "#8b949e"}

	return &Styles{
		Header1: re.NewStyle().Bold(true).Foreground(blue).MarginBottom(1),
		Header2: re.NewStyle().Bold(true).Foreground(blue),
		Bold:    re.NewStyle().Bold(true),
		Muted:   re.NewStyle().Foreground(gray),
		Success: re.NewStyle().Foreground(green),
		Warning: re.NewStyle().Foreground(yellow),
		Error:   re.NewStyle().Foreground(red),
		Info:    re.NewStyle().Foreground(blue),

		StatusSuccess: re.NewStyle().Foreground(green).SetString("✓"),
		StatusWarning: re.NewStyle().Foreground(yellow).SetString("!"),
		StatusFailed:  re.NewStyle().Foreground(red).SetString("✗"),
	}
}
