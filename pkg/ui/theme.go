package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/kanban/pkg/classify"
	"github.com/vanderheijden86/kanban/pkg/model"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so tinted chip backgrounds are dropped
// rather than down-converted into something louder than the text.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// chipColors is the foreground and tinted background of a tag chip.
type chipColors struct {
	Fg lipgloss.AdaptiveColor
	Bg string
}

type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor

	// Column header glyph colors
	Backlog    lipgloss.AdaptiveColor
	Todo       lipgloss.AdaptiveColor
	InProgress lipgloss.AdaptiveColor
	Done       lipgloss.AdaptiveColor

	// Cards
	Border     lipgloss.AdaptiveColor
	Glow       lipgloss.AdaptiveColor
	DueSoon    lipgloss.AdaptiveColor
	DueBadgeBg string
	DropTarget lipgloss.AdaptiveColor

	chips map[classify.ColorToken]chipColors

	// Pre-computed styles
	Base       lipgloss.Style
	MutedText  lipgloss.Style
	Title      lipgloss.Style
	Toolbar    lipgloss.Style
	StatusOK   lipgloss.Style
	StatusErr  lipgloss.Style
	Separator  lipgloss.Style
	DragGhost  lipgloss.Style
	HeaderText lipgloss.Style
}

// DefaultTheme returns the dark-first board palette (adaptive for light terminals).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6B7280"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#9CA3AF"},
		Text:      lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#E5E7EB"},

		Backlog:    lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Todo:       lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		InProgress: lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"},
		Done:       lipgloss.AdaptiveColor{Light: "#7E22CE", Dark: "#C084FC"},

		Border:     lipgloss.AdaptiveColor{Light: "#BBBBBB", Dark: "#525252"},
		Glow:       lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"},
		DueSoon:    lipgloss.AdaptiveColor{Light: "#A16207", Dark: "#EAB308"},
		DueBadgeBg: "#2E2E2E",
		DropTarget: lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"},

		chips: map[classify.ColorToken]chipColors{
			classify.ColorRed:     {lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#EF4444"}, "#3A1A1A"},
			classify.ColorBlue:    {lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#3B82F6"}, "#172540"},
			classify.ColorPurple:  {lipgloss.AdaptiveColor{Light: "#7E22CE", Dark: "#A855F7"}, "#2B1A40"},
			classify.ColorOrange:  {lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#F97316"}, "#3A2414"},
			classify.ColorGreen:   {lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#22C55E"}, "#143322"},
			classify.ColorNeutral: {lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#9CA3AF"}, "#262A30"},
		},
	}

	t.Base = r.NewStyle().Foreground(t.Text)
	t.MutedText = r.NewStyle().Foreground(t.Secondary)
	t.Title = r.NewStyle().Foreground(t.Text).Bold(true)
	t.Toolbar = r.NewStyle().Foreground(t.Subtext).Padding(0, 1)
	t.StatusOK = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#22C55E"})
	t.StatusErr = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#EF4444"})
	t.Separator = r.NewStyle().Foreground(t.Border)
	t.DragGhost = r.NewStyle().Faint(true)
	t.HeaderText = r.NewStyle().Foreground(t.Text).Bold(true)

	return t
}

// ChipStyle returns the style for a tag chip of the given palette token.
// Unknown tokens fall back to the neutral chip.
func (t Theme) ChipStyle(token classify.ColorToken) lipgloss.Style {
	c, ok := t.chips[token]
	if !ok {
		c = t.chips[classify.ColorNeutral]
	}
	return t.Renderer.NewStyle().Foreground(c.Fg).Background(ThemeBg(c.Bg))
}

// IconGlyph returns the single-cell glyph painted for an icon kind.
func IconGlyph(k classify.IconKind) string {
	switch k {
	case classify.IconBug:
		return "✗"
	case classify.IconFeature:
		return "↯"
	case classify.IconDocumentation:
		return "≡"
	case classify.IconPerformance:
		return "⚙"
	case classify.IconUIUX:
		return "◧"
	default:
		return "○"
	}
}

// ColumnGlyph returns the status glyph and its color for a column header.
func (t Theme) ColumnGlyph(id model.ColumnID) (string, lipgloss.AdaptiveColor) {
	switch id {
	case model.ColumnInProgress:
		return "◐", t.InProgress
	case model.ColumnDone:
		return "✓", t.Done
	case model.ColumnTodo:
		return "○", t.Todo
	default:
		return "○", t.Backlog
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
