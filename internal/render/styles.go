package render

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used to draw a figure.
type Styles struct {
	Table     lipgloss.Style
	Title     lipgloss.Style
	Heading   lipgloss.Style
	Total     lipgloss.Style
	CardRed   lipgloss.Style
	CardBlack lipgloss.Style
	Card      lipgloss.Style
	Highlight lipgloss.Style
	CardBack  lipgloss.Style
	Pattern   lipgloss.Style
}

// NewStyles builds the styles on r so colour output follows the renderer's
// profile.
func NewStyles(r *lipgloss.Renderer, background string) Styles {
	felt := lipgloss.Color(background)
	return Styles{
		Table: r.NewStyle().
			Background(felt).
			Padding(1, 2),
		Title: r.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(felt).
			Bold(true),
		Heading: r.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(felt).
			Bold(true),
		Total: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(felt),
		CardRed: r.NewStyle().
			Foreground(lipgloss.Color("#D00000")).
			Background(lipgloss.Color("#FFFFFF")).
			Bold(true),
		CardBlack: r.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#FFFFFF")).
			Bold(true),
		Card: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#FFFFFF")),
		Highlight: r.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("#FFD700")).
			Background(lipgloss.Color("#FFFFFF")),
		CardBack: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#222222")),
		Pattern: r.NewStyle().
			Foreground(lipgloss.Color("#8B0000")).
			Background(lipgloss.Color("#222222")),
	}
}
