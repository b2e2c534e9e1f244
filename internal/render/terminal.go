package render

import (
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/blackjackviz/internal/blackjack"
	"github.com/muesli/termenv"
)

const (
	// DefaultCardWidth is the inner width of a card in cells
	DefaultCardWidth = 7
	minCardWidth     = 4
	cardGap          = 2
	backPattern      = "░"
)

// Options configures a Terminal renderer.
type Options struct {
	// Profile selects the colour depth; termenv.Ascii disables colour.
	Profile   termenv.Profile
	CardWidth int
}

// Terminal draws figures as lipgloss text.
type Terminal struct {
	renderer  *lipgloss.Renderer
	cardWidth int
}

// NewTerminal creates a renderer for output written to w. A nil writer is
// treated as io.Discard.
func NewTerminal(w io.Writer, opts Options) *Terminal {
	if w == nil {
		w = io.Discard
	}
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(opts.Profile)

	width := opts.CardWidth
	if width == 0 {
		width = DefaultCardWidth
	}
	width = max(width, minCardWidth)

	return &Terminal{renderer: r, cardWidth: width}
}

// Plain draws f without colour. Borders and layout are kept.
func Plain(f Figure) string {
	return NewTerminal(io.Discard, Options{Profile: termenv.Ascii}).Render(f)
}

// row is anything drawn on one horizontal band of the canvas.
type row struct {
	y     float64
	label *Label
	cards []Placement
}

// Render draws f top to bottom. Labels and card rows are ordered by their
// canvas height, and cards within a row by x.
func (t *Terminal) Render(f Figure) string {
	styles := NewStyles(t.renderer, backgroundOf(f))

	rows := collectRows(f)
	blocks := make([]string, 0, len(rows)+1)
	width := 0
	for _, r := range rows {
		if r.label != nil {
			width = max(width, lipgloss.Width(r.label.Text))
			continue
		}
		width = max(width, lipgloss.Width(t.cardRow(styles, r.cards)))
	}
	width = max(width, lipgloss.Width(f.Title))

	felt := lipgloss.WithWhitespaceBackground(lipgloss.Color(backgroundOf(f)))
	blocks = append(blocks, styles.Title.Width(width).Align(lipgloss.Center).Render(f.Title))

	for _, r := range rows {
		var block string
		if r.label != nil {
			style := styles.Total
			if r.label.Size >= 14 {
				style = styles.Heading
			}
			block = style.Width(width).Align(lipgloss.Center).Render(r.label.Text)
		} else {
			block = t.renderer.PlaceHorizontal(width, lipgloss.Center, t.cardRow(styles, r.cards), felt)
		}
		blocks = append(blocks, block)
	}

	return styles.Table.Render(lipgloss.JoinVertical(lipgloss.Left, blocks...))
}

func backgroundOf(f Figure) string {
	if f.Background == "" {
		return TableColor
	}
	return f.Background
}

func collectRows(f Figure) []row {
	var rows []row
	for i := range f.Labels {
		rows = append(rows, row{y: f.Labels[i].Y, label: &f.Labels[i]})
	}

	byY := map[float64][]Placement{}
	var ys []float64
	for _, p := range append(append([]Placement{}, f.Dealer...), f.Player...) {
		if _, ok := byY[p.Y]; !ok {
			ys = append(ys, p.Y)
		}
		byY[p.Y] = append(byY[p.Y], p)
	}
	for _, y := range ys {
		cards := byY[y]
		sort.SliceStable(cards, func(i, j int) bool { return cards[i].X < cards[j].X })
		rows = append(rows, row{y: y, cards: cards})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
	return rows
}

func (t *Terminal) cardRow(styles Styles, cards []Placement) string {
	parts := make([]string, 0, 2*len(cards))
	for i, p := range cards {
		if i > 0 {
			parts = append(parts, styles.Total.Render(strings.Repeat(" ", cardGap)))
		}
		parts = append(parts, t.card(styles, p.Card))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// card draws one face: the symbol top-left, large in the centre and again
// bottom-right. Face-down cards show a patterned back.
func (t *Terminal) card(styles Styles, c blackjack.CardFace) string {
	w := t.cardWidth

	if c.Hidden {
		line := styles.Pattern.Render(strings.Repeat(backPattern, w))
		lines := []string{line, line, line, line, line}
		return styles.CardBack.Render(strings.Join(lines, "\n"))
	}

	face := styles.CardBlack
	if c.Symbol.IsRed() {
		face = styles.CardRed
	}
	sym := string(c.Symbol)
	blank := strings.Repeat(" ", w)

	lines := []string{
		face.Render(t.renderer.PlaceHorizontal(w, lipgloss.Left, sym)),
		face.Render(blank),
		face.Render(t.renderer.PlaceHorizontal(w, lipgloss.Center, sym)),
		face.Render(blank),
		face.Render(t.renderer.PlaceHorizontal(w, lipgloss.Right, sym)),
	}

	frame := styles.Card
	if c.Highlight {
		frame = styles.Highlight
	}
	return frame.Render(strings.Join(lines, "\n"))
}
