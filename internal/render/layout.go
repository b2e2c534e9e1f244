// Package render lays out a blackjack.Table on a normalized canvas and draws
// the result in a terminal.
package render

import (
	"fmt"

	"github.com/lox/blackjackviz/internal/blackjack"
)

// TableColor is the felt green behind every figure.
const TableColor = "#076324"

// Fixed positions on the 0..1 canvas, y grows upwards.
const (
	dealerLabelY = 0.93
	dealerTotalY = 0.85
	dealerCardsY = 0.80
	playerLabelY = 0.55
	playerTotalY = 0.50

	singleRowY = 0.30
	topRowY    = 0.35
	bottomRowY = 0.15

	rowStartX = 0.2
	rowEndX   = 0.8

	hiddenVisibleX = 0.35
	hiddenHoleX    = 0.65

	// maxSingleRow is the largest player hand drawn on one row
	maxSingleRow = 3
)

// Label is a line of text centred on (X, Y).
type Label struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
	Size int     `json:"size"`
}

// Placement puts a card face centred on (X, Y).
type Placement struct {
	X    float64            `json:"x"`
	Y    float64            `json:"y"`
	Card blackjack.CardFace `json:"card"`
}

// Figure is a laid-out frame, independent of how it is drawn.
type Figure struct {
	Title      string      `json:"title"`
	Background string      `json:"background"`
	Labels     []Label     `json:"labels"`
	Dealer     []Placement `json:"dealer"`
	Player     []Placement `json:"player"`
}

// Layout positions the dealer and player sections of t.
func Layout(t blackjack.Table) Figure {
	f := Figure{
		Title:      "BLACKJACK",
		Background: TableColor,
		Labels: []Label{
			{X: 0.5, Y: dealerLabelY, Text: "Dealer", Size: 14},
			{X: 0.5, Y: dealerTotalY, Text: fmt.Sprintf("Dealer Total: %d", t.DealerTotal), Size: 12},
			{X: 0.5, Y: playerLabelY, Text: "Player", Size: 14},
			{X: 0.5, Y: playerTotalY, Text: playerTotalText(t), Size: 12},
		},
	}

	if !t.DealerRevealed && len(t.Dealer) == 2 {
		f.Dealer = []Placement{
			{X: hiddenVisibleX, Y: dealerCardsY, Card: t.Dealer[0]},
			{X: hiddenHoleX, Y: dealerCardsY, Card: t.Dealer[1]},
		}
	} else {
		xs := linspace(rowStartX, rowEndX, len(t.Dealer))
		for i, c := range t.Dealer {
			f.Dealer = append(f.Dealer, Placement{X: xs[i], Y: dealerCardsY, Card: c})
		}
	}

	f.Player = layoutPlayer(t.Player)
	return f
}

func playerTotalText(t blackjack.Table) string {
	text := fmt.Sprintf("Total: %d", t.PlayerSum)
	if t.UsableAce {
		text += " (usable ace)"
	}
	return text
}

// layoutPlayer uses one row for small hands and splits larger ones over two
// rows, the top row taking the extra card.
func layoutPlayer(cards []blackjack.CardFace) []Placement {
	n := len(cards)
	if n == 0 {
		return nil
	}

	var xs, ys []float64
	if n <= maxSingleRow {
		xs = linspace(rowStartX, rowEndX, n)
		ys = repeat(singleRowY, n)
	} else {
		top := n/2 + n%2
		xs = append(linspace(rowStartX, rowEndX, top), linspace(rowStartX, rowEndX, n-top)...)
		ys = append(repeat(topRowY, top), repeat(bottomRowY, n-top)...)
	}

	placements := make([]Placement, n)
	for i, c := range cards {
		placements[i] = Placement{X: xs[i], Y: ys[i], Card: c}
	}
	return placements
}

// linspace returns n evenly spaced values over [start, stop]. A single value
// sits at start.
func linspace(start, stop float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	out[n-1] = stop
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
