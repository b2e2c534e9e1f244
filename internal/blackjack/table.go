package blackjack

// CardFace is one card as it should be drawn.
type CardFace struct {
	Symbol    Symbol `json:"symbol,omitempty"`
	Hidden    bool   `json:"hidden,omitempty"`
	Highlight bool   `json:"highlight,omitempty"`
}

// Table is a snapshot of everything a renderer needs for one frame.
type Table struct {
	Dealer         []CardFace `json:"dealer"`
	DealerTotal    int        `json:"dealer_total"`
	DealerRevealed bool       `json:"dealer_revealed"`

	Player    []CardFace `json:"player"`
	PlayerSum int        `json:"player_sum"`
	UsableAce bool       `json:"usable_ace"`
}

// PlayerHand returns the player's symbols without presentation flags.
func (t Table) PlayerHand() Hand {
	h := make(Hand, len(t.Player))
	for i, c := range t.Player {
		h[i] = c.Symbol
	}
	return h
}

// Drawn returns the highlighted player card, if any.
func (t Table) Drawn() (Symbol, bool) {
	if n := len(t.Player); n > 0 && t.Player[n-1].Highlight {
		return t.Player[n-1].Symbol, true
	}
	return "", false
}
