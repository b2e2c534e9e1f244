package blackjack

import "strings"

// Hand is an ordered sequence of card symbols, oldest first.
type Hand []Symbol

func (h Hand) hard() (total, aces int) {
	for _, s := range h {
		total += s.Value()
		if s.IsAce() {
			aces++
		}
	}
	return total, aces
}

// Total returns the best Blackjack total: one ace counts 11 when that does
// not bust the hand, every other ace counts 1.
func (h Hand) Total() int {
	total, aces := h.hard()
	if aces > 0 && total+10 <= 21 {
		total += 10
	}
	return total
}

// Soft reports whether the hand holds a usable ace
func (h Hand) Soft() bool {
	total, aces := h.hard()
	return aces > 0 && total+10 <= 21
}

// Tens returns the ten-value symbols in the hand in the order they were drawn.
func (h Hand) Tens() []Symbol {
	var tens []Symbol
	for _, s := range h {
		if s.IsTen() {
			tens = append(tens, s)
		}
	}
	return tens
}

func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, s := range h {
		parts[i] = string(s)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// DealerTotal scores a revealed dealer hand given as environment card values.
// Aces start at 11 and are downgraded to 1 one at a time while the total
// exceeds 21.
func DealerTotal(cards []int) int {
	total, aces := 0, 0
	for _, c := range cards {
		total += cardPoints(c)
		if c == 1 {
			aces++
		}
	}

	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}

	return total
}

// VisibleDealerTotal scores the single face-up dealer card.
func VisibleDealerTotal(card int) int {
	return cardPoints(card)
}
