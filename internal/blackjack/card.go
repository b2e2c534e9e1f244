package blackjack

import "strconv"

// Symbol is the face printed on a card. Suits are not tracked because the
// environment never reports them.
type Symbol string

const (
	Ace   Symbol = "A"
	Two   Symbol = "2"
	Three Symbol = "3"
	Four  Symbol = "4"
	Five  Symbol = "5"
	Six   Symbol = "6"
	Seven Symbol = "7"
	Eight Symbol = "8"
	Nine  Symbol = "9"
	Ten   Symbol = "10"
	Jack  Symbol = "J"
	Queen Symbol = "Q"
	King  Symbol = "K"

	// Unknown is returned for values that do not map to a card.
	Unknown Symbol = "?"
)

// TenSymbols lists every symbol worth ten points.
var TenSymbols = []Symbol{Ten, Jack, Queen, King}

// Value returns the hard value of the symbol: aces count 1, ten-value
// symbols count 10. Unknown symbols are worth 0.
func (s Symbol) Value() int {
	switch s {
	case Ace:
		return 1
	case Ten, Jack, Queen, King:
		return 10
	}
	n, err := strconv.Atoi(string(s))
	if err != nil || n < 2 || n > 9 {
		return 0
	}
	return n
}

// IsAce reports whether the symbol is an ace
func (s Symbol) IsAce() bool { return s == Ace }

// IsTen reports whether the symbol is worth ten points
func (s Symbol) IsTen() bool {
	return s == Ten || s == Jack || s == Queen || s == King
}

// IsRed reports whether the symbol is printed in red. Without suits the
// colour only separates high cards from the rest.
func (s Symbol) IsRed() bool {
	return s.IsAce() || s.IsTen()
}

// Valid reports whether the symbol is a real card face
func (s Symbol) Valid() bool { return s.Value() > 0 }

func (s Symbol) String() string { return string(s) }

// SymbolForValue maps an environment card value to a symbol. Value 10 maps
// to ten, which lets a session keep one ten-value face per episode; 11, 12
// and 13 map to J, Q and K for environments that report full ranks.
func SymbolForValue(v int, ten Symbol) Symbol {
	switch {
	case v == 1:
		return Ace
	case v >= 2 && v <= 9:
		return Symbol(strconv.Itoa(v))
	case v == 10:
		if !ten.IsTen() {
			return Ten
		}
		return ten
	case v == 11:
		return Jack
	case v == 12:
		return Queen
	case v == 13:
		return King
	default:
		return Unknown
	}
}

// cardPoints returns the soft value of an environment card value: aces are
// worth 11 and face cards 10.
func cardPoints(v int) int {
	if v == 1 {
		return 11
	}
	return min(v, 10)
}
