package blackjack

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/blackjackviz/internal/randutil"
)

// InitialHand generates a two-card hand that totals sum. With usableAce the
// hand is an ace plus whatever card makes up the rest; otherwise a pair of
// non-ace cards is chosen uniformly among those that fit.
func InitialHand(rng *rand.Rand, sum int, usableAce bool, ten Symbol) (Hand, error) {
	if usableAce {
		other := sum - 11
		if other < 1 || other > 10 {
			return nil, fmt.Errorf("%w: sum %d with usable ace", ErrNoInitialHand, sum)
		}
		return Hand{Ace, SymbolForValue(other, ten)}, nil
	}

	var pairs [][2]int
	for a := 2; a <= 10; a++ {
		if b := sum - a; b >= 2 && b <= 10 {
			pairs = append(pairs, [2]int{a, b})
		}
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: sum %d without ace", ErrNoInitialHand, sum)
	}

	pair := randutil.Choice(rng, pairs)
	return Hand{SymbolForValue(pair[0], ten), SymbolForValue(pair[1], ten)}, nil
}
