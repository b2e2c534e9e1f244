package blackjack

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/blackjackviz/internal/randutil"
)

// InferDrawnCard guesses which card was drawn on a hit from the change in
// the player's state.
//
// An ace that turns the hand soft is always an ace. When a usable ace stops
// being usable its 11 became a 1, so ten points are added back to the
// difference. Ten-value draws reuse a ten-value symbol already in hand when
// there is one, then fall back to the episode's ten symbol.
func InferDrawnCard(rng *rand.Rand, t Transition, hand Hand, ten Symbol) (Symbol, error) {
	if !t.OldUsable && t.NewUsable {
		return Ace, nil
	}

	delta := t.NewSum - t.OldSum
	if t.OldUsable && !t.NewUsable {
		delta += 10
	}

	if delta < 1 {
		return Unknown, fmt.Errorf("%w: %d -> %d (usable %t -> %t)",
			ErrImpossibleTransition, t.OldSum, t.NewSum, t.OldUsable, t.NewUsable)
	}

	if delta >= 10 {
		if tens := hand.Tens(); len(tens) > 0 {
			return randutil.Choice(rng, tens), nil
		}
		return SymbolForValue(10, ten), nil
	}

	return SymbolForValue(delta, ten), nil
}
