package blackjack

import (
	"fmt"
	rand "math/rand/v2"
	"slices"

	"github.com/lox/blackjackviz/internal/randutil"
)

// Session carries the card history of the episode being rendered. It is
// reset whenever the dealer's visible card changes, which is how a new
// episode shows up in the observation stream.
type Session struct {
	rng        *rand.Rand
	hand       Hand
	dealerCard int // 0 until the first observation
	ten        Symbol
}

// NewSession creates a session drawing its guesses from rng. A nil rng is
// seeded from the runtime's random source.
func NewSession(rng *rand.Rand) *Session {
	if rng == nil {
		rng = randutil.New(rand.Int64())
	}
	s := &Session{rng: rng}
	s.Reset()
	return s
}

// Reset forgets the current episode and picks a new ten-value symbol.
func (s *Session) Reset() {
	s.hand = nil
	s.dealerCard = 0
	s.ten = randutil.Choice(s.rng, TenSymbols)
}

// Hand returns a copy of the player's reconstructed hand
func (s *Session) Hand() Hand { return slices.Clone(s.hand) }

// DealerCard returns the last seen dealer card, or 0 before any observation
func (s *Session) DealerCard() int { return s.dealerCard }

// TenSymbol returns the ten-value face used for this episode
func (s *Session) TenSymbol() Symbol { return s.ten }

// Observe records obs and returns the table to draw. When the dealer card
// differs from the previous observation a fresh two-card hand is generated
// and drawn is ignored; otherwise a non-empty drawn symbol is appended and
// highlighted. Non-nil dealerCards reveal the full dealer hand.
func (s *Session) Observe(obs Observation, drawn Symbol, dealerCards []int) (Table, error) {
	if err := obs.Validate(); err != nil {
		return Table{}, err
	}
	for _, c := range dealerCards {
		if err := validateDealerCard(c); err != nil {
			return Table{}, err
		}
	}

	highlight := false
	if s.dealerCard != obs.DealerCard {
		s.Reset()
		hand, err := InitialHand(s.rng, obs.PlayerSum, obs.UsableAce, s.ten)
		if err != nil {
			return Table{}, err
		}
		s.hand = hand
		s.dealerCard = obs.DealerCard
	} else if drawn != "" {
		if !drawn.Valid() {
			return Table{}, fmt.Errorf("%w: drawn card %q", ErrInvalidObservation, drawn)
		}
		s.hand = append(s.hand, drawn)
		highlight = true
	}

	return s.table(obs, dealerCards, highlight), nil
}

// StepInput describes one rendering call. Next and Action are nil for the
// first frame of an episode.
type StepInput struct {
	Prev        Observation
	Next        *Observation
	Action      *Action
	DealerCards []int
}

// Step advances the session by one environment step and returns the table
// for the resulting state.
//
// Without Next or Action the session starts a new episode from Prev. A hit
// infers the drawn card and highlights it. A stand only redraws. Dealer
// cards, when supplied, are revealed; otherwise the hole card stays face
// down even on terminal states.
func (s *Session) Step(in StepInput) (Table, error) {
	if in.Next == nil || in.Action == nil {
		s.Reset()
		return s.Observe(in.Prev, "", in.DealerCards)
	}

	next := *in.Next
	switch *in.Action {
	case Hit:
		if s.dealerCard != next.DealerCard {
			// New episode: the initial hand replaces any inferred draw.
			return s.Observe(next, "", in.DealerCards)
		}
		drawn, err := InferDrawnCard(s.rng, TransitionBetween(in.Prev, next), s.hand, s.ten)
		if err != nil {
			return Table{}, fmt.Errorf("inferring drawn card: %w", err)
		}
		return s.Observe(next, drawn, in.DealerCards)
	case Stand:
		return s.Observe(next, "", in.DealerCards)
	default:
		return Table{}, fmt.Errorf("unknown action %d", int(*in.Action))
	}
}

func (s *Session) table(obs Observation, dealerCards []int, highlight bool) Table {
	t := Table{
		PlayerSum: obs.PlayerSum,
		UsableAce: obs.UsableAce,
	}

	if dealerCards == nil {
		t.Dealer = []CardFace{
			{Symbol: SymbolForValue(obs.DealerCard, s.ten)},
			{Hidden: true},
		}
		t.DealerTotal = VisibleDealerTotal(obs.DealerCard)
	} else {
		t.DealerRevealed = true
		t.Dealer = make([]CardFace, len(dealerCards))
		for i, c := range dealerCards {
			t.Dealer[i] = CardFace{Symbol: SymbolForValue(c, s.ten)}
		}
		t.DealerTotal = DealerTotal(dealerCards)
	}

	t.Player = make([]CardFace, len(s.hand))
	for i, sym := range s.hand {
		t.Player[i] = CardFace{Symbol: sym}
	}
	if highlight && len(t.Player) > 0 {
		t.Player[len(t.Player)-1].Highlight = true
	}

	return t
}
