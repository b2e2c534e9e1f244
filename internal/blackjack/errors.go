package blackjack

import "errors"

var (
	// ErrNoInitialHand is returned when no two-card hand can produce the
	// requested starting sum.
	ErrNoInitialHand = errors.New("no valid initial hand")

	// ErrImpossibleTransition is returned when a hit observation cannot be
	// explained by drawing a single card.
	ErrImpossibleTransition = errors.New("impossible sum transition")

	// ErrInvalidObservation is returned for sums or dealer cards outside the
	// range a Blackjack environment can report.
	ErrInvalidObservation = errors.New("invalid observation")
)
