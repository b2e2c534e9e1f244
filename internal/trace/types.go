// Package trace reads and writes recorded Blackjack episodes as TOML so they
// can be replayed through a blackjack.Session.
package trace

import "github.com/lox/blackjackviz/internal/blackjack"

// File is a trace file holding any number of episodes.
type File struct {
	Episodes []Episode `toml:"episode"`
}

// Episode is one game: the opening observation, the player's steps and,
// optionally, the dealer's full hand to reveal at the end.
type Episode struct {
	Name        string                `toml:"name,omitempty"`
	Initial     blackjack.Observation `toml:"initial"`
	Steps       []Step                `toml:"step,omitempty"`
	DealerCards []int                 `toml:"dealer_cards,omitempty"`
}

// Step is an action and the observation that followed it.
type Step struct {
	Action     blackjack.Action `toml:"action"`
	PlayerSum  int              `toml:"player_sum"`
	DealerCard int              `toml:"dealer_card"`
	UsableAce  bool             `toml:"usable_ace"`
}

// Observation returns the observation reported after the step
func (s Step) Observation() blackjack.Observation {
	return blackjack.Observation{
		PlayerSum:  s.PlayerSum,
		DealerCard: s.DealerCard,
		UsableAce:  s.UsableAce,
	}
}

// NewStep pairs an action with the observation it produced
func NewStep(action blackjack.Action, obs blackjack.Observation) Step {
	return Step{
		Action:     action,
		PlayerSum:  obs.PlayerSum,
		DealerCard: obs.DealerCard,
		UsableAce:  obs.UsableAce,
	}
}

// Frame is one rendered step of a replay.
type Frame struct {
	Episode int
	Index   int
	// Step is nil for the opening frame.
	Step  *Step
	Table blackjack.Table
}
