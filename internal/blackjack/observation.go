package blackjack

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Observation is the tuple a Blackjack environment reports each step.
type Observation struct {
	PlayerSum  int  `json:"player_sum" toml:"player_sum"`
	DealerCard int  `json:"dealer_card" toml:"dealer_card"`
	UsableAce  bool `json:"usable_ace" toml:"usable_ace"`
}

const (
	minPlayerSum = 2
	// maxPlayerSum is a hard 21 plus a ten, the largest bust an environment
	// can report.
	maxPlayerSum = 31
)

// Validate checks that the observation is something an environment could
// have produced.
func (o Observation) Validate() error {
	if o.PlayerSum < minPlayerSum || o.PlayerSum > maxPlayerSum {
		return fmt.Errorf("%w: player sum %d", ErrInvalidObservation, o.PlayerSum)
	}
	if o.UsableAce && o.PlayerSum > 21 {
		return fmt.Errorf("%w: usable ace with sum %d", ErrInvalidObservation, o.PlayerSum)
	}
	if err := validateDealerCard(o.DealerCard); err != nil {
		return err
	}
	return nil
}

func validateDealerCard(card int) error {
	if card < 1 || card > 13 {
		return fmt.Errorf("%w: dealer card %d", ErrInvalidObservation, card)
	}
	return nil
}

func (o Observation) String() string {
	return fmt.Sprintf("(%d, %d, %t)", o.PlayerSum, o.DealerCard, o.UsableAce)
}

// Action is the player decision between two observations.
type Action int

const (
	Stand Action = iota
	Hit
)

func (a Action) String() string {
	switch a {
	case Stand:
		return "stand"
	case Hit:
		return "hit"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ParseAction accepts the names and numeric codes environments use.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stand", "stick", "s", "0":
		return Stand, nil
	case "hit", "h", "1":
		return Hit, nil
	default:
		return 0, fmt.Errorf("unknown action %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (a Action) MarshalText() ([]byte, error) {
	if a != Stand && a != Hit {
		return nil, fmt.Errorf("unknown action %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// UnmarshalJSON accepts the action as a name or as the 0/1 flag
// environments report.
func (a *Action) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		text = name
	}
	return a.UnmarshalText([]byte(text))
}

// Transition is the change in player state across one hit.
type Transition struct {
	OldSum    int
	NewSum    int
	OldUsable bool
	NewUsable bool
}

// TransitionBetween builds the transition from two observations
func TransitionBetween(prev, next Observation) Transition {
	return Transition{
		OldSum:    prev.PlayerSum,
		NewSum:    next.PlayerSum,
		OldUsable: prev.UsableAce,
		NewUsable: next.UsableAce,
	}
}
