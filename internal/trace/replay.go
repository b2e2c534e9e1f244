package trace

import (
	"fmt"

	"github.com/lox/blackjackviz/internal/blackjack"
)

// Replay runs an episode through s and returns the opening frame followed by
// one frame per step. The dealer hand is revealed on the last frame.
func Replay(s *blackjack.Session, episode int, ep Episode) ([]Frame, error) {
	var opening []int
	if len(ep.Steps) == 0 {
		opening = ep.DealerCards
	}

	table, err := s.Step(blackjack.StepInput{Prev: ep.Initial, DealerCards: opening})
	if err != nil {
		return nil, fmt.Errorf("episode %d opening: %w", episode, err)
	}
	frames := []Frame{{Episode: episode, Table: table}}

	prev := ep.Initial
	for i := range ep.Steps {
		step := ep.Steps[i]
		next := step.Observation()

		var dealer []int
		if i == len(ep.Steps)-1 {
			dealer = ep.DealerCards
		}

		table, err := s.Step(blackjack.StepInput{
			Prev:        prev,
			Next:        &next,
			Action:      &step.Action,
			DealerCards: dealer,
		})
		if err != nil {
			return nil, fmt.Errorf("episode %d step %d: %w", episode, i+1, err)
		}

		frames = append(frames, Frame{Episode: episode, Index: i + 1, Step: &step, Table: table})
		prev = next
	}

	return frames, nil
}

// ReplayAll replays every episode of f in order on one session.
func ReplayAll(s *blackjack.Session, f *File) ([]Frame, error) {
	var frames []Frame
	for i, ep := range f.Episodes {
		epFrames, err := Replay(s, i+1, ep)
		if err != nil {
			return nil, err
		}
		frames = append(frames, epFrames...)
	}
	return frames, nil
}
