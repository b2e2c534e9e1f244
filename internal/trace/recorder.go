package trace

import "github.com/lox/blackjackviz/internal/blackjack"

// Recorder builds a File from a live stream of observations.
type Recorder struct {
	file    File
	current *Episode
}

// NewRecorder returns an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Start opens a new episode, closing any episode in progress.
func (r *Recorder) Start(obs blackjack.Observation) {
	r.flush()
	r.current = &Episode{Initial: obs}
}

// Record appends a step to the open episode. A step that cannot continue
// it starts a new episode from obs instead, matching how a session resets:
// no episode is open, the dealer card changed, or the player already stood.
// The recorded file therefore always validates.
func (r *Recorder) Record(action blackjack.Action, obs blackjack.Observation) {
	if r.current == nil || r.last().DealerCard != obs.DealerCard || r.stood() {
		r.Start(obs)
		return
	}
	r.current.Steps = append(r.current.Steps, NewStep(action, obs))
}

func (r *Recorder) last() blackjack.Observation {
	if n := len(r.current.Steps); n > 0 {
		return r.current.Steps[n-1].Observation()
	}
	return r.current.Initial
}

func (r *Recorder) stood() bool {
	n := len(r.current.Steps)
	return n > 0 && r.current.Steps[n-1].Action == blackjack.Stand
}

// Finish closes the open episode with the dealer's revealed cards.
func (r *Recorder) Finish(dealerCards []int) {
	if r.current == nil {
		return
	}
	r.current.DealerCards = append([]int(nil), dealerCards...)
	r.flush()
}

// File returns everything recorded so far, including the open episode.
func (r *Recorder) File() *File {
	out := File{Episodes: append([]Episode(nil), r.file.Episodes...)}
	if r.current != nil {
		out.Episodes = append(out.Episodes, *r.current)
	}
	return &out
}

func (r *Recorder) flush() {
	if r.current != nil {
		r.file.Episodes = append(r.file.Episodes, *r.current)
		r.current = nil
	}
}
