// Package blackjack reconstructs a plausible card-level view of a Blackjack
// episode from the aggregated observations exposed by reinforcement-learning
// environments.
//
// An environment only reports (player sum, dealer visible card, usable ace),
// so the actual card identities are lost. Session keeps the per-episode
// bookkeeping needed to turn a sequence of those observations into a hand
// of card symbols that stays visually consistent from one frame to the next.
//
// # Basic Usage
//
//	s := blackjack.NewSession(randutil.New(42))
//	start := blackjack.Observation{PlayerSum: 15, DealerCard: 10, UsableAce: true}
//	table, _ := s.Step(blackjack.StepInput{Prev: start})
//
//	hit := blackjack.Hit
//	next := blackjack.Observation{PlayerSum: 20, DealerCard: 10, UsableAce: true}
//	table, _ = s.Step(blackjack.StepInput{Prev: start, Next: &next, Action: &hit})
//
// The reconstruction is a heuristic. Several card sequences produce the same
// sum transition, and the session simply picks one that matches.
//
// A Session is not safe for concurrent use.
package blackjack
