// Package feed follows a live stream of Blackjack observations over a
// WebSocket and turns each message into a table to render.
package feed

import "github.com/lox/blackjackviz/internal/blackjack"

// Message types
const (
	// MessageReset starts a new episode from Observation
	MessageReset = "reset"

	// MessageStep reports the observation that followed Action
	MessageStep = "step"
)

// Message is one JSON frame sent by an environment.
//
//	{"type":"reset","observation":{"player_sum":15,"dealer_card":10,"usable_ace":true}}
//	{"type":"step","action":"hit","observation":{"player_sum":20,"dealer_card":10,"usable_ace":true}}
//	{"type":"step","action":"stand","observation":{...},"dealer_cards":[10,7]}
type Message struct {
	Type        string                 `json:"type"`
	Observation *blackjack.Observation `json:"observation,omitempty"`
	Action      *blackjack.Action      `json:"action,omitempty"`
	DealerCards []int                  `json:"dealer_cards,omitempty"`
}

// Update is a handled message together with the table it produced.
type Update struct {
	Message Message
	Table   blackjack.Table
}
