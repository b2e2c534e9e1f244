package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lox/blackjackviz/internal/blackjack"
	"github.com/lox/blackjackviz/internal/render"
)

// RenderCmd draws one frame. Without --action it shows the opening hand for
// the observation; with it the observation is followed by one step.
type RenderCmd struct {
	PlayerSum  int  `required:"" help:"Player sum before the step"`
	DealerCard int  `required:"" help:"Dealer's visible card (1-13)"`
	UsableAce  bool `help:"Player holds a usable ace"`

	Action        string `help:"Action taken (hit or stand)"`
	NextSum       int    `help:"Player sum after the action"`
	NextUsableAce bool   `help:"Usable ace after the action"`
	DealerCards   []int  `help:"Dealer's full hand to reveal"`

	JSON bool `help:"Print the table and layout as JSON"`
}

func (c *RenderCmd) Run(app *App) error {
	in, err := c.steps()
	if err != nil {
		return err
	}

	session := app.newSession()
	var table blackjack.Table
	for _, step := range in {
		if table, err = session.Step(step); err != nil {
			return err
		}
	}

	figure := render.Layout(table)
	if c.JSON {
		enc := json.NewEncoder(app.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Table  blackjack.Table `json:"table"`
			Figure render.Figure   `json:"figure"`
		}{table, figure})
	}

	terminal, err := app.terminal()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(app.Out, terminal.Render(figure))
	return err
}

// steps builds the calls that reproduce the requested frame.
func (c *RenderCmd) steps() ([]blackjack.StepInput, error) {
	prev := blackjack.Observation{
		PlayerSum:  c.PlayerSum,
		DealerCard: c.DealerCard,
		UsableAce:  c.UsableAce,
	}
	if c.Action == "" {
		if c.NextSum != 0 {
			return nil, errors.New("--next-sum needs --action")
		}
		return []blackjack.StepInput{{Prev: prev, DealerCards: c.DealerCards}}, nil
	}

	action, err := blackjack.ParseAction(c.Action)
	if err != nil {
		return nil, err
	}
	next := prev
	if c.NextSum != 0 {
		next.PlayerSum = c.NextSum
		next.UsableAce = c.NextUsableAce
	} else if action == blackjack.Hit {
		return nil, errors.New("--action=hit needs --next-sum")
	}

	return []blackjack.StepInput{
		{Prev: prev},
		{Prev: prev, Next: &next, Action: &action, DealerCards: c.DealerCards},
	}, nil
}
