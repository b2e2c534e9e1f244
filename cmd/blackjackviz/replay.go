package main

import (
	"fmt"

	"github.com/lox/blackjackviz/internal/render"
	"github.com/lox/blackjackviz/internal/trace"
	"github.com/lox/blackjackviz/internal/tui"
)

// ReplayCmd renders every frame of a trace file.
type ReplayCmd struct {
	Path        string `arg:"" type:"existingfile" help:"TOML trace file"`
	Episode     *int   `short:"e" help:"Replay only this episode (numbered from 1)"`
	Interactive bool   `short:"i" help:"Step through frames in an interactive viewer"`
	Autoplay    bool   `help:"Start the interactive viewer playing"`
}

func (c *ReplayCmd) Run(app *App) error {
	file, err := trace.Load(c.Path)
	if err != nil {
		return err
	}
	app.Logger.Debug("Loaded trace", "path", c.Path, "episodes", len(file.Episodes))

	frames, err := c.frames(app, file)
	if err != nil {
		return err
	}

	terminal, err := app.terminal()
	if err != nil {
		return err
	}

	if c.Interactive {
		interval, err := app.Config.Autoplay()
		if err != nil {
			return err
		}
		return tui.Run(frames, terminal, tui.Options{
			Interval: interval,
			Autoplay: c.Autoplay,
			Logger:   app.Logger,
		})
	}

	for _, f := range frames {
		if _, err := fmt.Fprintf(app.Out, "%s\n%s\n\n", frameTitle(file, f), terminal.Render(render.Layout(f.Table))); err != nil {
			return err
		}
	}
	return nil
}

func (c *ReplayCmd) frames(app *App, file *trace.File) ([]trace.Frame, error) {
	session := app.newSession()
	if c.Episode == nil {
		return trace.ReplayAll(session, file)
	}

	n := *c.Episode
	if n < 1 || n > len(file.Episodes) {
		return nil, fmt.Errorf("episode %d out of range, trace has %d", n, len(file.Episodes))
	}
	return trace.Replay(session, n, file.Episodes[n-1])
}

func frameTitle(file *trace.File, f trace.Frame) string {
	title := fmt.Sprintf("episode %d", f.Episode)
	if name := file.Episodes[f.Episode-1].Name; name != "" {
		title += " (" + name + ")"
	}
	if f.Step == nil {
		return title + ": deal"
	}
	return fmt.Sprintf("%s step %d: %s", title, f.Index, f.Step.Action)
}
