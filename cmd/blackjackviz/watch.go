package main

import (
	"fmt"
	"time"

	"github.com/lox/blackjackviz/internal/feed"
	"github.com/lox/blackjackviz/internal/render"
	"github.com/lox/blackjackviz/internal/trace"
)

// WatchCmd follows a live observation feed.
type WatchCmd struct {
	URL            string        `arg:"" help:"WebSocket URL of the observation feed"`
	Record         string        `type:"path" help:"Save received episodes to this TOML trace file on exit"`
	NoReconnect    bool          `help:"Exit when the stream ends instead of redialling"`
	ReconnectDelay time.Duration `default:"2s" help:"Delay between connection attempts"`
}

func (c *WatchCmd) Run(app *App) error {
	terminal, err := app.terminal()
	if err != nil {
		return err
	}

	var recorder *trace.Recorder
	if c.Record != "" {
		recorder = trace.NewRecorder()
	}

	client, err := feed.NewClient(c.URL, app.newSession(), feed.Options{
		Reconnect:      !c.NoReconnect,
		ReconnectDelay: c.ReconnectDelay,
		Logger:         app.Logger,
		Recorder:       recorder,
	})
	if err != nil {
		return err
	}

	ctx, cancel := setupSignalHandler(app.Logger)
	defer cancel()

	runErr := client.Run(ctx, func(u feed.Update) error {
		_, err := fmt.Fprintf(app.Out, "%s\n%s\n\n", describeUpdate(u), terminal.Render(render.Layout(u.Table)))
		return err
	})

	if recorder != nil {
		file := recorder.File()
		if err := trace.Save(c.Record, file); err != nil {
			return fmt.Errorf("saving trace: %w", err)
		}
		app.Logger.Info("Saved trace", "path", c.Record, "episodes", len(file.Episodes))
	}
	return runErr
}

func describeUpdate(u feed.Update) string {
	if u.Message.Type == feed.MessageReset {
		return fmt.Sprintf("reset %s", u.Message.Observation)
	}
	return fmt.Sprintf("%s -> %s", u.Message.Action, u.Message.Observation)
}
