package main

import (
	"fmt"
	"io"
	rand "math/rand/v2"
	"os"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackviz/internal/blackjack"
	"github.com/lox/blackjackviz/internal/config"
	"github.com/lox/blackjackviz/internal/randutil"
	"github.com/lox/blackjackviz/internal/render"
)

// App is what every subcommand's Run receives.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Out    io.Writer
}

func newApp(cli *CLI) (*App, func(), error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config %s: %w", cli.Config, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, nil, err
	}
	if cli.Seed != nil {
		cfg.Seed = cli.Seed
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	if cli.Debug {
		level = log.DebugLevel
	}

	var logOut io.Writer = os.Stderr
	cleanup := func() {}
	if cli.LogFile != "" {
		f, err := os.OpenFile(cli.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logOut = f
		cleanup = func() { _ = f.Close() }
	}

	return &App{
		Config: cfg,
		Logger: setupLogger(logOut, level),
		Out:    os.Stdout,
	}, cleanup, nil
}

func setupLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
}

// seed returns the configured seed, or a fresh one that is logged so the
// run can be reproduced.
func (a *App) seed() int64 {
	if a.Config.Seed != nil {
		a.Logger.Debug("Using deterministic seed", "seed", *a.Config.Seed)
		return *a.Config.Seed
	}
	seed := rand.Int64()
	a.Logger.Debug("Using random seed", "seed", seed)
	return seed
}

func (a *App) newSession() *blackjack.Session {
	return blackjack.NewSession(randutil.New(a.seed()))
}

func (a *App) terminal() (*render.Terminal, error) {
	profile, err := a.Config.Profile()
	if err != nil {
		return nil, err
	}
	return render.NewTerminal(a.Out, render.Options{
		Profile:   profile,
		CardWidth: a.Config.Display.CardWidth,
	}), nil
}
