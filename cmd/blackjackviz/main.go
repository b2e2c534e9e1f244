package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lox/blackjackviz/internal/config"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Config  string `short:"c" default:"${config_file}" env:"BLACKJACKVIZ_CONFIG" help:"HCL configuration file"`
	Debug   bool   `help:"Enable debug logging"`
	LogFile string `type:"path" help:"Write logs to this file instead of stderr"`
	Seed    *int64 `help:"Deterministic RNG seed for card guesses (overrides config)"`

	Render  RenderCmd  `cmd:"" help:"Render a single observation or step"`
	Replay  ReplayCmd  `cmd:"" help:"Replay a TOML trace file"`
	Watch   WatchCmd   `cmd:"" help:"Render observations streamed over a WebSocket"`
	Serve   ServeCmd   `cmd:"" help:"Run the HTTP render service"`
	Version VersionCmd `cmd:"" help:"Show version"`
}

func main() {
	// Values from .env become defaults for BLACKJACKVIZ_* variables
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjackviz"),
		kong.Description("Draw Blackjack tables from environment observations"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version":     version,
			"config_file": config.DefaultFile,
		},
	)

	app, cleanup, err := newApp(&cli)
	ctx.FatalIfErrorf(err)
	defer cleanup()

	err = ctx.Run(app)
	if err != nil {
		app.Logger.Error("Command failed", "error", err)
		cleanup()
		os.Exit(1)
	}
}
