package main

import (
	"context"
	"net"
	"time"

	"github.com/lox/blackjackviz/internal/server"
)

// ServeCmd runs the HTTP render service
type ServeCmd struct {
	Addr string `help:"Listen address (overrides server block in config)"`
}

func (c *ServeCmd) Run(app *App) error {
	addr := c.Addr
	if addr == "" {
		addr = app.Config.ListenAddr()
	}

	ttl, err := app.Config.SessionTTL()
	if err != nil {
		return err
	}
	opts := []server.Option{server.WithSessionTTL(ttl)}
	if app.Config.Seed != nil {
		app.Logger.Info("Using deterministic seed", "seed", *app.Config.Seed)
		opts = append(opts, server.WithSeed(*app.Config.Seed))
	}
	s := server.NewServer(app.Logger, opts...)

	// Setup graceful shutdown
	ctx, cancel := setupSignalHandler(app.Logger)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.Start(addr)
	}()

	go func() {
		url := baseURL(addr)
		readyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := server.WaitForHealthy(readyCtx, url); err != nil {
			app.Logger.Warn("Render server did not become healthy", "url", url, "error", err)
			return
		}
		app.Logger.Info("Render server ready", "url", url)
	}()

	select {
	case <-ctx.Done():
		app.Logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// baseURL turns a listen address into a URL a local client can reach.
func baseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
