package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjackviz/internal/blackjack"
	"github.com/lox/blackjackviz/internal/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultReconnectDelay is the pause between connection attempts
const DefaultReconnectDelay = 2 * time.Second

var errStreamClosed = errors.New("stream closed")

// Sink receives every successfully handled message. A sink error stops the
// client.
type Sink func(Update) error

type sinkError struct{ err error }

func (e *sinkError) Error() string { return fmt.Sprintf("sink: %v", e.err) }
func (e *sinkError) Unwrap() error { return e.err }

// Options configures a Client.
type Options struct {
	// Reconnect keeps dialing after the stream ends until the context is
	// cancelled.
	Reconnect      bool
	ReconnectDelay time.Duration
	Clock          quartz.Clock
	Logger         *log.Logger
	// Recorder, when set, receives every handled observation.
	Recorder *trace.Recorder
	Dialer   *websocket.Dialer
}

// Client reads observation messages and drives a session. Handle is not
// safe for concurrent use; Run calls it from a single goroutine.
type Client struct {
	url     string
	session *blackjack.Session
	opts    Options
	logger  *log.Logger

	prev    blackjack.Observation
	started bool
}

// NewClient creates a client for the WebSocket at serverURL. http and https
// URLs are rewritten to ws and wss.
func NewClient(serverURL string, session *blackjack.Session, opts Options) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	// Ensure WebSocket scheme
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// Already correct
	default:
		u.Scheme = "ws"
	}

	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}

	return &Client{
		url:     u.String(),
		session: session,
		opts:    opts,
		logger:  opts.Logger.WithPrefix("feed"),
	}, nil
}

// URL returns the normalised WebSocket URL
func (c *Client) URL() string { return c.url }

// Run streams messages into sink until the stream ends, the context is
// cancelled or the sink fails. With Reconnect set a dropped stream is
// redialled after ReconnectDelay.
func (c *Client) Run(ctx context.Context, sink Sink) error {
	for {
		err := c.stream(ctx, sink)

		if ctx.Err() != nil {
			return nil
		}
		var se *sinkError
		if errors.As(err, &se) {
			return se
		}
		if !c.opts.Reconnect {
			return err
		}

		if err != nil {
			c.logger.Warn("Stream failed, reconnecting", "error", err, "delay", c.opts.ReconnectDelay)
		} else {
			c.logger.Info("Stream ended, reconnecting", "delay", c.opts.ReconnectDelay)
		}

		timer := c.opts.Clock.NewTimer(c.opts.ReconnectDelay, "feed", "reconnect")
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// stream handles one connection.
func (c *Client) stream(ctx context.Context, sink Sink) error {
	c.logger.Info("Connecting", "url", c.url)
	conn, _, err := c.opts.Dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.url, err)
	}
	defer conn.Close()

	msgs := make(chan Message)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		_ = conn.Close() // unblocks the reader
		return nil
	})

	g.Go(func() error {
		defer close(msgs)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return errStreamClosed
				}
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return fmt.Errorf("reading message: %w", err)
			}

			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				c.logger.Warn("Dropping malformed message", "error", err)
				continue
			}

			select {
			case msgs <- msg:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		for msg := range msgs {
			table, err := c.Handle(msg)
			if err != nil {
				c.logger.Warn("Skipping message", "type", msg.Type, "error", err)
				continue
			}
			if err := sink(Update{Message: msg, Table: table}); err != nil {
				return &sinkError{err: err}
			}
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, errStreamClosed) {
		c.logger.Info("Stream closed by server")
		return nil
	}
	return err
}

// Handle applies one message to the session.
func (c *Client) Handle(msg Message) (blackjack.Table, error) {
	if msg.Observation == nil {
		return blackjack.Table{}, fmt.Errorf("%s message without observation", msg.Type)
	}
	obs := *msg.Observation

	switch msg.Type {
	case MessageReset:
		table, err := c.session.Step(blackjack.StepInput{Prev: obs, DealerCards: msg.DealerCards})
		if err != nil {
			return blackjack.Table{}, err
		}
		c.prev, c.started = obs, true
		if r := c.opts.Recorder; r != nil {
			r.Start(obs)
			if msg.DealerCards != nil {
				r.Finish(msg.DealerCards)
			}
		}
		return table, nil

	case MessageStep:
		if !c.started {
			return blackjack.Table{}, errors.New("step message before reset")
		}
		if msg.Action == nil {
			return blackjack.Table{}, errors.New("step message without action")
		}
		table, err := c.session.Step(blackjack.StepInput{
			Prev:        c.prev,
			Next:        &obs,
			Action:      msg.Action,
			DealerCards: msg.DealerCards,
		})
		if err != nil {
			return blackjack.Table{}, err
		}
		c.prev = obs
		if r := c.opts.Recorder; r != nil {
			r.Record(*msg.Action, obs)
			if msg.DealerCards != nil {
				r.Finish(msg.DealerCards)
			}
		}
		return table, nil

	default:
		return blackjack.Table{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
}
