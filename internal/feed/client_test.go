package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjackviz/internal/blackjack"
	"github.com/lox/blackjackviz/internal/randutil"
	"github.com/lox/blackjackviz/internal/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func ptr[T any](v T) *T { return &v }

func obs(sum, dealer int, ace bool) *blackjack.Observation {
	return &blackjack.Observation{PlayerSum: sum, DealerCard: dealer, UsableAce: ace}
}

func newTestClient(t *testing.T, url string, opts Options) *Client {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = testLogger()
	}
	c, err := NewClient(url, blackjack.NewSession(randutil.New(7)), opts)
	require.NoError(t, err)
	return c
}

// feedServer serves the given raw frames to every connection and then
// closes normally.
func feedServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
		// wait for the client to hang up
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientNormalisesScheme(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"http://localhost:8080/feed":    "ws://localhost:8080/feed",
		"https://example.com/feed":      "wss://example.com/feed",
		"ws://localhost:8080/feed":      "ws://localhost:8080/feed",
		"wss://example.com/feed":        "wss://example.com/feed",
		"//localhost:9000/observations": "ws://localhost:9000/observations",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			c := newTestClient(t, in, Options{})
			assert.Equal(t, want, c.URL())
		})
	}
}

func TestHandleEpisode(t *testing.T) {
	t.Parallel()
	rec := trace.NewRecorder()
	c := newTestClient(t, "ws://unused", Options{Recorder: rec})

	table, err := c.Handle(Message{Type: MessageReset, Observation: obs(13, 10, true)})
	require.NoError(t, err)
	require.Len(t, table.Player, 2)
	assert.Equal(t, 13, table.PlayerHand().Total())
	assert.False(t, table.DealerRevealed)

	table, err = c.Handle(Message{Type: MessageStep, Action: ptr(blackjack.Hit), Observation: obs(16, 10, true)})
	require.NoError(t, err)
	require.Len(t, table.Player, 3)
	drawn, ok := table.Drawn()
	require.True(t, ok)
	assert.Equal(t, blackjack.Symbol("3"), drawn)

	table, err = c.Handle(Message{
		Type:        MessageStep,
		Action:      ptr(blackjack.Stand),
		Observation: obs(16, 10, true),
		DealerCards: []int{10, 9},
	})
	require.NoError(t, err)
	assert.True(t, table.DealerRevealed)
	assert.Equal(t, 19, table.DealerTotal)

	file := rec.File()
	require.Len(t, file.Episodes, 1)
	ep := file.Episodes[0]
	assert.Equal(t, *obs(13, 10, true), ep.Initial)
	assert.Len(t, ep.Steps, 2)
	assert.Equal(t, []int{10, 9}, ep.DealerCards)
	require.NoError(t, file.Validate())
}

func TestHandleRejectsBadMessages(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, "ws://unused", Options{})

	_, err := c.Handle(Message{Type: MessageStep, Action: ptr(blackjack.Hit), Observation: obs(15, 4, false)})
	assert.ErrorContains(t, err, "before reset")

	_, err = c.Handle(Message{Type: MessageReset})
	assert.ErrorContains(t, err, "without observation")

	_, err = c.Handle(Message{Type: "deal", Observation: obs(15, 4, false)})
	assert.ErrorContains(t, err, "unknown message type")

	_, err = c.Handle(Message{Type: MessageReset, Observation: obs(15, 4, false)})
	require.NoError(t, err)

	_, err = c.Handle(Message{Type: MessageStep, Observation: obs(18, 4, false)})
	assert.ErrorContains(t, err, "without action")

	_, err = c.Handle(Message{Type: MessageStep, Action: ptr(blackjack.Hit), Observation: obs(40, 4, false)})
	assert.ErrorIs(t, err, blackjack.ErrInvalidObservation)

	// a failed step leaves the previous observation in place
	table, err := c.Handle(Message{Type: MessageStep, Action: ptr(blackjack.Hit), Observation: obs(20, 4, false)})
	require.NoError(t, err)
	drawn, ok := table.Drawn()
	require.True(t, ok)
	assert.Equal(t, blackjack.Symbol("5"), drawn)
}

func TestHandleNumericActionFlags(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, "ws://unused", Options{})

	frames := []string{
		`{"type":"reset","observation":{"player_sum":14,"dealer_card":8,"usable_ace":false}}`,
		`{"type":"step","action":1,"observation":{"player_sum":17,"dealer_card":8,"usable_ace":false}}`,
		`{"type":"step","action":0,"observation":{"player_sum":17,"dealer_card":8,"usable_ace":false}}`,
	}
	var tables []blackjack.Table
	for _, f := range frames {
		var msg Message
		require.NoError(t, json.Unmarshal([]byte(f), &msg))
		table, err := c.Handle(msg)
		require.NoError(t, err)
		tables = append(tables, table)
	}

	drawn, ok := tables[1].Drawn()
	require.True(t, ok)
	assert.Equal(t, blackjack.Symbol("3"), drawn)
	assert.Len(t, tables[2].Player, 3)
	_, ok = tables[2].Drawn()
	assert.False(t, ok)
}

func TestRecordedTraceReplays(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		msgs     []Message
		episodes int
	}{
		{
			name: "dealer card changes after stand",
			msgs: []Message{
				{Type: MessageReset, Observation: obs(13, 6, false)},
				{Type: MessageStep, Action: ptr(blackjack.Stand), Observation: obs(13, 6, false)},
				{Type: MessageStep, Action: ptr(blackjack.Hit), Observation: obs(14, 9, false)},
			},
			episodes: 2,
		},
		{
			name: "step after reset revealed the dealer",
			msgs: []Message{
				{Type: MessageReset, Observation: obs(15, 4, false), DealerCards: []int{4, 10}},
				{Type: MessageStep, Action: ptr(blackjack.Hit), Observation: obs(18, 4, false)},
			},
			episodes: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := trace.NewRecorder()
			c := newTestClient(t, "ws://unused", Options{Recorder: rec})
			for _, msg := range tt.msgs {
				_, err := c.Handle(msg)
				require.NoError(t, err)
			}

			var buf bytes.Buffer
			require.NoError(t, trace.Encode(&buf, rec.File()))
			file, err := trace.Decode(&buf)
			require.NoError(t, err)
			assert.Len(t, file.Episodes, tt.episodes)

			_, err = trace.ReplayAll(blackjack.NewSession(randutil.New(1)), file)
			require.NoError(t, err)
		})
	}
}

func TestRunStreamsUpdates(t *testing.T) {
	t.Parallel()
	srv := feedServer(t,
		`{"type":"reset","observation":{"player_sum":12,"dealer_card":5,"usable_ace":false}}`,
		`not json`,
		`{"type":"step","action":1,"observation":{"player_sum":19,"dealer_card":5,"usable_ace":false}}`,
		`{"type":"step","action":"stand","observation":{"player_sum":19,"dealer_card":5,"usable_ace":false},"dealer_cards":[5,10,8]}`,
	)

	c := newTestClient(t, srv.URL, Options{})
	var updates []Update
	err := c.Run(context.Background(), func(u Update) error {
		updates = append(updates, u)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, updates, 3)
	assert.Equal(t, MessageReset, updates[0].Message.Type)
	drawn, ok := updates[1].Table.Drawn()
	require.True(t, ok)
	assert.Equal(t, blackjack.Symbol("7"), drawn)
	assert.True(t, updates[2].Table.DealerRevealed)
	assert.Equal(t, 23, updates[2].Table.DealerTotal)
}

func TestRunStopsOnSinkError(t *testing.T) {
	t.Parallel()
	srv := feedServer(t,
		`{"type":"reset","observation":{"player_sum":12,"dealer_card":5,"usable_ace":false}}`,
		`{"type":"step","action":"hit","observation":{"player_sum":19,"dealer_card":5,"usable_ace":false}}`,
	)

	boom := errors.New("boom")
	c := newTestClient(t, srv.URL, Options{Reconnect: true})
	err := c.Run(context.Background(), func(Update) error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestRunDialFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, Options{})
	err := c.Run(context.Background(), func(Update) error { return nil })
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "dialing"))
}

func TestRunReconnectsAfterDelay(t *testing.T) {
	t.Parallel()
	srv := feedServer(t,
		`{"type":"reset","observation":{"player_sum":12,"dealer_card":5,"usable_ace":false}}`,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	trap := mClock.Trap().NewTimer("feed", "reconnect")
	defer trap.Close()

	c := newTestClient(t, srv.URL, Options{
		Reconnect:      true,
		ReconnectDelay: 5 * time.Second,
		Clock:          mClock,
	})

	updates := make(chan Update, 4)
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, func(u Update) error {
			updates <- u
			return nil
		})
	}()

	<-updates
	call := trap.MustWait(ctx)
	assert.Equal(t, 5*time.Second, call.Duration)
	call.MustRelease(ctx)

	mClock.Advance(5 * time.Second).MustWait(ctx)
	select {
	case u := <-updates:
		assert.Equal(t, MessageReset, u.Message.Type)
	case <-ctx.Done():
		t.Fatal("no update after reconnect")
	}

	// second disconnect parks on the timer again; cancelling ends Run
	trap.MustWait(ctx).MustRelease(ctx)
	cancel()
	assert.NoError(t, <-done)
}
