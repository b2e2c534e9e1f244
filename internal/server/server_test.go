package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjackviz/internal/blackjack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp createSessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func TestServerHealth(t *testing.T) {
	t.Parallel()
	srv := NewServer(testLogger())

	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	srv := NewServer(testLogger(), WithSeed(42))

	id := createSession(t, srv)
	assert.Equal(t, 1, srv.SessionCount())

	rec := do(t, srv, http.MethodPost, "/sessions/"+id+"/steps",
		`{"prev":{"player_sum":15,"dealer_card":6,"usable_ace":true}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var first StepResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&first))
	assert.Equal(t, blackjack.Hand{"A", "4"}, first.Table.PlayerHand())
	assert.False(t, first.Table.DealerRevealed)
	assert.Equal(t, "BLACKJACK", first.Figure.Title)
	assert.Contains(t, first.Text, "Total: 15 (usable ace)")

	rec = do(t, srv, http.MethodPost, "/sessions/"+id+"/steps", `{
		"prev":{"player_sum":15,"dealer_card":6,"usable_ace":true},
		"next":{"player_sum":20,"dealer_card":6,"usable_ace":true},
		"action":"hit"
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var second StepResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&second))
	assert.Equal(t, blackjack.Hand{"A", "4", "5"}, second.Table.PlayerHand())
	drawn, ok := second.Table.Drawn()
	require.True(t, ok)
	assert.Equal(t, blackjack.Symbol("5"), drawn)

	rec = do(t, srv, http.MethodPost, "/sessions/"+id+"/steps", `{
		"prev":{"player_sum":20,"dealer_card":6,"usable_ace":true},
		"next":{"player_sum":20,"dealer_card":6,"usable_ace":true},
		"action":"stand",
		"dealer_cards":[6,10,5]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var third StepResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&third))
	assert.True(t, third.Table.DealerRevealed)
	assert.Equal(t, 21, third.Table.DealerTotal)
	assert.Len(t, third.Table.Player, 3)

	rec = do(t, srv, http.MethodGet, "/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var info sessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, 3, info.Steps)
	assert.Equal(t, []blackjack.Symbol{"A", "4", "5"}, info.Hand)
	assert.Equal(t, 6, info.DealerCard)

	rec = do(t, srv, http.MethodDelete, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, srv.SessionCount())

	rec = do(t, srv, http.MethodDelete, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSeededSessionsMatch(t *testing.T) {
	t.Parallel()
	srv := NewServer(testLogger())

	body := `{"prev":{"player_sum":14,"dealer_card":3,"usable_ace":false}}`
	var hands []blackjack.Hand
	for range 2 {
		rec := do(t, srv, http.MethodPost, "/sessions", `{"seed":7}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		var created createSessionResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

		rec = do(t, srv, http.MethodPost, "/sessions/"+created.ID+"/steps", body)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp StepResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		hands = append(hands, resp.Table.PlayerHand())
	}
	assert.Equal(t, hands[0], hands[1])
	assert.Equal(t, 14, hands[0].Total())
}

func TestStepErrors(t *testing.T) {
	t.Parallel()
	srv := NewServer(testLogger(), WithSeed(1))
	id := createSession(t, srv)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		errMsg string
	}{
		{
			name:   "unknown session",
			path:   "/sessions/7d0c3f0e-8f57-4b8e-a5b4-0c1c8f2b9d11/steps",
			body:   `{"prev":{"player_sum":12,"dealer_card":2}}`,
			status: http.StatusNotFound,
			errMsg: "session not found",
		},
		{
			name:   "malformed id",
			path:   "/sessions/not-a-uuid/steps",
			body:   `{"prev":{"player_sum":12,"dealer_card":2}}`,
			status: http.StatusNotFound,
			errMsg: "session not found",
		},
		{
			name:   "bad json",
			path:   "/sessions/" + id + "/steps",
			body:   `{"prev":`,
			status: http.StatusBadRequest,
			errMsg: "invalid request body",
		},
		{
			name:   "unknown field",
			path:   "/sessions/" + id + "/steps",
			body:   `{"previous":{"player_sum":12,"dealer_card":2}}`,
			status: http.StatusBadRequest,
			errMsg: "invalid request body",
		},
		{
			name:   "bad action",
			path:   "/sessions/" + id + "/steps",
			body:   `{"prev":{"player_sum":12,"dealer_card":2},"next":{"player_sum":14,"dealer_card":2},"action":"double"}`,
			status: http.StatusBadRequest,
			errMsg: "invalid request body",
		},
		{
			name:   "player sum out of range",
			path:   "/sessions/" + id + "/steps",
			body:   `{"prev":{"player_sum":40,"dealer_card":2}}`,
			status: http.StatusUnprocessableEntity,
			errMsg: "invalid observation",
		},
		{
			name:   "no initial hand",
			path:   "/sessions/" + id + "/steps",
			body:   `{"prev":{"player_sum":3,"dealer_card":2}}`,
			status: http.StatusUnprocessableEntity,
			errMsg: "no valid initial hand",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var resp errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Contains(t, resp.Error, tt.errMsg)
		})
	}
}

func TestImpossibleTransitionRejected(t *testing.T) {
	t.Parallel()
	srv := NewServer(testLogger(), WithSeed(3))
	id := createSession(t, srv)

	rec := do(t, srv, http.MethodPost, "/sessions/"+id+"/steps",
		`{"prev":{"player_sum":15,"dealer_card":9}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodPost, "/sessions/"+id+"/steps", `{
		"prev":{"player_sum":15,"dealer_card":9},
		"next":{"player_sum":13,"dealer_card":9},
		"action":"hit"
	}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "impossible")
}

func TestServeAndShutdown(t *testing.T) {
	t.Parallel()
	srv := NewServer(testLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, WaitForHealthy(ctx, "http://"+ln.Addr().String()))

	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-done)
}

func TestStepAcceptsNumericActionFlags(t *testing.T) {
	t.Parallel()
	srv := NewServer(testLogger(), WithSeed(5))
	id := createSession(t, srv)

	rec := do(t, srv, http.MethodPost, "/sessions/"+id+"/steps",
		`{"prev":{"player_sum":14,"dealer_card":8,"usable_ace":false}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/sessions/"+id+"/steps", `{
		"prev":{"player_sum":14,"dealer_card":8,"usable_ace":false},
		"next":{"player_sum":17,"dealer_card":8,"usable_ace":false},
		"action":1
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var hit StepResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&hit))
	drawn, ok := hit.Table.Drawn()
	require.True(t, ok)
	assert.Equal(t, blackjack.Symbol("3"), drawn)

	rec = do(t, srv, http.MethodPost, "/sessions/"+id+"/steps", `{
		"prev":{"player_sum":17,"dealer_card":8,"usable_ace":false},
		"next":{"player_sum":17,"dealer_card":8,"usable_ace":false},
		"action":0,
		"dealer_cards":[8,9]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stand StepResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stand))
	assert.Len(t, stand.Table.Player, 3)
	assert.True(t, stand.Table.DealerRevealed)
	assert.Equal(t, 17, stand.Table.DealerTotal)
}

func TestSweepIdleDropsStaleSessions(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	srv := NewServer(testLogger(), WithClock(mClock), WithSessionTTL(time.Minute))

	stale := createSession(t, srv)
	fresh := createSession(t, srv)

	mClock.Advance(40 * time.Second).MustWait(ctx)
	rec := do(t, srv, http.MethodGet, "/sessions/"+fresh, "")
	require.Equal(t, http.StatusOK, rec.Code)

	mClock.Advance(30 * time.Second).MustWait(ctx)
	assert.Equal(t, 1, srv.SweepIdle())
	assert.Equal(t, 1, srv.SessionCount())

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/sessions/"+stale, "").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/sessions/"+fresh, "").Code)
}

func TestSweepIdleDisabled(t *testing.T) {
	t.Parallel()
	mClock := quartz.NewMock(t)
	srv := NewServer(testLogger(), WithClock(mClock), WithSessionTTL(0))
	createSession(t, srv)

	mClock.Advance(24 * time.Hour)
	assert.Equal(t, 0, srv.SweepIdle())
	assert.Equal(t, 1, srv.SessionCount())
}

func TestSweeperRunsWhileServing(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	trap := mClock.Trap().TickerFunc("server", "sweep")
	defer trap.Close()

	srv := NewServer(testLogger(), WithClock(mClock), WithSessionTTL(time.Minute))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	call := trap.MustWait(ctx)
	assert.Equal(t, 15*time.Second, call.Duration)
	call.MustRelease(ctx)

	createSession(t, srv)
	for range 4 {
		mClock.Advance(15 * time.Second).MustWait(ctx)
	}
	// idle for exactly the TTL is kept
	assert.Equal(t, 1, srv.SessionCount())

	mClock.Advance(15 * time.Second).MustWait(ctx)
	assert.Equal(t, 0, srv.SessionCount())

	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-done)
}

func TestShutdownBeforeServe(t *testing.T) {
	t.Parallel()
	srv := NewServer(testLogger())
	require.NoError(t, srv.Shutdown(context.Background()))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve kept running after Shutdown")
	}

	// the listener was released
	_, err = net.Dial("tcp", ln.Addr().String())
	assert.Error(t, err)
}
