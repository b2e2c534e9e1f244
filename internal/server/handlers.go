package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lox/blackjackviz/internal/blackjack"
	"github.com/lox/blackjackviz/internal/render"
)

// maxBodyBytes bounds request bodies; a step is a few hundred bytes.
const maxBodyBytes = 64 << 10

type createSessionRequest struct {
	Seed *int64 `json:"seed,omitempty"`
}

type createSessionResponse struct {
	ID string `json:"id"`
}

type sessionResponse struct {
	ID         string             `json:"id"`
	Created    time.Time          `json:"created"`
	Steps      int                `json:"steps"`
	Hand       []blackjack.Symbol `json:"hand"`
	DealerCard int                `json:"dealer_card"`
	TenSymbol  blackjack.Symbol   `json:"ten_symbol"`
}

// StepRequest is the body of POST /sessions/{id}/steps. Next and Action are
// omitted for the first frame of an episode.
type StepRequest struct {
	Prev        blackjack.Observation  `json:"prev"`
	Next        *blackjack.Observation `json:"next,omitempty"`
	Action      *blackjack.Action      `json:"action,omitempty"`
	DealerCards []int                  `json:"dealer_cards,omitempty"`
}

// StepResponse carries the rendered frame in every form the server knows.
type StepResponse struct {
	Table  blackjack.Table `json:"table"`
	Figure render.Figure   `json:"figure"`
	Text   string          `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	id := s.createSession(req.Seed)
	s.logger.Info("Session created", "id", id, "sessions", s.SessionCount())
	s.writeJSON(w, http.StatusCreated, createSessionResponse{ID: id.String()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, entry, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	entry.mu.Lock()
	resp := sessionResponse{
		ID:         id.String(),
		Created:    entry.created,
		Steps:      entry.steps,
		Hand:       entry.session.Hand(),
		DealerCard: entry.session.DealerCard(),
		TenSymbol:  entry.session.TenSymbol(),
	}
	entry.mu.Unlock()

	if resp.Hand == nil {
		resp.Hand = []blackjack.Symbol{}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil || !s.deleteSession(id) {
		s.writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	s.logger.Info("Session deleted", "id", id, "sessions", s.SessionCount())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	id, entry, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req StepRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	entry.mu.Lock()
	table, err := entry.session.Step(blackjack.StepInput{
		Prev:        req.Prev,
		Next:        req.Next,
		Action:      req.Action,
		DealerCards: req.DealerCards,
	})
	if err == nil {
		entry.steps++
	}
	entry.mu.Unlock()

	if err != nil {
		status := http.StatusInternalServerError
		if isValidationError(err) {
			status = http.StatusUnprocessableEntity
		}
		s.logger.Warn("Step rejected", "id", id, "error", err)
		s.writeError(w, status, err)
		return
	}

	figure := render.Layout(table)
	s.writeJSON(w, http.StatusOK, StepResponse{
		Table:  table,
		Figure: figure,
		Text:   render.Plain(figure),
	})
}

func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, *sessionEntry, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, errors.New("session not found"))
		return uuid.Nil, nil, false
	}
	entry, ok := s.lookup(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.New("session not found"))
		return uuid.Nil, nil, false
	}
	return id, entry, true
}

func isValidationError(err error) bool {
	return errors.Is(err, blackjack.ErrInvalidObservation) ||
		errors.Is(err, blackjack.ErrNoInitialHand) ||
		errors.Is(err, blackjack.ErrImpossibleTransition)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
