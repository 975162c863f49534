package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"partyquiz-service/internal/app"
	"partyquiz-service/internal/domain"
)

// PollHandler serves plain JSON endpoints for clients without WebSocket
// support. Every state read goes through the same tick-on-touch path as the
// WebSocket loop.
type PollHandler struct {
	service *app.GameService
}

func NewPollHandler(service *app.GameService) *PollHandler {
	return &PollHandler{service: service}
}

// State returns the current snapshot for a quiz, looked up by access code.
func (h *PollHandler) State(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}
	playerID := r.URL.Query().Get("playerId")
	view, err := h.service.StateByCode(r.Context(), code, playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, view)
}

// Recent lists finished quizzes with winners and top scores.
func (h *PollHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, h.service.RecentFinished(limit))
}

// SuggestName returns a generated display name for the join form.
func (h *PollHandler) SuggestName(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"name": h.service.SuggestName()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrOptionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrPhaseClosed),
		errors.Is(err, domain.ErrStaleQuestion):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrEmptyQuiz),
		errors.Is(err, domain.ErrOptionMismatch):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}
