package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/KonstantinBelenko/sexy-parrot/internal/providers/prompt"
)

type interpretRequest struct {
	Text    string                  `json:"text"`
	History []prompt.HistoryMessage `json:"history,omitempty"`
}

type interpretResponse struct {
	Response string `json:"response"`
}

// Interpret runs free-form text through the chat model and returns its reply.
func (a *App) Interpret(w http.ResponseWriter, r *http.Request) {
	var req interpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Text == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "text is required")
		return
	}

	reply, err := a.Interpreter.Interpret(r.Context(), req.Text, req.History)
	if err != nil {
		a.Logger.Error().Err(err).Msg("interpretation failed")
		a.error(w, http.StatusInternalServerError, "interpret_failed", "failed to process request")
		return
	}
	a.json(w, http.StatusOK, interpretResponse{Response: reply})
}
