// Package web exposes the REST and websocket surface of the campaign
// manager over the standard library mux.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/chronique-jdr/chronique/internal/auth"
	"github.com/chronique-jdr/chronique/internal/game/combat"
	"github.com/chronique-jdr/chronique/internal/storage/postgres"
)

// errorResponse is the JSON body for every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes payload with the given status. A nil payload writes the
// status line only.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError maps a service error onto its HTTP status. Sentinel errors
// carry the taxonomy; anything unrecognised is a 500 and gets logged.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		respondJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, combat.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, postgres.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, combat.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, combat.ErrNotFound),
		errors.Is(err, postgres.ErrAccountNotFound),
		errors.Is(err, postgres.ErrCampaignNotFound),
		errors.Is(err, postgres.ErrCharacterNotFound),
		errors.Is(err, postgres.ErrItemNotFound),
		errors.Is(err, postgres.ErrArticleNotFound),
		errors.Is(err, postgres.ErrCombatNotFound):
		return http.StatusNotFound
	case errors.Is(err, combat.ErrAlreadyRolled),
		errors.Is(err, combat.ErrConflict),
		errors.Is(err, combat.ErrInvalidCombatState),
		errors.Is(err, postgres.ErrAccountExists),
		errors.Is(err, postgres.ErrAlreadyMember),
		errors.Is(err, postgres.ErrCharacterNameTaken),
		errors.Is(err, postgres.ErrItemExists),
		errors.Is(err, postgres.ErrSlugTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON parses the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", combat.ErrValidation)
	}
	return nil
}

// invalid wraps a model validation failure into the 400 family.
func invalid(err error) error {
	return fmt.Errorf("%w: %v", combat.ErrValidation, err)
}

// invalidf formats a message into the 400 family.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", combat.ErrValidation, fmt.Sprintf(format, args...))
}

// forbiddenf formats a message into the 403 family.
func forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", combat.ErrForbidden, fmt.Sprintf(format, args...))
}
