package httputil

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pwierzba/lol-tournament-backend/internal/bracket"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	Error(w, http.StatusInternalServerError, "Internal Server Error")
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	Error(w, http.StatusBadRequest, msg)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	Error(w, http.StatusNotFound, msg)
}

// DomainError maps the named error kinds onto HTTP statuses. Anything not
// recognized is treated as an infrastructure failure.
func DomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bracket.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		NotFound(w, "not found", err)
	case errors.Is(err, bracket.ErrUnauthorized):
		slog.Warn("forbidden", "error", err)
		Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, bracket.ErrRegistrationClosed),
		errors.Is(err, bracket.ErrCapacityExceeded),
		errors.Is(err, bracket.ErrInvalidRoster),
		errors.Is(err, bracket.ErrInvalidRating),
		errors.Is(err, bracket.ErrInsufficientParticipants),
		errors.Is(err, bracket.ErrFieldLocked),
		errors.Is(err, bracket.ErrAlreadyFinalized),
		errors.Is(err, bracket.ErrInvalidWinner),
		errors.Is(err, bracket.ErrAlreadyRegistered),
		errors.Is(err, bracket.ErrInvalidSchedule),
		errors.Is(err, bracket.ErrTournamentNotOpen):
		slog.Warn("rejected", "error", err)
		Error(w, http.StatusBadRequest, err.Error())
	default:
		InternalServerError(w, "unexpected error", err)
	}
}
