package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

// writeErr sends JSON { "error": message, "code": errCode }. If errCode is empty, a default is used from code.
func writeErr(w http.ResponseWriter, code int, errCode string, message string) {
	if errCode == "" {
		errCode = defaultErrCode(code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": errCode})
}

// writeDomainErr maps the domain sentinels onto HTTP. Anything unmapped is
// a 500 with no detail leaked.
func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domerrors.ErrNotFound):
		writeErr(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	case errors.Is(err, domerrors.ErrUnauthenticated):
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	case errors.Is(err, domerrors.ErrForbidden):
		writeErr(w, http.StatusForbidden, ErrCodeForbidden, "forbidden")
	case errors.Is(err, domerrors.ErrExpired):
		writeErr(w, http.StatusGone, ErrCodeTokenExpired, "link expired")
	case errors.Is(err, domerrors.ErrAlreadyUsed):
		writeErr(w, http.StatusGone, ErrCodeTokenUsed, "link already used")
	case errors.Is(err, domerrors.ErrProjectLocked):
		writeErr(w, http.StatusConflict, ErrCodeProjectLocked, "project is approved and locked")
	case errors.Is(err, domerrors.ErrRevisionLimitExceeded):
		writeErr(w, http.StatusConflict, ErrCodeRevisionLimit, "revision limit reached")
	case errors.Is(err, domerrors.ErrConflict):
		writeErr(w, http.StatusConflict, ErrCodeConflict, "conflict")
	case errors.Is(err, domerrors.ErrStoreUnavailable):
		writeErr(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "temporarily unavailable")
	default:
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

func defaultErrCode(httpCode int) string {
	switch httpCode {
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeConflict
	case http.StatusTooManyRequests:
		return ErrCodeLocked
	case http.StatusInternalServerError:
		return ErrCodeInternal
	default:
		return ErrCodeInternal
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
