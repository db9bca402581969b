package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"rentsnap/internal/backend"
	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
)

// Machine readable codes clients use to tell rejected transitions apart.
const (
	codeInvalidTransition = "invalid_transition"
	codeCodeMismatch      = "code_mismatch"
	codeItemInUse         = "item_in_use"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Encoding response failed", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, r *http.Request, status int, detail, code string) {
	body := map[string]string{"detail": detail}
	if code != "" {
		body["code"] = code
	}
	writeJSON(w, status, body)
}

// writeError maps domain errors onto status codes. Validation errors carry
// their field so that forms can show the message next to it.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	var terr *domain.TransitionError
	switch {
	case errors.As(err, &verr):
		if verr.Field == "" {
			writeDetail(w, r, http.StatusBadRequest, verr.Message, "")
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string][]string{verr.Field: {verr.Message}})
	case errors.Is(err, domain.ErrCodeMismatch):
		writeDetail(w, r, http.StatusBadRequest, "The confirmation code is not correct.", codeCodeMismatch)
	case errors.As(err, &terr):
		writeDetail(w, r, http.StatusConflict, terr.Error(), codeInvalidTransition)
	case errors.Is(err, domain.ErrItemInUse):
		writeDetail(w, r, http.StatusConflict, "This item has active rental requests and cannot be deleted.", codeItemInUse)
	case errors.Is(err, domain.ErrConflict):
		writeDetail(w, r, http.StatusConflict, err.Error(), "")
	case errors.Is(err, backend.ErrUnauthenticated):
		writeDetail(w, r, http.StatusUnauthorized, "Invalid token.", "")
	case errors.Is(err, domain.ErrForbidden):
		writeDetail(w, r, http.StatusForbidden, "You do not have permission to perform this action.", "")
	case errors.Is(err, domain.ErrNotFound):
		writeDetail(w, r, http.StatusNotFound, "Not found.", "")
	default:
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeDetail(w, r, http.StatusInternalServerError, "internal server error", "")
	}
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return &domain.ValidationError{Message: "request body is required"}
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &domain.ValidationError{Message: "malformed JSON: " + err.Error()}
	}
	return nil
}
