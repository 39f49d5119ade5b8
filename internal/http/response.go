package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"habitual/internal/core"
	"habitual/internal/log"
	"habitual/internal/services"
	"habitual/internal/storage"
)

type errorResponse struct {
	Error   string `json:"error"`
	Upgrade bool   `json:"upgrade,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors onto HTTP statuses. Unrecognized
// errors become a generic 500 and are logged with request context.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrQuotaExceeded):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error(), Upgrade: true})
	case errors.Is(err, services.ErrNotAddressee):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrFriendshipExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrSelfFriend),
		errors.Is(err, services.ErrNoSpendingData),
		isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidTier) ||
		errors.Is(err, core.ErrInvalidCategory) ||
		errors.Is(err, core.ErrEmptyName)
}

// decodeBody parses a JSON request body into dst, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
