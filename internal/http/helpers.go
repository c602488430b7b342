package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"saldo/internal/core"
)

// ownerHeader carries the acting owner's id. Authentication happens upstream
// of this service; the API trusts the header the gateway sets.
const ownerHeader = "X-Owner-ID"

var errMissingOwner = errors.New("missing owner header")

func ownerID(r *http.Request) (string, error) {
	id := r.Header.Get(ownerHeader)
	if id == "" {
		return "", errMissingOwner
	}
	return id, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errMissingOwner), errors.Is(err, core.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrSameTransferAccount),
		errors.Is(err, core.ErrMissingTransferLegs),
		errors.Is(err, core.ErrTransferTypeChange),
		errors.Is(err, core.ErrTransferFieldsSet),
		errors.Is(err, core.ErrTransferCategorized),
		errors.Is(err, core.ErrCategoryInUse):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

var errBadRequest = errors.New("malformed request")

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errBadRequest
	}
	return nil
}

// parseDate accepts a date-only value or full RFC 3339.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, core.ErrInvalidDate
	}
	return t, nil
}

// parseAmount converts the wire's decimal string into Money.
func parseAmount(s string) (core.Money, error) {
	return core.ParseAmount(s)
}
