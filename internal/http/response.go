package http

import (
	"errors"
	"net/http"

	"recap/internal/collection/csvfile"
	"recap/internal/core"
	"recap/internal/log"
	"recap/internal/middleware/trace"

	json "github.com/goccy/go-json"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", log.FieldError, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError maps domain errors to status codes. Server-side failures are
// logged and their details hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldPath, r.URL.Path)
		msg = "internal error"
	}
	writeJSON(w, r, status, errorResponse{
		Error:     msg,
		RequestID: trace.GetRequestID(r.Context()),
	})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrInvalidYear),
		errors.Is(err, core.ErrEmptyImport),
		errors.Is(err, core.ErrEmptyGameID),
		errors.Is(err, core.ErrInvalidOverride),
		errors.Is(err, csvfile.ErrNoHeader):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
