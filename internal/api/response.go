package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/donacije/internal/model"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps an error kind to its HTTP status. Storage and unknown
// errors are logged and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrAuthentication):
		jsonError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, model.ErrAuthorization):
		jsonError(w, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrConflict):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrResourceExhausted):
		slog.Warn("request rejected", "error", err, "request_id", RequestID(r.Context()))
		w.Header().Set("Retry-After", "1")
		jsonError(w, http.StatusServiceUnavailable, "server busy, try again")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		slog.Warn("request aborted", "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusServiceUnavailable, "request aborted")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path,
			"error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON strictly decodes a JSON request body into target: unknown fields
// and trailing data are rejected. Failures are model.ErrValidation.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", model.ErrValidation, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid request body: unexpected trailing data", model.ErrValidation)
	}
	return nil
}

// pathID parses a numeric path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", model.ErrValidation, name)
	}
	return id, nil
}
