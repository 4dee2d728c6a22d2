package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-kit/log/level"

	"github.com/solatis/cpereport/internal/types"
)

// errorResponse is the uniform error body. Kind gives clients a
// machine-readable handle on the failure class.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeJSON renders a JSON response body.
func (s *Service) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		level.Error(s.logger).Log("msg", "failed to encode response", "err", err)
	}
}

// writeText renders a plain rendered document.
func (s *Service) writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, body); err != nil {
		level.Error(s.logger).Log("msg", "failed to write response", "err", err)
	}
}

// writeError maps a domain error onto its HTTP status.
func (s *Service) writeError(w http.ResponseWriter, err error) {
	status, kind := classifyError(err)
	if status >= http.StatusInternalServerError {
		level.Error(s.logger).Log("msg", "request failed", "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

// badRequest rejects input the decoder accepted but the handler cannot use.
func (s *Service) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Kind: "invalid_request"})
}

// classifyError picks the response status and kind for a domain error.
// Handlers never panic on user input; anything unrecognized is a 500.
func classifyError(err error) (int, string) {
	var decodeErr *types.JSONDecodeError
	var pathErr *types.MalformedPathError
	var shapeErr *types.UnsupportedShapeError
	var conflictErr *types.StructuralConflictError
	var parseErr *types.RuleSetParseError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &decodeErr):
		return http.StatusBadRequest, "invalid_json"
	case errors.As(err, &pathErr):
		return http.StatusBadRequest, "malformed_path"
	case errors.As(err, &shapeErr):
		return http.StatusBadRequest, "unsupported_shape"
	case errors.As(err, &conflictErr):
		return http.StatusBadRequest, "structural_conflict"
	case errors.As(err, &parseErr):
		return http.StatusBadRequest, "invalid_ruleset"
	case errors.Is(err, types.ErrRuleSetNotFound):
		return http.StatusNotFound, "ruleset_not_found"
	case errors.Is(err, types.ErrNoStore):
		return http.StatusServiceUnavailable, "no_store"
	case errors.Is(err, types.ErrReportTooLarge),
		errors.Is(err, types.ErrRuleSetTooLarge),
		errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, types.ErrTooManyRules),
		errors.Is(err, types.ErrIndexTooLarge):
		return http.StatusBadRequest, "limit_exceeded"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// readBody drains the request body under the report size cap.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, types.MaxReportBytes))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, types.ErrReportTooLarge
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return body, nil
}

// decodeRequest reads and unmarshals a JSON request body.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &types.JSONDecodeError{Err: err}
	}
	return nil
}
