package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leapstack-labs/leapgate/pkg/core"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	// State is the session state the request was rejected in.
	State     string   `json:"state,omitempty"`
	Required  []string `json:"required,omitempty"`
	Available []string `json:"available,omitempty"`
	Reasons   []string `json:"reasons,omitempty"`
	Stage     string   `json:"stage,omitempty"`
}

// badRequestError marks client mistakes that are not domain errors.
type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func badRequest(msg string) error { return &badRequestError{msg: msg} }

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) (int, errorResponse) {
	resp := errorResponse{Error: err.Error()}

	var (
		stateErr  *core.InvalidStateError
		columnErr *core.UnknownColumnError
		profErr   *core.ProfilingError
		deniedErr *core.PermissionDeniedError
		badReq    *badRequestError
	)
	switch {
	case errors.As(err, &stateErr):
		resp.Code = "invalid_state"
		resp.State = stateErr.Current.String()
		for _, s := range stateErr.Required {
			resp.Required = append(resp.Required, s.String())
		}
		return http.StatusConflict, resp
	case errors.Is(err, core.ErrSessionReset):
		resp.Code = "session_reset"
		return http.StatusConflict, resp
	case errors.As(err, &columnErr):
		resp.Code = "unknown_column"
		resp.Available = columnErr.Available
		return http.StatusUnprocessableEntity, resp
	case errors.As(err, &profErr):
		resp.Code = "profiling_failure"
		resp.Stage = profErr.Stage
		return http.StatusUnprocessableEntity, resp
	case errors.As(err, &deniedErr):
		resp.Code = "permission_denied"
		resp.Reasons = deniedErr.Reasons
		return http.StatusForbidden, resp
	case errors.Is(err, core.ErrUnsupportedFormat), errors.As(err, &badReq):
		resp.Code = "bad_request"
		return http.StatusBadRequest, resp
	default:
		resp.Code = "internal"
		return http.StatusInternalServerError, resp
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, resp)
}
