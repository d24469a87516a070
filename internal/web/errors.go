package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"replytree/internal/store"
	"replytree/internal/tree"
)

var (
	errReadOnly     = errors.New("server is read-only")
	errMissingActor = errors.New("missing actor (start the server with --actor or send X-Replytree-Actor)")
)

// badRequestError marks malformed input (bad JSON, wrong proposal shape).
type badRequestError struct {
	msg string
}

func (e badRequestError) Error() string { return e.msg }

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// classify maps a domain error onto an HTTP status and a stable error code. Refusals are
// 409/422, a vanished entry or drop target is a retryable 404, and a cycle in stored data is a 500.
func classify(err error) (int, apiError) {
	e := apiError{Message: err.Error()}
	var bad badRequestError
	switch {
	case errors.As(err, &bad):
		e.Code = "bad_request"
		return http.StatusBadRequest, e
	case errors.Is(err, errReadOnly):
		e.Code = "read_only"
		return http.StatusForbidden, e
	case errors.Is(err, errMissingActor):
		e.Code = "missing_actor"
		return http.StatusUnauthorized, e
	case errors.Is(err, tree.ErrCycleDetected):
		e.Code = "cycle_detected"
		return http.StatusInternalServerError, e
	case errors.Is(err, tree.ErrDepthLimitExceeded):
		e.Code = "depth_limit_exceeded"
		return http.StatusUnprocessableEntity, e
	case errors.Is(err, tree.ErrSelfContainment):
		e.Code = "self_containment"
		return http.StatusUnprocessableEntity, e
	case errors.Is(err, tree.ErrHasReplies):
		e.Code = "has_replies"
		return http.StatusConflict, e
	case errors.Is(err, tree.ErrNoNeighbor):
		e.Code = "no_neighbor"
		return http.StatusConflict, e
	case errors.Is(err, tree.ErrTargetNotFound):
		// The client's projection was stale; refetch and try again.
		e.Code = "target_not_found"
		e.Retryable = true
		return http.StatusNotFound, e
	case errors.Is(err, tree.ErrNotFound):
		// Hidden or removed since the client last looked.
		e.Code = "entry_not_found"
		e.Retryable = true
		return http.StatusNotFound, e
	case errors.Is(err, tree.ErrInvalidProposal):
		e.Code = "invalid_proposal"
		return http.StatusBadRequest, e
	case errors.Is(err, store.ErrNotFound):
		e.Code = "not_found"
		return http.StatusNotFound, e
	case errors.Is(err, store.ErrEmptyTitle), errors.Is(err, store.ErrEmptyBody):
		e.Code = "invalid_input"
		return http.StatusBadRequest, e
	default:
		e.Code = "internal"
		return http.StatusInternalServerError, e
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, e := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "code", e.Code, "err", err)
	} else {
		s.log.Debug("request refused", "method", r.Method, "path", r.URL.Path, "code", e.Code, "err", err)
	}
	writeJSON(w, status, map[string]any{"error": e})
}
