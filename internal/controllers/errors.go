package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/RealZimboGuy/taskflow/internal/engine"
	"github.com/moogar0880/problems"
)

// ErrorResponse is the RFC 7807 body of every non-2xx JSON response. Type
// carries the engine error kind.
type ErrorResponse = problems.Problem

const problemContentType = "application/problem+json"

var statusByKind = map[string]int{
	engine.KindValidation:         http.StatusBadRequest,
	engine.KindNotFound:           http.StatusNotFound,
	engine.KindConflict:           http.StatusConflict,
	engine.KindTransitionRejected: http.StatusUnprocessableEntity,
	engine.KindOrphanWorkflow:     http.StatusUnprocessableEntity,
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := engine.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		slog.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeProblem(w, r, status, kind, err.Error())
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, http.StatusBadRequest, engine.KindValidation, detail)
}

func writeNotFound(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, http.StatusNotFound, engine.KindNotFound, detail)
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, kind, detail string) {
	problem := problems.NewStatusProblem(status).
		WithInstance(r.URL.Path).
		WithType(kind).
		WithDetail(detail)
	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode problem", "error", err)
	}
}
