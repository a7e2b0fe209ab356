package kernel

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/manthysbr/icebreaker/internal/core/domain"
	"github.com/oapi-codegen/runtime"
)

const (
	tracePathPrefix   = "/v1/traces/"
	defaultTraceLimit = 50
	maxTraceLimit     = 500
)

// handleListTraces returns recent traces, newest first.
// GET /v1/traces?limit=50
func (s *Server) handleListTraces(w http.ResponseWriter, r *http.Request) {
	var limitParam *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limitParam); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "InvalidRequest", "")
		return
	}
	limit := defaultTraceLimit
	if limitParam != nil && *limitParam > 0 {
		limit = min(*limitParam, maxTraceLimit)
	}

	traces := s.tracer.ListTraces(limit)
	if s.store != nil && len(traces) < limit {
		stored, err := s.store.ListTraces(r.Context(), limit)
		if err != nil {
			s.logger.Warn("failed to list stored traces", "error", err)
		} else {
			traces = mergeTraceSummaries(traces, stored, limit)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"traces": traces,
		"count":  len(traces),
	})
}

// handleGetTrace returns a single trace with all spans.
// GET /v1/traces/{id}
func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, tracePathPrefix)
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, http.StatusBadRequest, "invalid trace id", "InvalidRequest", "")
		return
	}

	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", raw, &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "InvalidRequest", "")
		return
	}

	trace, err := s.tracer.GetTrace(domain.TraceID(id))
	if err != nil && s.store != nil {
		trace, err = s.store.GetTrace(r.Context(), domain.TraceID(id))
	}
	if err != nil {
		if errors.Is(err, domain.ErrTraceNotFound) {
			writeError(w, http.StatusNotFound, err.Error(), "NotFound", "")
			return
		}
		s.logger.Error("failed to load trace", "trace_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error(), "internal", "")
		return
	}
	writeJSON(w, http.StatusOK, trace)
}

// mergeTraceSummaries fills live summaries up to limit with stored ones not
// already present, newest first.
func mergeTraceSummaries(live, stored []domain.TraceSummary, limit int) []domain.TraceSummary {
	seen := make(map[domain.TraceID]bool, len(live))
	out := make([]domain.TraceSummary, 0, limit)
	for _, t := range live {
		seen[t.ID] = true
		out = append(out, t)
	}
	for _, t := range stored {
		if !seen[t.ID] {
			seen[t.ID] = true
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
