package kernel

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/manthysbr/icebreaker/internal/core/domain"
	"github.com/manthysbr/icebreaker/internal/core/services"
)

// PlaceholderPictureURL is returned when the profile carries no photo.
const PlaceholderPictureURL = "https://via.placeholder.com/300x300?text=No+Image"

const comingSoon = "Coming soon..."

//go:embed index.html
var indexPage []byte

var errMethodNotAllowed = errors.New("method not allowed")

// IceBreakerGenerator runs one end-to-end lookup.
type IceBreakerGenerator interface {
	GenerateIceBreaker(ctx context.Context, name string) (domain.IceBreaker, error)
}

// TraceStore is persisted trace history consulted when the in-memory ring
// buffer has nothing.
type TraceStore interface {
	ListTraces(ctx context.Context, limit int) ([]domain.TraceSummary, error)
	GetTrace(ctx context.Context, id domain.TraceID) (*domain.Trace, error)
}

type Server struct {
	logger    *slog.Logger
	pipeline  IceBreakerGenerator
	tracer    *services.TraceCollector
	events    *services.EventBus // optional
	store     TraceStore         // optional
	settings  *domain.AppConfig  // optional; served masked
	validator *requestValidator

	streamsDone chan struct{}
	stopOnce    sync.Once
}

// NewServer builds the HTTP API. events, store and settings may be nil; pass
// an untyped nil for store rather than a nil pointer.
func NewServer(
	logger *slog.Logger,
	pipeline IceBreakerGenerator,
	tracer *services.TraceCollector,
	events *services.EventBus,
	store TraceStore,
	settings *domain.AppConfig,
) (*Server, error) {
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	return &Server{
		logger:      logger,
		pipeline:    pipeline,
		tracer:      tracer,
		events:      events,
		store:       store,
		settings:    settings,
		validator:   validator,
		streamsDone: make(chan struct{}),
	}, nil
}

// StopStreams ends open event streams so http.Server.Shutdown does not wait
// on them. Register it with RegisterOnShutdown.
func (s *Server) StopStreams() {
	s.stopOnce.Do(func() { close(s.streamsDone) })
}

// Handler returns the http.Handler for the server.
// Every request is checked against the OpenAPI document before routing.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /process", s.handleProcess)
	mux.HandleFunc("GET /v1/events", s.handleEventsSSE)
	mux.HandleFunc("GET /v1/settings", s.handleGetSettings)
	mux.HandleFunc("GET /v1/openapi.yaml", s.handleOpenAPI)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.validator.Validate(r); err != nil {
			if errors.Is(err, errMethodNotAllowed) {
				writeError(w, http.StatusMethodNotAllowed, err.Error(), "InvalidRequest", "")
				return
			}
			s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
			writeError(w, http.StatusBadRequest, err.Error(), "InvalidRequest", "")
			return
		}

		// Tracing API
		if r.Method == http.MethodGet && r.URL.Path == "/v1/traces" {
			s.handleListTraces(w, r)
			return
		}
		if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, tracePathPrefix) {
			s.handleGetTrace(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(openAPIDocument)
}

type processResponse struct {
	SummaryAndFacts domain.SummaryResult `json:"summary_and_facts"`
	PictureURL      string               `json:"picture_url"`
	ProfileURL      string               `json:"profile_url,omitempty"`
	TraceID         domain.TraceID       `json:"trace_id,omitempty"`
	IceBreakers     struct {
		IceBreakers []string `json:"ice_breakers"`
	} `json:"ice_breakers"`
	Interests struct {
		TopicsOfInterest []string `json:"topics_of_interest"`
	} `json:"interests"`
}

// handleProcess runs the whole pipeline for the form field "name".
// POST /process
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid form: %v", err), "InvalidRequest", "")
		return
	}

	result, err := s.pipeline.GenerateIceBreaker(r.Context(), r.PostForm.Get("name"))
	if err != nil {
		status, kind := statusForError(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("process failed", "kind", kind, "trace_id", result.TraceID, "error", err)
		}
		writeError(w, status, err.Error(), kind, result.TraceID)
		return
	}

	resp := processResponse{
		SummaryAndFacts: result.Summary,
		PictureURL:      PlaceholderPictureURL,
		ProfileURL:      result.ProfileURL,
		TraceID:         result.TraceID,
	}
	if result.PhotoURL != nil {
		resp.PictureURL = *result.PhotoURL
	}
	resp.IceBreakers.IceBreakers = []string{comingSoon}
	resp.Interests.TopicsOfInterest = []string{comingSoon}
	writeJSON(w, http.StatusOK, resp)
}

// statusForError maps the pipeline error taxonomy onto HTTP. Deadlines win
// over the stage that hit them.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Timeout"
	case errors.Is(err, domain.ErrEmptyName):
		return http.StatusBadRequest, domain.ErrorKind(err)
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, domain.ErrorKind(err)
	case errors.Is(err, domain.ErrSchemaValidation):
		return http.StatusUnprocessableEntity, domain.ErrorKind(err)
	case errors.Is(err, domain.ErrActionParse),
		errors.Is(err, domain.ErrUnknownTool),
		errors.Is(err, domain.ErrResolutionIncomplete),
		errors.Is(err, domain.ErrDataSource):
		return http.StatusBadGateway, domain.ErrorKind(err)
	}
	return http.StatusInternalServerError, domain.ErrorKind(err)
}

type errorResponse struct {
	Error   string         `json:"error"`
	Kind    string         `json:"kind"`
	TraceID domain.TraceID `json:"trace_id,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg, kind string, traceID domain.TraceID) {
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind, TraceID: traceID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
