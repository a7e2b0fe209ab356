package domain

import "time"

// TraceID uniquely identifies a trace (one per pipeline run).
type TraceID string

// SpanID uniquely identifies a span within a trace.
type SpanID string

// SpanKind classifies the type of operation a span represents.
type SpanKind string

const (
	SpanKindPipeline SpanKind = "pipeline" // Top-level pipeline run
	SpanKindResolver SpanKind = "resolver" // ReAct profile resolution
	SpanKindLLM      SpanKind = "llm"      // LLM call (generate text)
	SpanKindTool     SpanKind = "tool"     // Tool execution
	SpanKindProfile  SpanKind = "profile"  // Profile data source fetch
	SpanKindExtract  SpanKind = "extract"  // Structured extraction
)

// SpanStatus indicates completion state of a span.
type SpanStatus string

const (
	SpanStatusRunning   SpanStatus = "running"
	SpanStatusOK        SpanStatus = "ok"
	SpanStatusError     SpanStatus = "error"
	SpanStatusCancelled SpanStatus = "cancelled"
)

// Span represents a single unit of work within a trace.
// Spans form a tree: a resolver span contains LLM + tool child spans.
type Span struct {
	ID         SpanID            `json:"id"`
	ParentID   SpanID            `json:"parent_id,omitempty"` // empty = root
	TraceID    TraceID           `json:"trace_id"`
	Name       string            `json:"name"` // e.g., "llm.generate", "tool.web_search", "profile.fetch"
	Kind       SpanKind          `json:"kind"`
	Status     SpanStatus        `json:"status"`
	Input      string            `json:"input,omitempty"`  // truncated input
	Output     string            `json:"output,omitempty"` // truncated output
	Error      string            `json:"error,omitempty"`
	Model      string            `json:"model,omitempty"` // LLM model used (for llm spans)
	Attributes map[string]string `json:"attributes,omitempty"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    *time.Time        `json:"end_time,omitempty"`
	DurationMs int64             `json:"duration_ms,omitempty"`
	Children   []SpanID          `json:"children,omitempty"`
}

// Trace groups all spans of a single pipeline run.
type Trace struct {
	ID          TraceID    `json:"id"`
	RootSpanID  SpanID     `json:"root_span_id"`
	Name        string     `json:"name"` // e.g., "icebreaker: Ada Lovelace"
	Status      SpanStatus `json:"status"`
	SubjectName string     `json:"subject_name,omitempty"`
	ProfileURL  string     `json:"profile_url,omitempty"`
	ErrorKind   string     `json:"error_kind,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	DurationMs  int64      `json:"duration_ms,omitempty"`
	SpanCount   int        `json:"span_count"`
	Spans       []Span     `json:"spans,omitempty"` // populated only on detail view
}

// TraceSummary is a lightweight view for listing traces.
type TraceSummary struct {
	ID         TraceID    `json:"id"`
	Name       string     `json:"name"`
	Status     SpanStatus `json:"status"`
	ErrorKind  string     `json:"error_kind,omitempty"`
	StartTime  time.Time  `json:"start_time"`
	DurationMs int64      `json:"duration_ms"`
	SpanCount  int        `json:"span_count"`
}
