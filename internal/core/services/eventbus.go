package services

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/manthysbr/icebreaker/internal/core/domain"
)

type EventType string

const (
	EventTypeStage    EventType = "stage"
	EventTypeFinished EventType = "finished"
)

// Pipeline stages reported in stage events.
const (
	StageResolving       = "resolving"
	StageFetchingProfile = "fetching_profile"
	StageSummarizing     = "summarizing"
	StageCompleted       = "completed"
	StageFailed          = "failed"
)

type Event struct {
	TraceID   domain.TraceID
	Type      EventType
	Data      string // JSON payload
	Timestamp int64
}

// RunProgress is the payload of pipeline events.
type RunProgress struct {
	TraceID     domain.TraceID `json:"trace_id"`
	SubjectName string         `json:"subject_name"`
	Stage       string         `json:"stage"`
	ProfileURL  string         `json:"profile_url,omitempty"`
	ErrorKind   string         `json:"error_kind,omitempty"`
}

// EventBus fans pipeline progress out to subscribers of one trace and to
// global subscribers. A nil *EventBus drops everything.
type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[domain.TraceID][]chan Event
	global []chan Event
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[domain.TraceID][]chan Event),
	}
}

// Subscribe returns a channel that receives events for a specific trace
func (b *EventBus) Subscribe(traceID domain.TraceID) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100) // Buffer to prevent blocking publisher
	b.subs[traceID] = append(b.subs[traceID], ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subscribers := b.subs[traceID]
		for i, sub := range subscribers {
			if sub == ch {
				close(ch)
				b.subs[traceID] = append(subscribers[:i], subscribers[i+1:]...)
				break
			}
		}
		if len(b.subs[traceID]) == 0 {
			delete(b.subs, traceID)
		}
	}

	return ch, unsub
}

// SubscribeGlobal returns a channel that receives every event.
func (b *EventBus) SubscribeGlobal() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100)
	b.global = append(b.global, ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		for i, sub := range b.global {
			if sub == ch {
				close(ch)
				b.global = append(b.global[:i], b.global[i+1:]...)
				break
			}
		}
	}

	return ch, unsub
}

// Publish sends an event to the trace's subscribers and all global ones
func (b *EventBus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	deliver := func(ch chan Event) {
		select {
		case ch <- e:
		default:
			// If channel is full, drop event to prevent blocking the pipeline
			b.logger.Warn("event bus channel full, dropping event", "trace_id", e.TraceID)
		}
	}
	for _, ch := range b.subs[e.TraceID] {
		deliver(ch)
	}
	for _, ch := range b.global {
		deliver(ch)
	}
}

// PublishProgress encodes p as the payload of an event of type t.
func (b *EventBus) PublishProgress(t EventType, p RunProgress) {
	if b == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		b.logger.Warn("failed to encode progress event", "error", err)
		return
	}
	b.Publish(Event{
		TraceID:   p.TraceID,
		Type:      t,
		Data:      string(data),
		Timestamp: time.Now().UnixMilli(),
	})
}
