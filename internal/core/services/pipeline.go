package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/manthysbr/icebreaker/internal/core/domain"
)

// SummaryTemplate asks for a short summary with two facts. {information} receives
// the profile document as JSON.
const SummaryTemplate = `given the LinkedIn information {information} about a person, I want you to create a short summary of 2-3 sentences that includes two interesting facts about them.

{format_instructions}`

// Pipeline chains resolver, profile source and extractor into one run.
type Pipeline struct {
	logger    *slog.Logger
	resolver  *ProfileResolver
	profiles  domain.ProfileSource
	extractor *Extractor
	tracer    *TraceCollector
	events    *EventBus
}

// NewPipeline wires the pipeline stages. tracer may be nil.
func NewPipeline(
	logger *slog.Logger,
	resolver *ProfileResolver,
	profiles domain.ProfileSource,
	extractor *Extractor,
	tracer *TraceCollector,
) *Pipeline {
	return &Pipeline{
		logger:    logger,
		resolver:  resolver,
		profiles:  profiles,
		extractor: extractor,
		tracer:    tracer,
	}
}

// WithEvents makes the pipeline publish stage progress to bus.
func (p *Pipeline) WithEvents(bus *EventBus) *Pipeline {
	p.events = bus
	return p
}

// GenerateIceBreaker resolves the named person's profile, fetches it and
// summarizes it. An empty resolution yields ErrProfileNotFound.
func (p *Pipeline) GenerateIceBreaker(ctx context.Context, name string) (domain.IceBreaker, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.IceBreaker{}, domain.ErrEmptyName
	}

	ctx, traceID, _ := p.tracer.StartTrace(ctx, "icebreaker: "+name, map[string]string{"subject_name": name})
	p.tracer.SetTraceSubject(traceID, name, "")

	progress := RunProgress{TraceID: traceID, SubjectName: name}
	result, err := p.run(ctx, progress)
	result.TraceID = traceID
	p.tracer.SetTraceSubject(traceID, name, result.ProfileURL)
	p.tracer.EndTrace(traceID, err)

	progress.ProfileURL = result.ProfileURL
	if err != nil {
		progress.Stage, progress.ErrorKind = StageFailed, domain.ErrorKind(err)
		p.events.PublishProgress(EventTypeFinished, progress)
		p.logger.Error("ice breaker failed", "subject_name", name, "kind", progress.ErrorKind, "error", err)
		return result, err
	}
	progress.Stage = StageCompleted
	p.events.PublishProgress(EventTypeFinished, progress)
	p.logger.Info("ice breaker generated", "subject_name", name, "profile_url", result.ProfileURL, "steps", len(result.Steps))
	return result, nil
}

// Lookup runs only the resolution stage.
func (p *Pipeline) Lookup(ctx context.Context, name string) (string, []domain.ActionStep, error) {
	return p.resolver.Resolve(ctx, domain.ResolutionRequest{SubjectName: name})
}

func (p *Pipeline) run(ctx context.Context, progress RunProgress) (domain.IceBreaker, error) {
	var result domain.IceBreaker
	name := progress.SubjectName

	progress.Stage = StageResolving
	p.events.PublishProgress(EventTypeStage, progress)
	profileURL, steps, err := p.resolver.Resolve(ctx, domain.ResolutionRequest{SubjectName: name})
	result.Steps = steps
	if err != nil {
		return result, fmt.Errorf("resolve %q: %w", name, err)
	}
	if profileURL == "" {
		return result, fmt.Errorf("resolve %q: %w", name, domain.ErrProfileNotFound)
	}
	result.ProfileURL = profileURL

	progress.Stage, progress.ProfileURL = StageFetchingProfile, profileURL
	p.events.PublishProgress(EventTypeStage, progress)
	doc, err := p.fetchProfile(ctx, profileURL)
	if err != nil {
		return result, err
	}
	if photo, ok := doc.PhotoURL(); ok {
		result.PhotoURL = &photo
	}

	progress.Stage = StageSummarizing
	p.events.PublishProgress(EventTypeStage, progress)
	summary, err := p.summarize(ctx, doc)
	if err != nil {
		return result, err
	}
	result.Summary = summary
	return result, nil
}

func (p *Pipeline) fetchProfile(ctx context.Context, profileURL string) (domain.ProfileDocument, error) {
	ctx, spanID := p.tracer.StartSpan(ctx, "profile.fetch", domain.SpanKindProfile, map[string]string{
		"profile_url": profileURL,
	})
	p.tracer.SetSpanInput(spanID, profileURL)

	doc, err := p.profiles.FetchProfile(ctx, profileURL)
	p.tracer.EndSpan(spanID, fmt.Sprintf("%d fields", len(doc)), err)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	return doc, nil
}

func (p *Pipeline) summarize(ctx context.Context, doc domain.ProfileDocument) (domain.SummaryResult, error) {
	ctx, spanID := p.tracer.StartSpan(ctx, "extract", domain.SpanKindExtract, map[string]string{
		"schema": domain.SummarySchema.Name,
	})

	information, err := json.Marshal(doc)
	if err != nil {
		p.tracer.EndSpan(spanID, "", err)
		return domain.SummaryResult{}, fmt.Errorf("encode profile: %w", err)
	}

	summary, err := p.extractor.Extract(ctx, SummaryTemplate, domain.SummarySchema, map[string]string{
		"information": string(information),
	})
	if err != nil {
		p.tracer.EndSpan(spanID, "", err)
		return domain.SummaryResult{}, fmt.Errorf("extract summary: %w", err)
	}

	out, err := json.Marshal(summary)
	if err != nil {
		p.tracer.EndSpan(spanID, "", err)
		return domain.SummaryResult{}, fmt.Errorf("encode summary: %w", err)
	}
	p.tracer.EndSpan(spanID, string(out), nil)
	return summary, nil
}
