package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/manthysbr/icebreaker/internal/core/domain"
)

// DefaultMaxSteps bounds the ReAct loop when no explicit budget is configured.
const DefaultMaxSteps = 5

// ProfileResolver turns a person's name into a profile URL using ReAct reasoning
// over a fixed tool set. It keeps no state between calls.
type ProfileResolver struct {
	logger   *slog.Logger
	llm      domain.LLMProvider
	tools    *domain.ToolRegistry
	tracer   *TraceCollector
	model    string
	maxSteps int
}

// NewProfileResolver creates a resolver. maxSteps < 1 falls back to DefaultMaxSteps.
func NewProfileResolver(
	logger *slog.Logger,
	llm domain.LLMProvider,
	tools *domain.ToolRegistry,
	tracer *TraceCollector,
	model string,
	maxSteps int,
) *ProfileResolver {
	if maxSteps < 1 {
		maxSteps = DefaultMaxSteps
	}
	return &ProfileResolver{
		logger:   logger,
		llm:      llm,
		tools:    tools,
		tracer:   tracer,
		model:    model,
		maxSteps: maxSteps,
	}
}

// MaxSteps returns the step budget of the loop.
func (r *ProfileResolver) MaxSteps() int {
	return r.maxSteps
}

// Resolve runs the ReAct loop and returns the profile URL, or "" when the model
// reports that no profile exists. The executed steps are returned in every case
// where at least one step ran.
func (r *ProfileResolver) Resolve(ctx context.Context, req domain.ResolutionRequest) (string, []domain.ActionStep, error) {
	name := strings.TrimSpace(req.SubjectName)
	if name == "" {
		return "", nil, domain.ErrEmptyName
	}

	ctx, spanID := r.tracer.StartSpan(ctx, "resolver.resolve", domain.SpanKindResolver, map[string]string{
		"subject_name": name,
		"max_steps":    fmt.Sprintf("%d", r.maxSteps),
	})
	r.tracer.SetSpanInput(spanID, name)

	url, steps, err := r.loop(ctx, name)
	r.tracer.EndSpan(spanID, url, err)
	return url, steps, err
}

func (r *ProfileResolver) loop(ctx context.Context, name string) (string, []domain.ActionStep, error) {
	r.logger.Info("starting ReAct loop", "subject_name", name, "max_steps", r.maxSteps)

	transcript := []string{r.buildPrompt(name)}
	steps := make([]domain.ActionStep, 0, r.maxSteps)

	for i := 0; i < r.maxSteps; i++ {
		r.logger.Debug("ReAct iteration", "iteration", i+1)

		// 1. Call LLM
		prompt := strings.Join(transcript, "\n")
		response, err := r.generate(ctx, prompt, i+1)
		if err != nil {
			return "", steps, fmt.Errorf("llm generate: %w", err)
		}

		// 2. Parse output
		step, err := ParseActionStep(response)
		if err != nil {
			r.logger.Warn("unparseable model response", "iteration", i+1, "response", response[:min(200, len(response))])
			return "", steps, err
		}

		// 3. Check if final answer
		if step.IsFinal {
			steps = append(steps, step)
			r.logger.Info("final answer reached", "answer", step.FinalAnswer, "steps", len(steps))
			return step.FinalAnswer, steps, nil
		}

		// 4. Execute tool
		observation, err := r.execute(ctx, *step.Action)
		if err != nil {
			steps = append(steps, step)
			return "", steps, err
		}
		step.Observation = observation
		steps = append(steps, step)

		// 5. Extend transcript
		transcript = append(transcript, scratchpadEntry(step), "Observation: "+observation, "Thought:")
	}

	r.logger.Warn("step budget exhausted", "subject_name", name, "max_steps", r.maxSteps)
	return "", steps, &domain.ResolutionIncompleteError{MaxSteps: r.maxSteps, Steps: steps}
}

func (r *ProfileResolver) generate(ctx context.Context, prompt string, iteration int) (string, error) {
	llmCtx, spanID := r.tracer.StartSpan(ctx, fmt.Sprintf("llm.generate (step %d)", iteration), domain.SpanKindLLM, map[string]string{
		"iteration": fmt.Sprintf("%d", iteration),
	})
	r.tracer.SetSpanInput(spanID, prompt[max(0, len(prompt)-500):])
	r.tracer.SetSpanModel(spanID, r.model)

	response, err := r.llm.GenerateText(llmCtx, prompt)
	r.tracer.EndSpan(spanID, response, err)
	if err != nil {
		return "", err
	}
	r.logger.Debug("LLM response", "response", response[:min(200, len(response))])
	return response, nil
}

func (r *ProfileResolver) execute(ctx context.Context, inv domain.ActionInvocation) (string, error) {
	r.logger.Info("executing tool", "tool", inv.ToolName, "input", inv.ToolInput)

	toolCtx, spanID := r.tracer.StartSpan(ctx, "tool."+inv.ToolName, domain.SpanKindTool, map[string]string{
		"tool": inv.ToolName,
	})
	r.tracer.SetSpanInput(spanID, inv.ToolInput)

	observation, err := r.tools.Execute(toolCtx, inv)
	r.tracer.EndSpan(spanID, observation, err)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", inv.ToolName, err)
	}

	r.logger.Debug("tool executed", "observation", observation[:min(200, len(observation))])
	return observation, nil
}

// scratchpadEntry re-renders a parsed step so the transcript never carries
// text the model appended after its action.
func scratchpadEntry(step domain.ActionStep) string {
	return fmt.Sprintf("%s\nAction: %s\nAction Input: %s", step.Thought, step.Action.ToolName, step.Action.ToolInput)
}

// buildPrompt renders the instruction, tool list and ReAct grammar for a subject.
func (r *ProfileResolver) buildPrompt(name string) string {
	return fmt.Sprintf(`Given the full name %s, I want you to get back the LinkedIn profile URL. Your answer should ONLY contain a URL.
If you cannot find it, return an empty string ("").

You have access to the following tools:

%s
Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [%s]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat)
Thought: I now know the final answer
Final Answer: the final answer to the original input question

RULES:
1. Write exactly one Action or one Final Answer per reply, never both.
2. Do NOT write "Observation:" yourself; it is provided after each Action.
3. If a search does not clearly match the person, rephrase the query and search again.

Begin!

Question: What is the LinkedIn profile URL of %s?
Thought:`, name, r.tools.FormatToolsForPrompt(), strings.Join(r.tools.Names(), ", "), name)
}
