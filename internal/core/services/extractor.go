package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kaptinlin/jsonschema"
	"github.com/manthysbr/icebreaker/internal/core/domain"
)

// FormatInstructionsVar is the template placeholder the extractor fills with
// FormatInstructions output.
const FormatInstructionsVar = "format_instructions"

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Extractor asks the model for a record and validates the reply against a schema.
// Compiled schemas are cached; otherwise it holds no per-call state and is safe
// for concurrent use.
type Extractor struct {
	logger *slog.Logger
	llm    domain.LLMProvider
	tracer *TraceCollector
	model  string

	mu       sync.Mutex
	compiler *jsonschema.Compiler
	compiled map[string]*jsonschema.Schema
}

// NewExtractor creates an extractor over the given model.
func NewExtractor(logger *slog.Logger, llm domain.LLMProvider, tracer *TraceCollector, model string) *Extractor {
	return &Extractor{
		logger:   logger,
		llm:      llm,
		tracer:   tracer,
		model:    model,
		compiler: jsonschema.NewCompiler(),
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// FormatInstructions renders the instruction block that tells the model which
// JSON shape to produce. It is deterministic for a given schema.
func FormatInstructions(schema domain.RecordSchema) string {
	return `The output should be formatted as a JSON instance that conforms to the JSON schema below.

As an example, for the schema {"properties": {"foo": {"title": "Foo", "description": "a list of strings", "type": "array", "items": {"type": "string"}}}, "required": ["foo"]}
the object {"foo": ["bar", "baz"]} is a well-formatted instance of the schema. The object {"properties": {"foo": ["bar", "baz"]}} is not well-formatted.

Here is the output schema:
` + "```\n" + schema.JSONSchema() + "\n```"
}

// RenderTemplate substitutes {name} placeholders in a single pass, so braces
// inside substituted values are never re-expanded. {format_instructions} is
// filled from the schema unless vars provides it.
func RenderTemplate(template string, schema domain.RecordSchema, vars map[string]string) (string, error) {
	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := vars[key]; ok {
			return v
		}
		if key == FormatInstructionsVar {
			return FormatInstructions(schema)
		}
		missing = append(missing, key)
		return m
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("render template: missing variables %v", missing)
	}
	return out, nil
}

// Extract renders the template, calls the model once and parses its reply.
func (e *Extractor) Extract(ctx context.Context, template string, schema domain.RecordSchema, vars map[string]string) (domain.SummaryResult, error) {
	prompt, err := RenderTemplate(template, schema, vars)
	if err != nil {
		return domain.SummaryResult{}, err
	}

	llmCtx, spanID := e.tracer.StartSpan(ctx, "llm.generate (extract)", domain.SpanKindLLM, map[string]string{
		"schema": schema.Name,
	})
	e.tracer.SetSpanInput(spanID, prompt)
	e.tracer.SetSpanModel(spanID, e.model)

	raw, err := e.llm.GenerateText(llmCtx, prompt)
	e.tracer.EndSpan(spanID, raw, err)
	if err != nil {
		return domain.SummaryResult{}, fmt.Errorf("llm generate: %w", err)
	}

	result, err := e.Parse(schema, raw)
	if err != nil {
		e.logger.Warn("model output failed schema validation", "schema", schema.Name, "error", err)
		return domain.SummaryResult{}, err
	}
	return result, nil
}

// Parse locates the JSON object in a model reply, validates it and decodes it
// into a SummaryResult. Prose around the object and code fences are ignored.
func (e *Extractor) Parse(schema domain.RecordSchema, raw string) (domain.SummaryResult, error) {
	var result domain.SummaryResult
	if err := e.Decode(schema, raw, &result); err != nil {
		return domain.SummaryResult{}, err
	}
	if result.Facts == nil {
		result.Facts = []string{}
	}
	return result, nil
}

// Decode is Parse for an arbitrary destination type.
func (e *Extractor) Decode(schema domain.RecordSchema, raw string, out any) error {
	fail := func(format string, args ...any) error {
		return &domain.SchemaValidationError{Raw: raw, Reason: fmt.Sprintf(format, args...)}
	}

	candidates := jsonObjects(stripCodeFences(raw))
	if len(candidates) == 0 {
		return fail("no JSON object found in model output")
	}

	compiled, err := e.schemaFor(schema)
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", schema.Name, err)
	}

	// The first object that satisfies the schema wins; echoed examples and
	// other stray objects before it are skipped.
	var reason string
	for _, c := range candidates {
		data := []byte(removeTrailingCommas(c))
		if !json.Valid(data) {
			continue
		}
		res := compiled.ValidateJSON(data)
		if !res.Valid {
			if reason == "" {
				reason = validationReason(res)
			}
			continue
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fail("decode: %v", err)
		}
		return nil
	}
	if reason == "" {
		return fail("model output is not valid JSON")
	}
	return fail("%s", reason)
}

// validationReason flattens the per-field errors of a failed evaluation into
// a stable "path: message" list.
func validationReason(res *jsonschema.EvaluationResult) string {
	detailed := res.GetDetailedErrors()
	if len(detailed) == 0 {
		return res.Error()
	}
	parts := make([]string, 0, len(detailed))
	for path, msg := range detailed {
		parts = append(parts, path+": "+msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func (e *Extractor) schemaFor(schema domain.RecordSchema) (*jsonschema.Schema, error) {
	doc := schema.JSONSchema()

	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.compiled[doc]; ok {
		return s, nil
	}
	s, err := e.compiler.Compile([]byte(doc))
	if err != nil {
		return nil, err
	}
	e.compiled[doc] = s
	return s, nil
}

// stripCodeFences removes markdown fence lines such as ```json and ```.
func stripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// jsonObjects returns every top-level balanced {...} region in order, skipping
// braces that appear inside JSON strings.
func jsonObjects(s string) []string {
	var out []string
	for start := strings.IndexByte(s, '{'); start >= 0; {
		end, ok := matchBrace(s, start)
		if !ok {
			// Unbalanced from here; a later brace may still open a full object.
			end = start
		} else {
			out = append(out, s[start:end+1])
		}
		next := strings.IndexByte(s[end+1:], '{')
		if next < 0 {
			break
		}
		start = end + 1 + next
	}
	return out
}

func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// removeTrailingCommas drops commas that directly precede a closing } or ],
// outside of strings.
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			b.WriteByte(c)
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && strings.IndexByte(" \t\r\n", s[j]) >= 0 {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
