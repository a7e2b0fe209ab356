package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/manthysbr/icebreaker/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(llm domain.LLMProvider) *Extractor {
	return NewExtractor(testLogger(), llm, nil, "test-model")
}

func TestFormatInstructions_Deterministic(t *testing.T) {
	a := FormatInstructions(domain.SummarySchema)
	b := FormatInstructions(domain.SummarySchema)
	assert.Equal(t, a, b)

	assert.True(t, strings.HasPrefix(a, "The output should be formatted as a JSON instance that conforms to the JSON schema below."))
	assert.Contains(t, a, `"summary": {"description": "summary of the person"`)
	assert.Contains(t, a, `"required": ["summary", "facts"]`)
	assert.Less(t, strings.Index(a, `"summary": {`), strings.Index(a, `"facts": {`))
}

func TestParse_ProsePrefix(t *testing.T) {
	raw := `Here you go: {"summary":"A","facts":["x","y"]}`

	got, err := newTestExtractor(nil).Parse(domain.SummarySchema, raw)
	require.NoError(t, err)
	assert.Equal(t, domain.SummaryResult{Summary: "A", Facts: []string{"x", "y"}}, got)
}

func TestParse_Lenient(t *testing.T) {
	cases := map[string]string{
		"code fence":     "```json\n{\"summary\": \"A\", \"facts\": [\"x\"]}\n```",
		"trailing comma": `{"summary": "A", "facts": ["x",],}`,
		"braces in text": `Sure {not json} -> {"summary": "A {really}", "facts": ["x"]} done`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := newTestExtractor(nil).Parse(domain.SummarySchema, raw)
			require.NoError(t, err)
			assert.Equal(t, "x", got.Facts[0])
			assert.True(t, strings.HasPrefix(got.Summary, "A"))
		})
	}
}

func TestParse_EmptyFacts(t *testing.T) {
	got, err := newTestExtractor(nil).Parse(domain.SummarySchema, `{"summary":"A","facts":[]}`)
	require.NoError(t, err)
	assert.NotNil(t, got.Facts)
	assert.Empty(t, got.Facts)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"no json":         "I could not find anything about this person.",
		"missing facts":   `{"summary":"A"}`,
		"wrong type":      `{"summary":"A","facts":"x"}`,
		"non-string fact": `{"summary":"A","facts":[1]}`,
		"unbalanced":      `{"summary":"A","facts":["x"]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newTestExtractor(nil).Parse(domain.SummarySchema, raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrSchemaValidation)

			var schemaErr *domain.SchemaValidationError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, raw, schemaErr.Raw)
			assert.NotEmpty(t, schemaErr.Reason)
		})
	}
}

func TestParse_SkipsNonConformingObjects(t *testing.T) {
	cases := map[string]string{
		"empty object first":   `Example {} then {"summary": "s", "facts": []}`,
		"echoed format sample": `Like {"foo": ["bar", "baz"]}: {"summary": "s", "facts": []}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := newTestExtractor(nil).Parse(domain.SummarySchema, raw)
			require.NoError(t, err)
			assert.Equal(t, domain.SummaryResult{Summary: "s", Facts: []string{}}, got)
		})
	}
}

func TestParse_ReasonNamesField(t *testing.T) {
	cases := map[string]string{
		"missing facts": `{"summary":"A"}`,
		"null facts":    `{"summary":"A","facts":null}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newTestExtractor(nil).Parse(domain.SummarySchema, raw)
			var schemaErr *domain.SchemaValidationError
			require.ErrorAs(t, err, &schemaErr)
			assert.Contains(t, schemaErr.Reason, "facts")
			assert.NotEqual(t, "evaluation failed", schemaErr.Reason)
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	ex := newTestExtractor(nil)
	first, err := ex.Parse(domain.SummarySchema, "Result:\n```json\n{\"summary\": \"Builds compilers.\", \"facts\": [\"Ran a marathon\", \"Speaks 4 languages\"]}\n```")
	require.NoError(t, err)

	encoded, err := json.Marshal(first)
	require.NoError(t, err)

	second, err := ex.Parse(domain.SummarySchema, string(encoded))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("info {information}\n{format_instructions}", domain.SummarySchema, map[string]string{
		"information": `{"name": "{format_instructions}"}`,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `info {"name": "{format_instructions}"}`))
	assert.Contains(t, out, "conforms to the JSON schema below")

	_, err = RenderTemplate("{information} {other}", domain.SummarySchema, map[string]string{"information": "x"})
	assert.ErrorContains(t, err, "other")
}

func TestExtract(t *testing.T) {
	llm := new(MockLLM)
	llm.On("GenerateText", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, `"firstName":"Jane"`) && strings.Contains(prompt, "JSON schema below")
	})).Return(`{"summary":"Jane builds things.","facts":["one","two"]}`, nil).Once()

	got, err := newTestExtractor(llm).Extract(context.Background(), SummaryTemplate, domain.SummarySchema, map[string]string{
		"information": `{"firstName":"Jane"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got.Facts)
	llm.AssertExpectations(t)
}
