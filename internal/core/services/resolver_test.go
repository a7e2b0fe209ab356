package services

import (
	"context"
	"errors"
	"testing"

	"github.com/manthysbr/icebreaker/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, llm domain.LLMProvider, searcher domain.Searcher, maxSteps int) *ProfileResolver {
	t.Helper()
	tools, err := domain.NewToolRegistry(NewWebSearchTool(searcher, WebSearchOptions{MaxResults: 1}))
	require.NoError(t, err)
	return NewProfileResolver(testLogger(), llm, tools, nil, "test-model", maxSteps)
}

func TestResolve_TwoSteps(t *testing.T) {
	const url = "https://www.linkedin.com/in/jane-doe"

	llm := scriptedLLM(
		"Thought: I should search for Jane Doe\nAction: web_search\nAction Input: Jane Doe",
		"Thought: I now know the final answer\nFinal Answer: "+url,
	)
	searcher := new(MockSearcher)
	searcher.On("Search", mock.Anything, "Jane Doe", 1).Return(linkedInResult(url), nil).Once()

	got, steps, err := newTestResolver(t, llm, searcher, 5).Resolve(context.Background(), domain.ResolutionRequest{SubjectName: "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, url, got)
	require.Len(t, steps, 2)

	assert.Equal(t, "web_search", steps[0].Action.ToolName)
	assert.Contains(t, steps[0].Observation, url)
	assert.True(t, steps[1].IsFinal)

	llm.AssertExpectations(t)
	searcher.AssertExpectations(t)

	// The second prompt carries the first step and its observation.
	second := llm.Calls[1].Arguments.String(1)
	assert.Contains(t, second, "Action Input: Jane Doe")
	assert.Contains(t, second, "Observation: Title: Jane Doe - Staff Engineer | LinkedIn")
}

func TestResolve_BudgetExhausted(t *testing.T) {
	llm := new(MockLLM)
	llm.On("GenerateText", mock.Anything, mock.Anything).Return("Thought: search again\nAction: web_search\nAction Input: Jane Doe", nil)
	searcher := new(MockSearcher)
	searcher.On("Search", mock.Anything, mock.Anything, 1).Return(domain.SearchResult{}, nil)

	_, steps, err := newTestResolver(t, llm, searcher, 1).Resolve(context.Background(), domain.ResolutionRequest{SubjectName: "Jane Doe"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResolutionIncomplete)

	var incomplete *domain.ResolutionIncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 1, incomplete.MaxSteps)
	assert.Len(t, incomplete.Steps, 1)
	assert.Len(t, steps, 1)
	llm.AssertNumberOfCalls(t, "GenerateText", 1)
}

func TestResolve_NoResultsIsAnObservation(t *testing.T) {
	llm := scriptedLLM(
		"Action: web_search\nAction Input: Nobody Atall",
		"Thought: nothing found\nFinal Answer: \"\"",
	)
	searcher := new(MockSearcher)
	searcher.On("Search", mock.Anything, "Nobody Atall", 1).Return(domain.SearchResult{}, nil)

	got, steps, err := newTestResolver(t, llm, searcher, 5).Resolve(context.Background(), domain.ResolutionRequest{SubjectName: "Nobody Atall"})
	require.NoError(t, err)
	assert.Equal(t, "", got)
	require.Len(t, steps, 2)
	assert.Equal(t, `No results found for query "Nobody Atall".`, steps[0].Observation)
}

func TestResolve_UnknownTool(t *testing.T) {
	llm := scriptedLLM("Thought: let me browse\nAction: browser\nAction Input: linkedin.com")

	_, steps, err := newTestResolver(t, llm, new(MockSearcher), 5).Resolve(context.Background(), domain.ResolutionRequest{SubjectName: "Jane Doe"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownTool)

	var unknown *domain.UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "browser", unknown.Name)
	assert.Len(t, steps, 1)
}

func TestResolve_ParseError(t *testing.T) {
	llm := scriptedLLM("I'm not sure what to do here.")

	_, _, err := newTestResolver(t, llm, new(MockSearcher), 5).Resolve(context.Background(), domain.ResolutionRequest{SubjectName: "Jane Doe"})
	assert.ErrorIs(t, err, domain.ErrActionParse)
	llm.AssertNumberOfCalls(t, "GenerateText", 1)
}

func TestResolve_SearchFailureIsFatal(t *testing.T) {
	boom := errors.New("connection refused")
	llm := scriptedLLM("Action: web_search\nAction Input: Jane Doe")
	searcher := new(MockSearcher)
	searcher.On("Search", mock.Anything, "Jane Doe", 1).Return(domain.SearchResult{}, boom)

	_, _, err := newTestResolver(t, llm, searcher, 5).Resolve(context.Background(), domain.ResolutionRequest{SubjectName: "Jane Doe"})
	assert.ErrorIs(t, err, boom)
}

func TestResolve_LLMFailure(t *testing.T) {
	llm := new(MockLLM)
	llm.On("GenerateText", mock.Anything, mock.Anything).Return("", context.DeadlineExceeded)

	_, _, err := newTestResolver(t, llm, new(MockSearcher), 5).Resolve(context.Background(), domain.ResolutionRequest{SubjectName: "Jane Doe"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "Timeout", domain.ErrorKind(err))
}

func TestResolve_EmptyName(t *testing.T) {
	llm := new(MockLLM)
	_, _, err := newTestResolver(t, llm, new(MockSearcher), 5).Resolve(context.Background(), domain.ResolutionRequest{SubjectName: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyName)
	llm.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
}

func TestNewProfileResolver_DefaultBudget(t *testing.T) {
	r := NewProfileResolver(testLogger(), new(MockLLM), nil, nil, "", 0)
	assert.Equal(t, DefaultMaxSteps, r.MaxSteps())
}

func TestResolve_PromptListsTools(t *testing.T) {
	llm := scriptedLLM("Final Answer: https://www.linkedin.com/in/jane-doe")
	_, _, err := newTestResolver(t, llm, new(MockSearcher), 5).Resolve(context.Background(), domain.ResolutionRequest{SubjectName: "Jane Doe"})
	require.NoError(t, err)

	prompt := llm.Calls[0].Arguments.String(1)
	assert.Contains(t, prompt, "Given the full name Jane Doe")
	assert.Contains(t, prompt, "web_search: ")
	assert.Contains(t, prompt, "should be one of [web_search]")
}
