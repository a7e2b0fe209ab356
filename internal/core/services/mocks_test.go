package services

import (
	"context"
	"io"
	"log/slog"

	"github.com/manthysbr/icebreaker/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) GenerateText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// scriptedLLM returns a MockLLM that answers with each response once, in order.
func scriptedLLM(responses ...string) *MockLLM {
	m := new(MockLLM)
	for _, r := range responses {
		m.On("GenerateText", mock.Anything, mock.Anything).Return(r, nil).Once()
	}
	return m
}

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, query string, maxResults int) (domain.SearchResult, error) {
	args := m.Called(ctx, query, maxResults)
	return args.Get(0).(domain.SearchResult), args.Error(1)
}

type MockProfileSource struct {
	mock.Mock
}

func (m *MockProfileSource) FetchProfile(ctx context.Context, profileURL string) (domain.ProfileDocument, error) {
	args := m.Called(ctx, profileURL)
	doc, _ := args.Get(0).(domain.ProfileDocument)
	return doc, args.Error(1)
}

func linkedInResult(url string) domain.SearchResult {
	return domain.SearchResult{Snippets: []domain.Snippet{{
		Title:   "Jane Doe - Staff Engineer | LinkedIn",
		URL:     url,
		Content: "Staff Engineer at Acme.",
	}}}
}
