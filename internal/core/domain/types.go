package domain

import "context"

// LLMProvider defines the interface for LLM services
type LLMProvider interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ProfileSource fetches the cleaned profile document for a resolved profile URL.
type ProfileSource interface {
	FetchProfile(ctx context.Context, profileURL string) (ProfileDocument, error)
}

// Searcher queries a web search backend.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) (SearchResult, error)
}
