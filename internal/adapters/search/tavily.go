package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/manthysbr/icebreaker/internal/core/domain"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// Tavily queries the Tavily search API.
type Tavily struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// NewTavily creates a Tavily backend. A nil client gets a 10s default.
func NewTavily(apiKey string, client *http.Client) *Tavily {
	return &Tavily{client: defaultClient(client), endpoint: tavilyEndpoint, apiKey: apiKey}
}

// WithEndpoint overrides the API URL.
func (t *Tavily) WithEndpoint(endpoint string) *Tavily {
	t.endpoint = endpoint
	return t
}

func (t *Tavily) Name() string { return "tavily" }

type tavilyRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search implements domain.Searcher.
func (t *Tavily) Search(ctx context.Context, query string, maxResults int) (domain.SearchResult, error) {
	body, err := json.Marshal(tavilyRequest{Query: query, MaxResults: maxResults, SearchDepth: "basic"})
	if err != nil {
		return domain.SearchResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.SearchResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return domain.SearchResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.SearchResult{}, &StatusError{Backend: t.Name(), Code: resp.StatusCode}
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return domain.SearchResult{}, fmt.Errorf("decoding tavily response: %w", err)
	}

	result := domain.SearchResult{Snippets: make([]domain.Snippet, 0, len(tr.Results))}
	for _, r := range tr.Results {
		result.Snippets = append(result.Snippets, domain.Snippet{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	return result, nil
}
