package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/manthysbr/icebreaker/internal/core/domain"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Brave queries the Brave Search API.
type Brave struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// NewBrave creates a Brave backend. A nil client gets a 10s default.
func NewBrave(apiKey string, client *http.Client) *Brave {
	return &Brave{client: defaultClient(client), endpoint: braveEndpoint, apiKey: apiKey}
}

// WithEndpoint overrides the API URL.
func (b *Brave) WithEndpoint(endpoint string) *Brave {
	b.endpoint = endpoint
	return b
}

func (b *Brave) Name() string { return "brave" }

// Search implements domain.Searcher.
func (b *Brave) Search(ctx context.Context, query string, maxResults int) (domain.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return domain.SearchResult{}, err
	}
	req.Header.Set("X-Subscription-Token", b.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return domain.SearchResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.SearchResult{}, &StatusError{Backend: b.Name(), Code: resp.StatusCode}
	}

	var braveResp struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&braveResp); err != nil {
		return domain.SearchResult{}, fmt.Errorf("decoding brave response: %w", err)
	}

	var result domain.SearchResult
	for _, r := range braveResp.Web.Results {
		result.Snippets = append(result.Snippets, domain.Snippet{
			Title:   r.Title,
			URL:     r.URL,
			Content: stripBold(r.Description),
		})
	}
	return result, nil
}
