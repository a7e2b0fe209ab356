package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/manthysbr/icebreaker/internal/core/domain"
)

// WebSearchToolName is the name the resolver's model uses to call the search tool.
const WebSearchToolName = "web_search"

// WebSearchOptions tunes the search tool adapter.
type WebSearchOptions struct {
	MaxResults  int           // snippets requested per query; 1 keeps the transcript focused
	Timeout     time.Duration // per-call deadline; 0 leaves the caller's deadline in place
	QuerySuffix string        // appended to every query, e.g. "LinkedIn profile"
}

// NewWebSearchTool wraps a search backend as the resolver's single search action.
// Zero results become an explicit "no results" observation rather than an error,
// so the model can reformulate its query within its own step budget.
func NewWebSearchTool(searcher domain.Searcher, opts WebSearchOptions) domain.Tool {
	if opts.MaxResults < 1 {
		opts.MaxResults = 1
	}

	return domain.Tool{
		Kind:        domain.ToolKindSearch,
		Name:        WebSearchToolName,
		Description: "useful when you need to find a person's LinkedIn profile URL from their name. Input is a plain-text search query.",
		Search: func(ctx context.Context, query string) (string, error) {
			query = strings.TrimSpace(query)
			if query == "" {
				return "Search query was empty. Provide the person's name as Action Input.", nil
			}
			if opts.QuerySuffix != "" && !strings.Contains(strings.ToLower(query), strings.ToLower(opts.QuerySuffix)) {
				query = query + " " + opts.QuerySuffix
			}

			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
				defer cancel()
			}

			result, err := searcher.Search(ctx, query, opts.MaxResults)
			if err != nil {
				return "", fmt.Errorf("search %q: %w", query, err)
			}
			if len(result.Snippets) > opts.MaxResults {
				result.Snippets = result.Snippets[:opts.MaxResults]
			}
			return FormatSearchObservation(query, result), nil
		},
	}
}

// FormatSearchObservation serializes search snippets into one transcript string.
func FormatSearchObservation(query string, result domain.SearchResult) string {
	if len(result.Snippets) == 0 {
		return fmt.Sprintf("No results found for query %q.", query)
	}

	var b strings.Builder
	for i, s := range result.Snippets {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if len(result.Snippets) > 1 {
			fmt.Fprintf(&b, "[%d]\n", i+1)
		}
		fmt.Fprintf(&b, "Title: %s\nURL: %s\nContent: %s", s.Title, s.URL, strings.TrimSpace(s.Content))
	}
	return b.String()
}
