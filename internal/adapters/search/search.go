// Package search implements web search backends for the profile resolver.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/manthysbr/icebreaker/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Backend is a named search provider.
type Backend interface {
	domain.Searcher
	Name() string
}

// StatusError reports a non-200 response from a search API.
type StatusError struct {
	Backend string
	Code    int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s api error: %d", e.Backend, e.Code)
}

func defaultClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: defaultTimeout}
}

// Chain tries each backend in order and returns the first successful answer.
// An empty result counts as an answer; only errors move on to the next backend.
type Chain struct {
	logger   *slog.Logger
	backends []Backend
}

// NewChain builds a fallback chain. It needs at least one backend.
func NewChain(logger *slog.Logger, backends ...Backend) (*Chain, error) {
	if len(backends) == 0 {
		return nil, errors.New("search chain needs at least one backend")
	}
	return &Chain{logger: logger, backends: backends}, nil
}

func (c *Chain) Name() string { return "auto" }

// Search implements domain.Searcher.
func (c *Chain) Search(ctx context.Context, query string, maxResults int) (domain.SearchResult, error) {
	var errs []error
	for _, b := range c.backends {
		result, err := b.Search(ctx, query, maxResults)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return domain.SearchResult{}, err
		}
		c.logger.Warn("search backend failed, falling back", "backend", b.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
	}
	return domain.SearchResult{}, errors.Join(errs...)
}
