// Package profile implements profile data sources: the Scrapin.io enrichment
// API and a mock source backed by a static document.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/manthysbr/icebreaker/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// envelope is the response shape shared by the live API and the mock document.
type envelope struct {
	Person map[string]any `json:"person"`
}

// ScrapinSource fetches profiles from the Scrapin.io enrichment endpoint.
type ScrapinSource struct {
	logger  *slog.Logger
	client  *http.Client
	timeout time.Duration
	baseURL string
	apiKey  string
}

// NewScrapinSource creates a live profile source. Each fetch runs under its own
// deadline; timeout <= 0 uses 10s.
func NewScrapinSource(logger *slog.Logger, baseURL, apiKey string, timeout time.Duration) *ScrapinSource {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ScrapinSource{
		logger:  logger,
		client:  &http.Client{},
		timeout: timeout,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// FetchProfile implements domain.ProfileSource.
func (s *ScrapinSource) FetchProfile(ctx context.Context, profileURL string) (domain.ProfileDocument, error) {
	params := url.Values{}
	params.Set("apikey", s.apiKey)
	params.Set("linkedInUrl", profileURL)

	s.logger.Debug("fetching profile", "profile_url", profileURL)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fetchJSON(ctx, s.client, s.baseURL+"?"+params.Encode(), "scrapin")
}

// MockSource serves one fixed profile regardless of the requested URL, read
// either from a local file or from a URL.
type MockSource struct {
	logger  *slog.Logger
	client  *http.Client
	timeout time.Duration
	url     string
	file    string
}

// NewMockSource creates a mock profile source. file takes precedence over url.
func NewMockSource(logger *slog.Logger, mockURL, mockFile string, timeout time.Duration) *MockSource {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &MockSource{
		logger:  logger,
		client:  &http.Client{},
		timeout: timeout,
		url:     mockURL,
		file:    mockFile,
	}
}

// FetchProfile implements domain.ProfileSource. profileURL is ignored.
func (m *MockSource) FetchProfile(ctx context.Context, profileURL string) (domain.ProfileDocument, error) {
	m.logger.Debug("serving mock profile", "profile_url", profileURL, "file", m.file, "url", m.url)

	if m.file != "" {
		f, err := os.Open(m.file)
		if err != nil {
			return nil, &domain.DataSourceError{Op: "mock file", Err: err}
		}
		defer f.Close()
		return decodeEnvelope(f, "mock file")
	}
	if m.url == "" {
		return nil, &domain.DataSourceError{Op: "mock", Err: errors.New("neither mock file nor mock url configured")}
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return fetchJSON(ctx, m.client, m.url, "mock url")
}

func fetchJSON(ctx context.Context, client *http.Client, target, op string) (domain.ProfileDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &domain.DataSourceError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.DataSourceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &domain.DataSourceError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}
	return decodeEnvelope(resp.Body, op)
}

func decodeEnvelope(r io.Reader, op string) (domain.ProfileDocument, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, &domain.DataSourceError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if env.Person == nil {
		return nil, &domain.DataSourceError{Op: op, Err: errors.New(`response has no "person" object`)}
	}
	return domain.CleanProfile(env.Person), nil
}
