package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/manthysbr/icebreaker/internal/core/domain"
)

const duckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the non-JS DuckDuckGo results page. It needs no API key.
type DuckDuckGo struct {
	client   *http.Client
	endpoint string
}

// NewDuckDuckGo creates a DuckDuckGo backend. A nil client gets a 10s default.
func NewDuckDuckGo(client *http.Client) *DuckDuckGo {
	return &DuckDuckGo{client: defaultClient(client), endpoint: duckDuckGoEndpoint}
}

// WithEndpoint overrides the results page URL.
func (d *DuckDuckGo) WithEndpoint(endpoint string) *DuckDuckGo {
	d.endpoint = endpoint
	return d
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Search implements domain.Searcher.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) (domain.SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return domain.SearchResult{}, err
	}
	// Use a desktop User-Agent to avoid being blocked or served the mobile layout
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := d.client.Do(req)
	if err != nil {
		return domain.SearchResult{}, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return domain.SearchResult{}, &StatusError{Backend: d.Name(), Code: resp.StatusCode}
	}

	doc, err := readDoc(resp.Body)
	if err != nil {
		return domain.SearchResult{}, err
	}
	return parseDuckDuckGo(doc, maxResults), nil
}

// parseDuckDuckGo reads result blocks: a.result__a carries title and link,
// .result__snippet the text.
func parseDuckDuckGo(doc *goquery.Document, maxResults int) domain.SearchResult {
	var result domain.SearchResult
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if maxResults > 0 && len(result.Snippets) >= maxResults {
			return false
		}
		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if !ok || title == "" {
			return true
		}
		result.Snippets = append(result.Snippets, domain.Snippet{
			Title:   title,
			URL:     decodeRedirect(href),
			Content: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		})
		return true
	})
	return result
}

// decodeRedirect unwraps DuckDuckGo's //duckduckgo.com/l/?uddg=... links.
func decodeRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func readDoc(body io.ReadCloser) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML document: %w", errors.Join(err, body.Close()))
	}
	if err := body.Close(); err != nil {
		return nil, fmt.Errorf("parsing HTML document: %w", err)
	}
	return doc, nil
}

func stripBold(s string) string {
	s = strings.ReplaceAll(s, "<strong>", "")
	s = strings.ReplaceAll(s, "</strong>", "")
	return strings.TrimSpace(s)
}
