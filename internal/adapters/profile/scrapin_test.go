package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/manthysbr/icebreaker/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personJSON = `{
  "success": true,
  "person": {
    "firstName": "Jane",
    "lastName": "Doe",
    "headline": "Staff Engineer",
    "summary": "",
    "skills": [],
    "languages": null,
    "certifications": [{"name": "CKA"}],
    "photoUrl": "https://media.licdn.com/jane.jpg",
    "positions": {"positionsCount": 2, "positionHistory": [{"title": "Engineer"}]}
  }
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScrapinSourceFetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))
		assert.Equal(t, "https://www.linkedin.com/in/jane-doe", r.URL.Query().Get("linkedInUrl"))
		_, _ = io.WriteString(w, personJSON)
	}))
	defer srv.Close()

	src := NewScrapinSource(testLogger(), srv.URL, "secret", time.Second)
	doc, err := src.FetchProfile(context.Background(), "https://www.linkedin.com/in/jane-doe")
	require.NoError(t, err)

	assert.Equal(t, "Jane", doc["firstName"])
	assert.Equal(t, "Staff Engineer", doc["headline"])
	assert.NotContains(t, doc, "summary")
	assert.NotContains(t, doc, "skills")
	assert.NotContains(t, doc, "languages")
	assert.NotContains(t, doc, "certifications")
	assert.Contains(t, doc, "positions")

	photo, ok := doc.PhotoURL()
	assert.True(t, ok)
	assert.Equal(t, "https://media.licdn.com/jane.jpg", photo)
}

func TestScrapinSourceMissingPerson(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success": false, "msg": "not found"}`)
	}))
	defer srv.Close()

	_, err := NewScrapinSource(testLogger(), srv.URL, "k", time.Second).FetchProfile(context.Background(), "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataSource)

	var dsErr *domain.DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, "scrapin", dsErr.Op)
}

func TestScrapinSourceStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewScrapinSource(testLogger(), srv.URL, "k", time.Second).FetchProfile(context.Background(), "u")
	assert.ErrorIs(t, err, domain.ErrDataSource)
	assert.Contains(t, err.Error(), "401")
}

func TestScrapinSourceTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewScrapinSource(testLogger(), srv.URL, "k", 50*time.Millisecond).FetchProfile(context.Background(), "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataSource)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	var dsErr *domain.DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.True(t, dsErr.Timeout())
}

func TestMockSourceFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(personJSON), 0o600))

	src := NewMockSource(testLogger(), "", path, time.Second)
	doc, err := src.FetchProfile(context.Background(), "https://www.linkedin.com/in/anyone")
	require.NoError(t, err)
	assert.Equal(t, "Doe", doc["lastName"])
	assert.NotContains(t, doc, "certifications")
}

func TestMockSourceFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, personJSON)
	}))
	defer srv.Close()

	doc, err := NewMockSource(testLogger(), srv.URL, "", time.Second).FetchProfile(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, "Jane", doc["firstName"])
}

func TestMockSourceUnconfigured(t *testing.T) {
	_, err := NewMockSource(testLogger(), "", "", time.Second).FetchProfile(context.Background(), "u")
	assert.ErrorIs(t, err, domain.ErrDataSource)
}
