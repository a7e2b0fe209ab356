package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/manthysbr/icebreaker/internal/adapters/providers"
	"github.com/manthysbr/icebreaker/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
}

func (s *scriptedLLM) GenerateText(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.responses) == 0 {
		return "Final Answer: \"\"", nil
	}
	r := s.responses[0]
	s.responses = s.responses[1:]
	return r, nil
}

func (s *scriptedLLM) Model() string { return "scripted" }

type staticSearcher struct{}

func (staticSearcher) Search(_ context.Context, query string, _ int) (domain.SearchResult, error) {
	return domain.SearchResult{Snippets: []domain.Snippet{{
		Title:   "Eden Marco - Customer Engineer - Google | LinkedIn",
		URL:     "https://www.linkedin.com/in/eden-marco/",
		Content: query,
	}}}, nil
}

type staticProfiles struct{}

func (staticProfiles) FetchProfile(_ context.Context, _ string) (domain.ProfileDocument, error) {
	return domain.ProfileDocument{
		"firstName": "Eden",
		"lastName":  "Marco",
		"photoUrl":  "https://media.licdn.com/eden.jpg",
	}, nil
}

const profileURL = "https://www.linkedin.com/in/eden-marco/"

func stubProviders(t *testing.T, llmResponses ...string) {
	t.Helper()
	original := buildProviders
	t.Cleanup(func() { buildProviders = original })

	buildProviders = func(_ *slog.Logger, _ *domain.AppConfig) (providers.Providers, error) {
		return providers.Providers{
			LLM:      &scriptedLLM{responses: llmResponses},
			Searcher: staticSearcher{},
			Profiles: staticProfiles{},
		}, nil
	}
}

func setEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ICEBREAKER_CONFIG_FILE", "")
	t.Setenv("OPENAI_API_KEY", "sk-test-0000-abcd")
	t.Setenv("SCRAPIN_API_KEY", "scrapin-test-wxyz")
	t.Setenv("ICEBREAKER_DUCKDB_PATH", "")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

var resolverScript = []string{
	"Thought: I should search for the profile.\nAction: web_search\nAction Input: Eden Marco",
	"Thought: I found it.\nFinal Answer: " + profileURL,
}

func TestVersionCommandOutputsBuildInfo(t *testing.T) {
	originalVersion, originalCommit := version, commit
	t.Cleanup(func() { version, commit = originalVersion, originalCommit })
	version, commit = "1.2.3", "abcdef1"

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "icebreaker 1.2.3")
	assert.Contains(t, out, "abcdef1")
}

func TestConfigCommandMasksSecrets(t *testing.T) {
	setEnv(t)

	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "****abcd")
	assert.Contains(t, out, "****wxyz")
	assert.NotContains(t, out, "sk-test-0000")
	assert.Contains(t, out, "max_steps: 5")
}

func TestConfigCommandReportsInvalidConfig(t *testing.T) {
	setEnv(t)
	t.Setenv("ICEBREAKER_RESOLVER_MAX_STEPS", "0")

	_, err := execute(t, "config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolver.maxsteps")
}

func TestRunCommandPrintsIceBreaker(t *testing.T) {
	setEnv(t)
	dbPath := filepath.Join(t.TempDir(), "traces.db")
	t.Setenv("ICEBREAKER_DUCKDB_PATH", dbPath)
	stubProviders(t, append(resolverScript, `{"summary": "Eden is an engineer.", "facts": ["Teaches", "Builds"]}`)...)

	out, err := execute(t, "run", "--name", "Eden Marco")
	require.NoError(t, err)

	var result domain.IceBreaker
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, profileURL, result.ProfileURL)
	assert.Equal(t, "Eden is an engineer.", result.Summary.Summary)
	assert.Equal(t, []string{"Teaches", "Builds"}, result.Summary.Facts)
	require.NotNil(t, result.PhotoURL)
	assert.Equal(t, "https://media.licdn.com/eden.jpg", *result.PhotoURL)
	assert.Len(t, result.Steps, 2)
	require.NotEmpty(t, result.TraceID)

	listing, err := execute(t, "traces")
	require.NoError(t, err)
	assert.Contains(t, listing, string(result.TraceID))
	assert.Contains(t, listing, "icebreaker: Eden Marco")

	detail, err := execute(t, "traces", string(result.TraceID))
	require.NoError(t, err)
	var trace domain.Trace
	require.NoError(t, json.Unmarshal([]byte(detail), &trace))
	assert.Equal(t, result.TraceID, trace.ID)
	assert.Equal(t, profileURL, trace.ProfileURL)
}

func TestRunCommandReportsErrorKind(t *testing.T) {
	setEnv(t)
	stubProviders(t, "Thought: nothing.\nFinal Answer: \"\"")

	_, err := execute(t, "run", "--name", "Nobody Here")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	assert.Contains(t, err.Error(), "ProfileNotFound")
}

func TestRunCommandRequiresName(t *testing.T) {
	setEnv(t)
	_, err := execute(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"name" not set`)
}

func TestLookupCommand(t *testing.T) {
	setEnv(t)
	stubProviders(t, resolverScript...)

	out, err := execute(t, "lookup", "--name", "Eden Marco", "--steps")
	require.NoError(t, err)
	assert.Contains(t, out, "step 1")
	assert.Contains(t, out, `action: web_search("Eden Marco")`)
	assert.Contains(t, out, "final answer: "+profileURL)
	assert.Contains(t, out, profileURL+"\n")
}

func TestTracesCommandRequiresStorage(t *testing.T) {
	setEnv(t)
	_, err := execute(t, "traces")
	assert.ErrorIs(t, err, errStorageDisabled)
}
