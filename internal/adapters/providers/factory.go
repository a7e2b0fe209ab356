package providers

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/manthysbr/icebreaker/internal/adapters/llm"
	"github.com/manthysbr/icebreaker/internal/adapters/profile"
	"github.com/manthysbr/icebreaker/internal/adapters/search"
	"github.com/manthysbr/icebreaker/internal/core/domain"
)

// LLM is a provider that also reports the model it calls, for tracing.
type LLM interface {
	domain.LLMProvider
	Model() string
}

// Providers bundles the external collaborators of one pipeline.
type Providers struct {
	LLM      LLM
	Searcher domain.Searcher
	Profiles domain.ProfileSource
}

// Build creates every provider from app configuration.
// It hides backend selection from callers.
func Build(logger *slog.Logger, config *domain.AppConfig) (Providers, error) {
	if config == nil {
		config = domain.DefaultConfig()
	}

	llmProvider, err := BuildLLM(config.LLM)
	if err != nil {
		return Providers{}, err
	}
	searcher, err := BuildSearcher(logger, config.Search)
	if err != nil {
		return Providers{}, err
	}
	return Providers{
		LLM:      llmProvider,
		Searcher: searcher,
		Profiles: BuildProfileSource(logger, config.Profile),
	}, nil
}

// BuildLLM selects the OpenAI or Ollama provider.
func BuildLLM(config domain.LLMProviderConfig) (LLM, error) {
	mode := strings.ToLower(strings.TrimSpace(config.Mode))
	switch mode {
	case "", "openai":
		return llm.NewOpenAIProvider(
			strings.TrimSpace(config.BaseURL),
			strings.TrimSpace(config.APIKey),
			strings.TrimSpace(config.Model),
			config.Temperature,
			config.Timeout,
		), nil
	case "ollama":
		baseURL := strings.TrimSpace(os.Getenv("OLLAMA_HOST"))
		if baseURL == "" {
			baseURL = strings.TrimSpace(config.BaseURL)
		}
		return llm.NewOllamaProvider(
			normalizeOllamaBaseURL(baseURL),
			strings.TrimSpace(config.Model),
			config.Temperature,
			config.Timeout,
		), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider mode: %s", config.Mode)
	}
}

// BuildSearcher selects a single search backend, or for "auto" a fallback
// chain of every backend with a key configured, ending at DuckDuckGo.
func BuildSearcher(logger *slog.Logger, config domain.SearchConfig) (domain.Searcher, error) {
	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "tavily":
		if config.TavilyKey == "" {
			return nil, fmt.Errorf("search provider tavily requires TAVILY_API_KEY")
		}
		return search.NewTavily(config.TavilyKey, nil), nil
	case "brave":
		if config.BraveKey == "" {
			return nil, fmt.Errorf("search provider brave requires BRAVE_SEARCH_API_KEY")
		}
		return search.NewBrave(config.BraveKey, nil), nil
	case "duckduckgo":
		return search.NewDuckDuckGo(nil), nil
	case "", "auto":
		var backends []search.Backend
		if config.TavilyKey != "" {
			backends = append(backends, search.NewTavily(config.TavilyKey, nil))
		}
		if config.BraveKey != "" {
			backends = append(backends, search.NewBrave(config.BraveKey, nil))
		}
		backends = append(backends, search.NewDuckDuckGo(nil))
		return search.NewChain(logger, backends...)
	default:
		return nil, fmt.Errorf("unsupported search provider: %s", config.Provider)
	}
}

// BuildProfileSource returns the mock source when profile.mock is set and
// the live Scrapin source otherwise.
func BuildProfileSource(logger *slog.Logger, config domain.ProfileConfig) domain.ProfileSource {
	if config.Mock {
		return profile.NewMockSource(logger, config.MockURL, config.MockFile, config.Timeout)
	}
	return profile.NewScrapinSource(logger, config.BaseURL, config.APIKey, config.Timeout)
}

func normalizeOllamaBaseURL(baseURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if strings.HasSuffix(trimmed, "/v1") {
		return strings.TrimSuffix(trimmed, "/v1")
	}
	return trimmed
}
