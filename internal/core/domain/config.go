package domain

import "time"

// LLMProviderConfig configures the LLM provider
type LLMProviderConfig struct {
	Mode        string        `yaml:"mode"        split_words:"true" validate:"oneof=openai ollama"` // "openai" or "ollama"
	BaseURL     string        `yaml:"base_url"    split_words:"true" validate:"omitempty,url"`
	APIKey      string        `yaml:"api_key"     envconfig:"OPENAI_API_KEY" validate:"required_if=Mode openai"`
	Model       string        `yaml:"model"       split_words:"true" validate:"required"`
	Temperature float64       `yaml:"temperature" split_words:"true" validate:"gte=0,lte=2"`
	Timeout     time.Duration `yaml:"timeout"     split_words:"true" validate:"gt=0"`
}

// SearchConfig configures the web search backend used by the resolver's tool
type SearchConfig struct {
	Provider    string        `yaml:"provider"      split_words:"true" validate:"oneof=auto tavily brave duckduckgo"`
	TavilyKey   string        `yaml:"tavily_key"    envconfig:"TAVILY_API_KEY"       validate:"required_if=Provider tavily"`
	BraveKey    string        `yaml:"brave_key"     envconfig:"BRAVE_SEARCH_API_KEY" validate:"required_if=Provider brave"`
	MaxResults  int           `yaml:"max_results"   split_words:"true" validate:"gte=1,lte=10"`
	Timeout     time.Duration `yaml:"timeout"       split_words:"true" validate:"gt=0"`
	QuerySuffix string        `yaml:"query_suffix"  split_words:"true"`
}

// ProfileConfig configures the profile data source
type ProfileConfig struct {
	Mock     bool          `yaml:"mock"`
	MockURL  string        `yaml:"mock_url"  split_words:"true" validate:"omitempty,url"`
	MockFile string        `yaml:"mock_file" split_words:"true"`
	BaseURL  string        `yaml:"base_url"  split_words:"true" validate:"required,url"`
	APIKey   string        `yaml:"api_key"   envconfig:"SCRAPIN_API_KEY" validate:"required_unless=Mock true"`
	Timeout  time.Duration `yaml:"timeout"   split_words:"true" validate:"gt=0"`
}

// ResolverConfig bounds the ReAct loop
type ResolverConfig struct {
	MaxSteps int `yaml:"max_steps" split_words:"true" validate:"gte=1,lte=50"`
}

// StorageConfig configures trace persistence. An empty path disables it.
type StorageConfig struct {
	DuckDBPath string `yaml:"duckdb_path" envconfig:"ICEBREAKER_DUCKDB_PATH"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string   `yaml:"addr"            split_words:"true" validate:"required"`
	AllowedOrigins []string `yaml:"allowed_origins" split_words:"true"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
}

// AppConfig is the main application configuration
type AppConfig struct {
	Server   ServerConfig      `yaml:"server"`
	LLM      LLMProviderConfig `yaml:"llm"`
	Search   SearchConfig      `yaml:"search"`
	Profile  ProfileConfig     `yaml:"profile"`
	Resolver ResolverConfig    `yaml:"resolver"`
	Storage  StorageConfig     `yaml:"storage"`
	Log      LogConfig         `yaml:"log"`
}

// DefaultConfig returns safe defaults
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		LLM: LLMProviderConfig{
			Mode:        "openai",
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0,
			Timeout:     60 * time.Second,
		},
		Search: SearchConfig{
			Provider:    "auto",
			MaxResults:  1,
			Timeout:     10 * time.Second,
			QuerySuffix: "LinkedIn profile",
		},
		Profile: ProfileConfig{
			MockURL: "https://gist.githubusercontent.com/YFolla/ff1954753eb6354728a292e77ee10795/raw/b177fcc64b7308b8b3a81eddbbb09bf647ed19c6/yfolla_linkedin.json",
			BaseURL: "https://api.scrapin.io/enrichment/profile",
			Timeout: 10 * time.Second,
		},
		Resolver: ResolverConfig{
			MaxSteps: 5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
