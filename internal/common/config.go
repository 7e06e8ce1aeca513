package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/safebite/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment   string              `toml:"environment"` // "development" or "production"
	Server        ServerConfig        `toml:"server"`
	Storage       StorageConfig       `toml:"storage"`
	Logging       LoggingConfig       `toml:"logging"`
	OpenFoodFacts OpenFoodFactsConfig `toml:"openfoodfacts"`
	LLM           LLMConfig           `toml:"llm"`
	OpenAI        OpenAIConfig        `toml:"openai"`
	Claude        ClaudeConfig        `toml:"claude"`
	Chat          ChatConfig          `toml:"chat"`
	Retention     RetentionConfig     `toml:"retention"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// OpenFoodFactsConfig contains the product lookup client configuration
type OpenFoodFactsConfig struct {
	BaseURL        string `toml:"base_url"`        // Override for testing
	RequestTimeout string `toml:"request_timeout"` // HTTP request timeout as duration string
	RateLimit      int    `toml:"rate_limit"`      // Max requests per second
}

// LLMProvider represents the completion provider type
type LLMProvider string

const (
	// LLMProviderOpenAI uses an OpenAI-compatible chat-completions endpoint
	LLMProviderOpenAI LLMProvider = "openai"
	// LLMProviderClaude uses the Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the completion provider for enrichment and chat
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "openai" or "claude" (default: "openai")
}

// OpenAIConfig contains configuration for an OpenAI-compatible
// chat-completions endpoint (api.openai.com, Perplexity, or any compatible host)
type OpenAIConfig struct {
	APIKey      string  `toml:"api_key"`     // Bearer credential (prefer env or KV store)
	BaseURL     string  `toml:"base_url"`    // Endpoint base URL (default: https://api.openai.com/v1)
	Model       string  `toml:"model"`       // Model identifier (default: "gpt-4")
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string (default: "60s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (prefer env or KV store)
	Model       string  `toml:"model"`       // Model for completions (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string (default: "60s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// ChatConfig contains configuration for the history-grounded chat assistant
type ChatConfig struct {
	HistoryLimit int `toml:"history_limit"` // Max scanned products serialized into the system prompt
}

// RetentionConfig controls the scheduled history sweep
type RetentionConfig struct {
	Enabled  bool   `toml:"enabled"`  // Disabled by default - history is kept forever
	Schedule string `toml:"schedule"` // Cron schedule for the sweep
	MaxAge   string `toml:"max_age"`  // Delete products scanned longer ago than this
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings are exposed in safebite.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		OpenFoodFacts: OpenFoodFactsConfig{
			BaseURL:        "https://world.openfoodfacts.org",
			RequestTimeout: "10s",
			RateLimit:      5,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderOpenAI,
		},
		OpenAI: OpenAIConfig{
			APIKey:      "", // User must provide API key (SAFEBITE_OPENAI_API_KEY or config)
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4",
			Timeout:     "60s",
			Temperature: 0.3,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "60s",
			Temperature: 0.3,
		},
		Chat: ChatConfig{
			HistoryLimit: 50,
		},
		Retention: RetentionConfig{
			Enabled:  false,
			Schedule: "0 0 3 * * *", // Daily at 03:00
			MaxAge:   "2160h",       // 90 days
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SAFEBITE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("SAFEBITE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SAFEBITE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("SAFEBITE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("SAFEBITE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("SAFEBITE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Lookup configuration
	if baseURL := os.Getenv("SAFEBITE_OPENFOODFACTS_URL"); baseURL != "" {
		config.OpenFoodFacts.BaseURL = baseURL
	}

	// LLM provider configuration
	if provider := os.Getenv("SAFEBITE_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if model := os.Getenv("SAFEBITE_OPENAI_MODEL"); model != "" {
		config.OpenAI.Model = model
	}
	if model := os.Getenv("SAFEBITE_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves an API key by name with environment variable priority.
// Resolution order: environment variables -> KV store -> config fallback -> error.
// Credentials are never embedded in source; this is the only resolution path.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"openai_api_key":    {"SAFEBITE_OPENAI_API_KEY", "OPENAI_API_KEY"},
		"anthropic_api_key": {"SAFEBITE_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"claude_api_key":    {"SAFEBITE_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	// Check environment variables (highest priority)
	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	// Try to resolve from KV store (medium priority)
	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	// Fallback to config value (lowest priority)
	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// ParseDurationOrDefault parses a duration string, falling back on error
func ParseDurationOrDefault(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
