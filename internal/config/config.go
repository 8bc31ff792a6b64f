package config

import (
	"os"
	"path/filepath"
)

// Config represents the complete revet configuration.
// It can be loaded from .revet.yaml with environment variable overrides.
type Config struct {
	Scanner ScannerConfig `yaml:"scanner" mapstructure:"scanner"`
	Context ContextConfig `yaml:"context" mapstructure:"context"`
	Privacy PrivacyConfig `yaml:"privacy" mapstructure:"privacy"`
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Memory  MemoryConfig  `yaml:"memory" mapstructure:"memory"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
}

// ScannerConfig controls which files are scanned and how the tools run.
type ScannerConfig struct {
	Enabled           []string          `yaml:"enabled" mapstructure:"enabled"`                         // tools to run; empty means every tool for the requested languages
	Configs           map[string]string `yaml:"configs" mapstructure:"configs"`                         // tool name -> tool config file
	MaxFileSizeMB     float64           `yaml:"max_file_size_mb" mapstructure:"max_file_size_mb"`       // skip files larger than this
	TimeoutSeconds    int               `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`         // per-tool subprocess timeout
	Exclude           []string          `yaml:"exclude" mapstructure:"exclude"`                         // glob patterns to skip
	UseEmbeddedPython bool              `yaml:"use_embedded_python" mapstructure:"use_embedded_python"` // run bandit on the bundled interpreter
}

// ContextConfig controls the context resolver.
type ContextConfig struct {
	ContextLines    int `yaml:"context_lines" mapstructure:"context_lines"`         // fallback window radius
	CacheEntries    int `yaml:"cache_entries" mapstructure:"cache_entries"`         // file-content cache capacity; negative disables
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" mapstructure:"cache_ttl_seconds"` // file-content cache entry lifetime
}

// PrivacyConfig controls redaction before any text reaches an LLM.
type PrivacyConfig struct {
	RedactSecrets bool `yaml:"redact_secrets" mapstructure:"redact_secrets"`
	RedactPaths   bool `yaml:"redact_paths" mapstructure:"redact_paths"`
}

// LLMConfig controls the verification provider. API keys are read from
// OPENAI_API_KEY / ANTHROPIC_API_KEY only and never appear in config files.
type LLMConfig struct {
	Provider        string  `yaml:"provider" mapstructure:"provider"`                   // "openai" or "anthropic"
	Model           string  `yaml:"model" mapstructure:"model"`                         // empty picks the provider's default
	Temperature     float64 `yaml:"temperature" mapstructure:"temperature"`             // sampling temperature
	MaxTokens       int     `yaml:"max_tokens" mapstructure:"max_tokens"`               // response budget
	MaxConcurrent   int     `yaml:"max_concurrent" mapstructure:"max_concurrent"`       // parallel verification calls
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" mapstructure:"cache_ttl_seconds"` // verdict cache entry lifetime
}

// StorageConfig defines where scan results persist.
type StorageConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"` // empty means ~/.revet/revet.db
}

// MemoryConfig controls the similar-finding memory used to enrich prompts.
type MemoryConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"` // requires an OpenAI API key for embeddings
	Collection string `yaml:"collection" mapstructure:"collection"`
	MaxResults int    `yaml:"max_results" mapstructure:"max_results"`
}

// SearchConfig controls findings search.
type SearchConfig struct {
	MaxResults int `yaml:"max_results" mapstructure:"max_results"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Scanner: ScannerConfig{
			MaxFileSizeMB:  10,
			TimeoutSeconds: 600,
			Exclude: []string{
				"node_modules/**",
				"vendor/**",
				".git/**",
				"dist/**",
				"build/**",
				"target/**",
				"__pycache__/**",
				".venv/**",
				"*.min.js",
			},
		},
		Context: ContextConfig{
			ContextLines:    10,
			CacheEntries:    512,
			CacheTTLSeconds: 300,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   true,
		},
		LLM: LLMConfig{
			Provider:        "openai",
			Temperature:     0.1,
			MaxTokens:       2000,
			MaxConcurrent:   5,
			CacheTTLSeconds: 86400,
		},
		Storage: StorageConfig{
			DBPath: "", // empty means use the default under the home directory
		},
		Memory: MemoryConfig{
			Enabled:    false,
			Collection: "findings",
			MaxResults: 5,
		},
		Search: SearchConfig{
			MaxResults: 20,
		},
	}
}

// ResolveDBPath returns the configured database path, creating no
// directories. An empty path resolves to ~/.revet/revet.db.
func (c *StorageConfig) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".revet", "revet.db"), nil
}
