package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults -> config file -> environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a loader that searches rootDir for .revet.yaml.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewFileLoader creates a loader pinned to an explicit config file path.
func NewFileLoader(configFile string) Loader {
	return &loader{configFile: configFile}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (REVET_*)
// 2. Config file (.revet.yaml in the root directory, or the pinned file)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName(".revet")
		v.SetConfigType("yaml")
		v.AddConfigPath(l.rootDir)
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("REVET")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., REVET_LLM_PROVIDER)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind environment variables to config keys
	// Scanner configuration
	v.BindEnv("scanner.max_file_size_mb")
	v.BindEnv("scanner.timeout_seconds")
	v.BindEnv("scanner.use_embedded_python")

	// Context configuration
	v.BindEnv("context.context_lines")
	v.BindEnv("context.cache_entries")
	v.BindEnv("context.cache_ttl_seconds")

	// Privacy configuration
	v.BindEnv("privacy.redact_secrets")
	v.BindEnv("privacy.redact_paths")

	// LLM configuration
	v.BindEnv("llm.provider")
	v.BindEnv("llm.model")
	v.BindEnv("llm.temperature")
	v.BindEnv("llm.max_tokens")
	v.BindEnv("llm.max_concurrent")
	v.BindEnv("llm.cache_ttl_seconds")

	// Storage configuration
	v.BindEnv("storage.db_path")

	// Memory configuration
	v.BindEnv("memory.enabled")
	v.BindEnv("memory.collection")
	v.BindEnv("memory.max_results")

	// Search configuration
	v.BindEnv("search.max_results")

	// Set defaults in viper
	setDefaults(v)

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars.
		// A pinned file that cannot be read is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate the configuration
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	// Scanner defaults
	v.SetDefault("scanner.enabled", defaults.Scanner.Enabled)
	v.SetDefault("scanner.configs", defaults.Scanner.Configs)
	v.SetDefault("scanner.max_file_size_mb", defaults.Scanner.MaxFileSizeMB)
	v.SetDefault("scanner.timeout_seconds", defaults.Scanner.TimeoutSeconds)
	v.SetDefault("scanner.exclude", defaults.Scanner.Exclude)
	v.SetDefault("scanner.use_embedded_python", defaults.Scanner.UseEmbeddedPython)

	// Context defaults
	v.SetDefault("context.context_lines", defaults.Context.ContextLines)
	v.SetDefault("context.cache_entries", defaults.Context.CacheEntries)
	v.SetDefault("context.cache_ttl_seconds", defaults.Context.CacheTTLSeconds)

	// Privacy defaults
	v.SetDefault("privacy.redact_secrets", defaults.Privacy.RedactSecrets)
	v.SetDefault("privacy.redact_paths", defaults.Privacy.RedactPaths)

	// LLM defaults
	v.SetDefault("llm.provider", defaults.LLM.Provider)
	v.SetDefault("llm.model", defaults.LLM.Model)
	v.SetDefault("llm.temperature", defaults.LLM.Temperature)
	v.SetDefault("llm.max_tokens", defaults.LLM.MaxTokens)
	v.SetDefault("llm.max_concurrent", defaults.LLM.MaxConcurrent)
	v.SetDefault("llm.cache_ttl_seconds", defaults.LLM.CacheTTLSeconds)

	// Storage defaults
	v.SetDefault("storage.db_path", defaults.Storage.DBPath)

	// Memory defaults
	v.SetDefault("memory.enabled", defaults.Memory.Enabled)
	v.SetDefault("memory.collection", defaults.Memory.Collection)
	v.SetDefault("memory.max_results", defaults.Memory.MaxResults)

	// Search defaults
	v.SetDefault("search.max_results", defaults.Search.MaxResults)
}

// LoadConfig is a convenience function that creates a loader and loads
// config. It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
