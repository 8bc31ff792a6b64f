package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidProvider indicates an unsupported LLM provider
	ErrInvalidProvider = errors.New("invalid llm provider")

	// ErrInvalidTemperature indicates an out-of-range sampling temperature
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates an invalid response token budget
	ErrInvalidMaxTokens = errors.New("invalid max_tokens")

	// ErrInvalidConcurrency indicates an invalid parallelism setting
	ErrInvalidConcurrency = errors.New("invalid max_concurrent")

	// ErrInvalidFileSize indicates an invalid scan file size cap
	ErrInvalidFileSize = errors.New("invalid max_file_size_mb")

	// ErrInvalidTimeout indicates an invalid scanner timeout
	ErrInvalidTimeout = errors.New("invalid timeout_seconds")

	// ErrInvalidContextLines indicates an invalid fallback window radius
	ErrInvalidContextLines = errors.New("invalid context_lines")

	// ErrInvalidCacheTTL indicates an invalid cache lifetime
	ErrInvalidCacheTTL = errors.New("invalid cache ttl")

	// ErrInvalidResultLimit indicates an invalid result limit
	ErrInvalidResultLimit = errors.New("invalid max_results")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateScanner(&cfg.Scanner); err != nil {
		errs = append(errs, err)
	}
	if err := validateContext(&cfg.Context); err != nil {
		errs = append(errs, err)
	}
	if err := validateLLM(&cfg.LLM); err != nil {
		errs = append(errs, err)
	}
	if err := validateLimits(cfg); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateScanner(cfg *ScannerConfig) error {
	var errs []error

	if cfg.MaxFileSizeMB <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be positive, got %.2f", ErrInvalidFileSize, cfg.MaxFileSizeMB))
	}
	if cfg.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be positive, got %d", ErrInvalidTimeout, cfg.TimeoutSeconds))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateContext(cfg *ContextConfig) error {
	var errs []error

	if cfg.ContextLines <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be positive, got %d", ErrInvalidContextLines, cfg.ContextLines))
	}
	if cfg.CacheTTLSeconds <= 0 {
		errs = append(errs, fmt.Errorf("%w: context.cache_ttl_seconds must be positive, got %d", ErrInvalidCacheTTL, cfg.CacheTTLSeconds))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateLLM(cfg *LLMConfig) error {
	var errs []error

	provider := strings.ToLower(cfg.Provider)
	if provider != "openai" && provider != "anthropic" {
		errs = append(errs, fmt.Errorf("%w: must be 'openai' or 'anthropic', got '%s'", ErrInvalidProvider, cfg.Provider))
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, fmt.Errorf("%w: must be in [0, 2], got %.2f", ErrInvalidTemperature, cfg.Temperature))
	}
	if cfg.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be positive, got %d", ErrInvalidMaxTokens, cfg.MaxTokens))
	}
	if cfg.MaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be positive, got %d", ErrInvalidConcurrency, cfg.MaxConcurrent))
	}
	if cfg.CacheTTLSeconds <= 0 {
		errs = append(errs, fmt.Errorf("%w: llm.cache_ttl_seconds must be positive, got %d", ErrInvalidCacheTTL, cfg.CacheTTLSeconds))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateLimits(cfg *Config) error {
	var errs []error

	if cfg.Memory.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("%w: memory.max_results must be positive, got %d", ErrInvalidResultLimit, cfg.Memory.MaxResults))
	}
	if cfg.Search.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("%w: search.max_results must be positive, got %d", ErrInvalidResultLimit, cfg.Search.MaxResults))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
