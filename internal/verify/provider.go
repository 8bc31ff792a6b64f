package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/relvet/revet/internal/config"
)

// ErrMissingAPIKey is returned when a provider's API key environment
// variable is unset. Keys are read from the environment only.
var ErrMissingAPIKey = errors.New("missing API key")

// Provider is one LLM backend capable of judging a finding.
type Provider interface {
	Name() string
	Verify(ctx context.Context, req Request) (Result, error)
	Close() error
}

// NewProvider builds the provider named in the LLM configuration.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "anthropic":
		return NewAnthropicProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q (choose openai or anthropic)", cfg.Provider)
	}
}
