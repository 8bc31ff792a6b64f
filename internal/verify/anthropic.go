package verify

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/relvet/revet/internal/config"
)

const defaultAnthropicModel = "claude-3-5-sonnet-20241022"

// AnthropicProvider verifies findings against Anthropic's Claude models.
type AnthropicProvider struct {
	client      *anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
}

// NewAnthropicProvider reads the API key from ANTHROPIC_API_KEY and builds
// the client. Keys never pass through configuration files.
func NewAnthropicProvider(cfg config.LLMConfig) (*AnthropicProvider, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is not set", ErrMissingAPIKey)
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &AnthropicProvider{
		client:      &client,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   int64(cfg.MaxTokens),
	}, nil
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Verify sends one finding to the model and decodes its verdict.
func (p *AnthropicProvider) Verify(ctx context.Context, req Request) (Result, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(req))),
		},
		Temperature: anthropic.Float(p.temperature),
	})
	if err != nil {
		return Result{}, fmt.Errorf("anthropic verify: %w", err)
	}

	var content strings.Builder
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			content.WriteString(b.Text)
		}
	}

	result, err := decodeResult(content.String())
	if err != nil {
		return Result{}, fmt.Errorf("anthropic verify: %w", err)
	}
	return result, nil
}

// Close cleans up any resources.
func (p *AnthropicProvider) Close() error { return nil }
