package verify

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/relvet/revet/internal/config"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIProvider verifies findings against OpenAI models through the
// Responses API.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float64
	maxTokens   int64
}

// NewOpenAIProvider reads the API key from OPENAI_API_KEY and builds the
// client. Keys never pass through configuration files.
func NewOpenAIProvider(cfg config.LLMConfig) (*OpenAIProvider, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrMissingAPIKey)
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &OpenAIProvider{
		client:      &client,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   int64(cfg.MaxTokens),
	}, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string { return "openai" }

// Verify sends one finding to the model and decodes its verdict.
func (p *OpenAIProvider) Verify(ctx context.Context, req Request) (Result, error) {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(p.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(systemPrompt, responses.EasyInputMessageRoleSystem),
				responses.ResponseInputItemParamOfMessage(userPrompt(req), responses.EasyInputMessageRoleUser),
			},
		},
		MaxOutputTokens: openai.Int(p.maxTokens),
		Temperature:     openai.Float(p.temperature),
	}

	response, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("openai verify: %w", err)
	}

	result, err := decodeResult(response.OutputText())
	if err != nil {
		return Result{}, fmt.Errorf("openai verify: %w", err)
	}
	return result, nil
}

// Close cleans up any resources.
func (p *OpenAIProvider) Close() error { return nil }
