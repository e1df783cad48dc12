package services

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// LLMResult carries the model output and the token counts used for pricing.
type LLMResult struct {
	Content   string
	TokensIn  int64
	TokensOut int64
}

// LLMClient is the LLM boundary used by the enrichment services; mocked in tests.
type LLMClient interface {
	CompleteJSON(ctx context.Context, model, system, user string) (*LLMResult, error)
	Complete(ctx context.Context, model, system, user string) (*LLMResult, error)
}

// OpenRouterService talks to OpenRouter through its OpenAI-compatible API.
type OpenRouterService struct {
	client openai.Client
}

func NewOpenRouterService(apiKey, baseURL string) *OpenRouterService {
	return &OpenRouterService{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
		),
	}
}

// CompleteJSON runs a chat completion in JSON mode at temperature zero, for
// the structured card and DTL-P payloads.
func (s *OpenRouterService) CompleteJSON(ctx context.Context, model, system, user string) (*LLMResult, error) {
	return s.complete(ctx, model, system, user, true)
}

// Complete runs a plain chat completion at temperature zero.
func (s *OpenRouterService) Complete(ctx context.Context, model, system, user string) (*LLMResult, error) {
	return s.complete(ctx, model, system, user, false)
}

func (s *OpenRouterService) complete(ctx context.Context, model, system, user string, jsonMode bool) (*LLMResult, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0),
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	completion, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	return &LLMResult{
		Content:   completion.Choices[0].Message.Content,
		TokensIn:  completion.Usage.PromptTokens,
		TokensOut: completion.Usage.CompletionTokens,
	}, nil
}
