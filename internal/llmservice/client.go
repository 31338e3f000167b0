package llmservice

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"travel-rag/internal/config"
)

// Generator streams a completion for one prompt. Fragments handed to emit
// are either raw text (string) or a structured message exposing a content
// field; the orchestrator rejects anything else.
type Generator interface {
	Stream(ctx context.Context, prompt string, emit func(fragment any) error) error
}

// OpenAIGenerator talks to an OpenAI-compatible chat endpoint.
type OpenAIGenerator struct {
	cfg *config.LLMConfig
}

// NewOpenAIGenerator wires the chat model config.
func NewOpenAIGenerator(cfg *config.LLMConfig) *OpenAIGenerator {
	return &OpenAIGenerator{cfg: cfg}
}

// Stream submits the prompt and forwards each token delta as it arrives.
func (g *OpenAIGenerator) Stream(ctx context.Context, prompt string, emit func(fragment any) error) error {
	log.Debug().Str("model", g.cfg.Model).Msg("Generating content")

	llm, err := openai.New(
		openai.WithBaseURL(g.cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(g.cfg.Key, "Bearer ")),
		openai.WithModel(g.cfg.Model),
	)
	if err != nil {
		return err
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	_, err = llm.GenerateContent(ctx, messages,
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			return emit(string(chunk))
		}),
	)
	return err
}
