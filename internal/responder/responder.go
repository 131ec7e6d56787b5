// Package responder generates automated replies through an OpenAI-compatible
// chat completion endpoint, keeping a durable per-contact conversation
// context.
package responder

import (
	"context"
	"fmt"

	"github.com/FRI2020/talk-trace/internal/config"
	"github.com/FRI2020/talk-trace/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

// ChatCompleter is the slice of the OpenAI client the responder needs,
// substitutable with a fake in tests.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ContextStore persists per-contact role-tagged turns.
type ContextStore interface {
	Load(ctx context.Context, phoneNumber string) ([]models.ChatTurn, error)
	Save(ctx context.Context, phoneNumber string, turns []models.ChatTurn) error
}

type Responder struct {
	llm       ChatCompleter
	contexts  ContextStore
	model     string
	maxTokens int
}

func New(cfg config.LLMConfig, contexts ContextStore) *Responder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Responder{
		llm:       openai.NewClientWithConfig(clientCfg),
		contexts:  contexts,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// NewWithClient wires an explicit completion client, used by tests.
func NewWithClient(llm ChatCompleter, contexts ContextStore, model string, maxTokens int) *Responder {
	return &Responder{llm: llm, contexts: contexts, model: model, maxTokens: maxTokens}
}

// Generate appends the user turn to the contact's context, asks the model
// for a completion capped at the configured token limit, records the
// assistant turn,
// and returns the reply text. Vendor failures propagate unretried.
func (r *Responder) Generate(ctx context.Context, waID, messageBody string) (string, error) {
	turns, err := r.contexts.Load(ctx, waID)
	if err != nil {
		return "", fmt.Errorf("failed to load context for %s: %w", waID, err)
	}

	turns = append(turns, models.ChatTurn{Role: openai.ChatMessageRoleUser, Content: messageBody})

	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, openai.ChatCompletionMessage{Role: t.Role, Content: t.Content})
	}

	resp, err := r.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     r.model,
		Messages:  messages,
		MaxTokens: r.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	reply := resp.Choices[0].Message.Content
	turns = append(turns, models.ChatTurn{Role: openai.ChatMessageRoleAssistant, Content: reply})

	if err := r.contexts.Save(ctx, waID, turns); err != nil {
		return "", fmt.Errorf("failed to save context for %s: %w", waID, err)
	}

	return reply, nil
}
