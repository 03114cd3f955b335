// Package openai provides an OpenAI-compatible implementation of the
// llm.Provider collaborator.
//
// A custom base URL enables Azure OpenAI, local models, or any other
// compatible endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/llm"
)

const defaultModel = "gpt-4o"

// titleSystemPrompt constrains DeriveTitle output to a short plain phrase.
const titleSystemPrompt = "Summarize the user's request as a short conversation title " +
	"of at most six words. Respond with the title only, no quotes, no punctuation at the end."

// Provider implements llm.Provider against an OpenAI-compatible API.
type Provider struct {
	client openai.Client
	model  string
}

// Option configures a Provider.
type Option func(*settings)

type settings struct {
	model   string
	baseURL string
}

// WithModel sets the model used for completions.
func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithBaseURL points the provider at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(s *settings) { s.baseURL = baseURL }
}

// NewProvider creates a provider. An empty apiKey falls back to the
// OPENAI_API_KEY environment variable.
func NewProvider(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required (parameter or OPENAI_API_KEY)")
	}

	s := settings{model: defaultModel}
	for _, opt := range opts {
		opt(&s)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if s.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(s.baseURL))
	}

	return &Provider{
		client: openai.NewClient(reqOpts...),
		model:  s.model,
	}, nil
}

// SendTurn implements llm.Provider.
func (p *Provider) SendTurn(ctx context.Context, history []llm.Turn, systemContext string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	if systemContext != "" {
		messages = append(messages, openai.SystemMessage(systemContext))
	}
	for _, turn := range history {
		switch turn.Role {
		case llm.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// DeriveTitle implements llm.Provider.
func (p *Provider) DeriveTitle(ctx context.Context, firstUserMessage string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(titleSystemPrompt),
			openai.UserMessage(firstUserMessage),
		},
	})
	if err != nil {
		return "", fmt.Errorf("title completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("title completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ llm.Provider = (*Provider)(nil)
