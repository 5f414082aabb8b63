// Package openai adapts OpenAI's chat completions API to the model.ChatModel
// interface.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/martymcenroe/draftloop/graph/model"
)

// Client wraps the official OpenAI Go SDK. The underlying client handles
// thread-safety internally.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a GPT-backed ChatModel for the given model name, e.g. "gpt-4o".
func New(apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai: API key cannot be empty")
	}
	if modelName == "" {
		return nil, errors.New("openai: model cannot be empty")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		client: &client,
		model:  modelName,
	}, nil
}

// Chat implements model.ChatModel.
func (c *Client) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("openai chat: %w", err)
	}
	if len(completion.Choices) == 0 {
		return model.ChatOut{}, errors.New("openai chat: empty response")
	}
	return model.ChatOut{Text: completion.Choices[0].Message.Content}, nil
}
