// Package anthropic adapts Anthropic's Claude API to the model.ChatModel
// interface.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/martymcenroe/draftloop/graph/model"
)

const defaultMaxTokens = 8192

// Client wraps the official anthropic-sdk-go client. It is safe for
// concurrent use after creation.
type Client struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// New creates a Claude-backed ChatModel for the given model name, e.g.
// "claude-sonnet-4-20250514". The API key comes from the Anthropic console.
func New(apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: API key cannot be empty")
	}
	if modelName == "" {
		return nil, errors.New("anthropic: model cannot be empty")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		client:    &client,
		model:     modelName,
		maxTokens: defaultMaxTokens,
	}, nil
}

// Chat implements model.ChatModel. System messages are lifted into the
// request's System field; user and assistant messages keep their order.
func (c *Client) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	var system []anthropic.TextBlockParam
	var turns []anthropic.MessageParam

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case model.RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  turns,
	}
	if len(system) > 0 {
		params.System = system
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("anthropic chat: %w", err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return model.ChatOut{Text: text}, nil
}
