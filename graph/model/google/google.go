// Package google adapts Google's Gemini API to the model.ChatModel interface.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/martymcenroe/draftloop/graph/model"
)

// Client wraps the official generative-ai-go client.
//
// Close the client when it is no longer needed:
//
//	c, err := google.New(ctx, apiKey, "gemini-1.5-pro")
//	if err != nil { ... }
//	defer c.Close()
type Client struct {
	client *genai.Client
	model  string
}

// New creates a Gemini-backed ChatModel for the given model name.
func New(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("google: API key cannot be empty")
	}
	if modelName == "" {
		return nil, errors.New("google: model cannot be empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("google: create client: %w", err)
	}
	return &Client{
		client: client,
		model:  modelName,
	}, nil
}

// Chat implements model.ChatModel. System messages become the model's system
// instruction; the remaining messages are sent as content parts in order.
func (c *Client) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	gm := c.client.GenerativeModel(c.model)

	var system string
	var parts []genai.Part
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}
	if system != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(parts) == 0 {
		return model.ChatOut{}, errors.New("google chat: no user content")
	}

	resp, err := gm.GenerateContent(ctx, parts...)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google chat: %w", err)
	}

	var text string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text += string(t)
			}
		}
	}
	return model.ChatOut{Text: text}, nil
}

// Close releases the underlying client's resources.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
