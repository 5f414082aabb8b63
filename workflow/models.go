package workflow

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/martymcenroe/draftloop/graph/model"
	"github.com/martymcenroe/draftloop/graph/model/anthropic"
	"github.com/martymcenroe/draftloop/graph/model/google"
	"github.com/martymcenroe/draftloop/graph/model/openai"
)

// Environment variables holding provider API keys. Keys are never read from
// configuration files.
const (
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvGoogleKey    = "GOOGLE_API_KEY"
)

// ResolveModel maps an opaque capability spec of the form "provider:model"
// to a concrete ChatModel. Recognized providers: anthropic, openai, google,
// and mock (offline dry runs; "mock:reviewer" approves, anything else drafts
// a placeholder document).
func ResolveModel(ctx context.Context, spec string) (model.ChatModel, error) {
	provider, name, found := strings.Cut(spec, ":")
	if !found || name == "" {
		return nil, fmt.Errorf("model spec %q must have the form provider:model", spec)
	}

	switch provider {
	case "anthropic":
		return anthropic.New(os.Getenv(EnvAnthropicKey), name)
	case "openai":
		return openai.New(os.Getenv(EnvOpenAIKey), name)
	case "google":
		return google.New(ctx, os.Getenv(EnvGoogleKey), name)
	case "mock":
		return mockFor(name), nil
	}
	return nil, fmt.Errorf("unknown model provider %q", provider)
}

func mockFor(name string) *model.MockChatModel {
	if name == "reviewer" {
		return &model.MockChatModel{Responses: []model.ChatOut{
			{Text: "- [x] APPROVE\n\nLooks complete."},
		}}
	}
	return &model.MockChatModel{Responses: []model.ChatOut{
		{Text: "# Placeholder Draft\n\nGenerated by the mock drafter for offline runs.\n"},
	}}
}
