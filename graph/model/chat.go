// Package model abstracts the language-model capability behind a small chat
// interface so providers are swappable without touching the workflow graph.
package model

import "context"

// ChatModel is the interface for language-model chat providers.
//
// Implementations handle provider authentication, convert the standard
// Message format to the provider's wire format, and respect context
// cancellation. The workflow engine treats a call as a synchronous
// invoke-with-outcome: success is a nil error, failure is the error.
type ChatModel interface {
	// Chat sends the conversation to the model and returns its response.
	Chat(ctx context.Context, messages []Message) (ChatOut, error)
}

// Message is a single message in a model conversation.
type Message struct {
	// Role identifies the sender; use the Role* constants.
	Role string

	// Content is the message text. All content is UTF-8; providers must not
	// re-encode it.
	Content string
}

// Standard role constants, aligned with the conventions of the major
// providers.
const (
	// RoleSystem sets context or instructions; system messages come first.
	RoleSystem = "system"

	// RoleUser carries input data or requests.
	RoleUser = "user"

	// RoleAssistant carries model output.
	RoleAssistant = "assistant"
)

// ChatOut is the output of one chat completion.
type ChatOut struct {
	// Text is the model's generated response.
	Text string
}
