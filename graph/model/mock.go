package model

import (
	"context"
	"sync"
)

// MockChatModel is a test implementation of ChatModel.
//
// It returns scripted responses in order (repeating the last one when
// exhausted), can inject a fixed error, and records every call for
// assertions. Thread-safe.
//
//	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "draft body"}}}
//	out, err := mock.Chat(ctx, messages)
type MockChatModel struct {
	// Responses is the sequence of responses to return, one per call.
	Responses []ChatOut

	// Err, if set, is returned by every call instead of a response.
	Err error

	// Calls records the messages of every invocation.
	Calls [][]Message

	mu        sync.Mutex
	callIndex int
}

// Chat implements ChatModel. The call is recorded even when it fails.
func (m *MockChatModel) Chat(ctx context.Context, messages []Message) (ChatOut, error) {
	if ctx.Err() != nil {
		return ChatOut{}, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, messages)

	if m.Err != nil {
		return ChatOut{}, m.Err
	}
	if len(m.Responses) == 0 {
		return ChatOut{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// Reset clears the call history and response cursor so the mock can be reused
// across test cases.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns the number of Chat invocations so far.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Calls)
}
