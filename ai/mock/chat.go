package mock

import (
	"context"
	"sync"

	"github.com/poiesic/superior/core"
)

// MockChatModel is a test double for ai.ChatModel.
// It allows custom behavior injection via function fields.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, the content of the last message is echoed back.
	CompleteFunc func(ctx context.Context, messages []core.Message) (string, error)

	mu           sync.Mutex
	callCount    int
	lastMessages []core.Message
}

// NewMockChatModel creates a mock chat model with default echo behavior.
// Note: Returns concrete type to allow test assertions via GetMockChatModel().
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Complete returns a canned completion for the messages.
func (m *MockChatModel) Complete(ctx context.Context, messages []core.Message) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastMessages = append([]core.Message(nil), messages...)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages)
	}

	if len(messages) == 0 {
		return "", nil
	}
	return messages[len(messages)-1].Content, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastMessages returns the messages passed to the most recent Complete call.
func (m *MockChatModel) LastMessages() []core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Message(nil), m.lastMessages...)
}

// Reset clears the call count and injected behavior.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastMessages = nil
	m.CompleteFunc = nil
}
