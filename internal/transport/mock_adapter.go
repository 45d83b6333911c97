package transport

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockAdapter implements Adapter for testing. It records sent messages and
// keyboard edits and allows simulating inbound events via SimulateEvent.
type MockAdapter struct {
	mu         sync.Mutex
	connected  bool
	closed     bool
	events     chan Event
	sent       []Outbound
	edits      []KeyboardEdit
	answered   []string
	sendErr    error
	msgCounter int
}

// KeyboardEdit records one EditKeyboard call.
type KeyboardEdit struct {
	Ref      MessageRef
	Keyboard *Keyboard
}

// NewMockAdapter creates a MockAdapter with a buffered event channel.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{events: make(chan Event, 100)}
}

// Connect marks the adapter as connected.
func (m *MockAdapter) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("mock adapter: already closed")
	}
	m.connected = true
	return nil
}

// Listen returns the event channel. Must be called after Connect.
func (m *MockAdapter) Listen(ctx context.Context) (<-chan Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, fmt.Errorf("mock adapter: not connected")
	}
	return m.events, nil
}

// Send records the outbound message and returns a synthetic reference.
func (m *MockAdapter) Send(ctx context.Context, msg Outbound) (MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return MessageRef{}, fmt.Errorf("mock adapter: not connected")
	}
	if m.sendErr != nil {
		return MessageRef{}, m.sendErr
	}
	m.sent = append(m.sent, msg)
	m.msgCounter++
	return MessageRef{
		ChannelID: fmt.Sprintf("chan-%d", msg.ChatID),
		MessageID: fmt.Sprintf("msg-%d", m.msgCounter),
	}, nil
}

// EditKeyboard records the edit.
func (m *MockAdapter) EditKeyboard(ctx context.Context, ref MessageRef, kb *Keyboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return fmt.Errorf("mock adapter: not connected")
	}
	m.edits = append(m.edits, KeyboardEdit{Ref: ref, Keyboard: kb})
	return nil
}

// AnswerButton records the acknowledged event ID.
func (m *MockAdapter) AnswerButton(ctx context.Context, eventID, toast string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, eventID)
	return nil
}

// Close shuts down the mock adapter and closes the event channel.
func (m *MockAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.connected = false
	close(m.events)
	return nil
}

// --- Test helpers ---

// SimulateEvent pushes an event as if it came from the platform. Safe to
// call from any goroutine.
func (m *MockAdapter) SimulateEvent(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	m.events <- ev
}

// FailSendsWith makes every subsequent Send return err. Pass nil to restore
// normal delivery.
func (m *MockAdapter) FailSendsWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// LastSent returns the most recently sent outbound message.
// Returns zero value and false if no messages have been sent.
func (m *MockAdapter) LastSent() (Outbound, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return Outbound{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// AllSent returns a copy of all sent outbound messages.
func (m *MockAdapter) AllSent() []Outbound {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Outbound, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentTo returns all messages sent to one chat.
func (m *MockAdapter) SentTo(chatID int64) []Outbound {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Outbound
	for _, msg := range m.sent {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out
}

// Edits returns a copy of all keyboard edits.
func (m *MockAdapter) Edits() []KeyboardEdit {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]KeyboardEdit, len(m.edits))
	copy(out, m.edits)
	return out
}

// Answered returns the event IDs acknowledged via AnswerButton.
func (m *MockAdapter) Answered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.answered))
	copy(out, m.answered)
	return out
}
