// Package transport bridges the support bot to chat platforms. A single
// Adapter implementation serves one platform; the bot core only ever sees
// Events and Outbounds.
package transport

import (
	"context"
	"time"
)

// Event kinds.
const (
	KindText   = "text"   // a plain chat message
	KindAction = "action" // a button press
)

// Event is one inbound occurrence from the platform: either a user message
// or a button press.
type Event struct {
	Kind        string
	UserID      int64  // platform-wide numeric user ID
	UserName    string // handle, may be empty
	DisplayName string // human-readable name
	Text        string // message text (KindText)
	ActionID    string // pressed button's action ID (KindAction)
	EventID     string // opaque handle for AnswerButton (KindAction)
	Message     MessageRef
	Timestamp   time.Time
}

// MessageRef identifies a delivered message so its keyboard can be edited
// later.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// Button is one pressable element of a keyboard.
type Button struct {
	Label    string
	ActionID string
}

// Keyboard is a set of buttons attached to a message. Inline keyboards are
// bound to the message and report presses as KindAction events; non-inline
// (menu) keyboards echo the pressed label back as a KindText event.
type Keyboard struct {
	Inline bool
	Rows   [][]Button
}

// Outbound is a message for delivery to one user's chat.
type Outbound struct {
	ChatID   int64
	Text     string
	PhotoURL string // when set, Text becomes the photo caption
	Keyboard *Keyboard
}

// Adapter is the contract platform implementations satisfy.
type Adapter interface {
	// Connect establishes the platform connection.
	Connect(ctx context.Context) error

	// Listen returns the inbound event channel. The channel is closed when
	// the context is cancelled or the adapter is closed. Listen must only
	// be called after Connect.
	Listen(ctx context.Context) (<-chan Event, error)

	// Send delivers an outbound message and returns a reference to it.
	Send(ctx context.Context, msg Outbound) (MessageRef, error)

	// EditKeyboard replaces the inline keyboard of a delivered message.
	// A nil keyboard removes it.
	EditKeyboard(ctx context.Context, ref MessageRef, kb *Keyboard) error

	// AnswerButton acknowledges a button press so the platform stops
	// showing a pending state. Toast may be shown to the user.
	AnswerButton(ctx context.Context, eventID, toast string) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}
