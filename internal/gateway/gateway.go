// Package gateway abstracts the chat-completion backend behind a single
// Client interface. The production implementation talks to OpenRouter; the
// dialog engine layers its own model fallback policy on top, so a Client
// only ever completes against one named model per call.
package gateway

import (
	"context"
	"errors"
	"fmt"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Turn is one entry of a conversation history. Assistant turns may carry
// pending tool calls; tool turns carry the ID of the call they answer.
type Turn struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // assistant turns only
	ToolCallID string     // tool turns only
}

// ToolCall is a model-issued request to invoke a declared function.
// Arguments is the raw JSON payload as returned by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolSpec declares a callable function to the model. Parameters is a JSON
// Schema object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Request is a single chat-completion call.
type Request struct {
	Model   string
	System  string
	History []Turn
	Tools   []ToolSpec
}

// Completion is the model's answer: either plain text or a set of tool
// calls to execute (never both populated meaningfully at once).
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// Client is the chat-completion backend contract.
type Client interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// RateLimitError marks a completion failure caused by provider rate
// limiting. Callers retry these once before falling back to the next model;
// any other error abandons the model immediately.
type RateLimitError struct {
	Model string
	Err   error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("gateway: model %s rate limited: %v", e.Model, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// IsRateLimit reports whether err is (or wraps) a RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
