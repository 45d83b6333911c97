// Package dialog runs the AI side of a support conversation: it keeps
// per-user history, builds the system prompt from live platform data, and
// drives chat completions through a rate-limit-aware model fallback chain
// with a two-phase tool-calling protocol.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/influenta/switchboard/internal/gateway"
	"github.com/influenta/switchboard/internal/store"
)

// maxHistoryTurns caps how much conversation context is replayed to the
// model. Older turns fall off the front.
const maxHistoryTurns = 10

// ErrGatewayExhausted means every configured model failed for one request.
// The caller shows a static apology instead of an AI answer.
var ErrGatewayExhausted = errors.New("dialog: all models exhausted")

// Store is the platform data the engine needs for prompts and tool calls.
// *store.Store satisfies it.
type Store interface {
	FAQ(ctx context.Context) []store.FAQItem
	KnowledgeBase(ctx context.Context) string
	PlatformStats(ctx context.Context) store.PlatformStats
	SearchBloggers(ctx context.Context, params store.SearchParams) ([]store.Blogger, error)
	UserAnalytics(ctx context.Context, platformID int64) (string, error)
}

// Opts configures a dialog Engine.
type Opts struct {
	Store        Store
	Gateway      gateway.Client
	Models       []string      // fallback order, first is primary
	RetryBackoff time.Duration // wait before the single rate-limit retry
}

// Engine holds per-user conversation state. Histories live in memory only
// and reset on restart.
type Engine struct {
	store   Store
	gateway gateway.Client
	models  []string
	backoff time.Duration

	mu        sync.Mutex
	histories map[int64][]gateway.Turn

	sleep func(time.Duration) // swapped out in tests
}

// New validates opts and returns a ready Engine.
func New(opts Opts) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("dialog: store is required")
	}
	if opts.Gateway == nil {
		return nil, fmt.Errorf("dialog: gateway is required")
	}
	if len(opts.Models) == 0 {
		return nil, fmt.Errorf("dialog: at least one model is required")
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 3 * time.Second
	}
	return &Engine{
		store:     opts.Store,
		gateway:   opts.Gateway,
		models:    opts.Models,
		backoff:   opts.RetryBackoff,
		histories: make(map[int64][]gateway.Turn),
		sleep:     time.Sleep,
	}, nil
}

// Ask answers one user message. Tool calls issued by the model are executed
// locally and fed back for a final text pass; the finished exchange is
// committed to the user's history. On ErrGatewayExhausted the user turn
// (and any completed tool round) stays in history, but no static fallback
// text is ever recorded as an assistant turn.
func (e *Engine) Ask(ctx context.Context, userID int64, text string) (string, error) {
	// Truncate before appending: the model replays up to maxHistoryTurns
	// old turns plus the new question.
	history := e.snapshot(userID)
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	history = append(history, gateway.Turn{Role: gateway.RoleUser, Content: text})

	req := gateway.Request{
		System:  e.systemPrompt(ctx),
		History: history,
		Tools:   toolSpecs(),
	}
	comp, err := e.completeWithFallback(ctx, req)
	if err != nil {
		e.commit(userID, history)
		return "", err
	}

	if len(comp.ToolCalls) > 0 {
		history = append(history, gateway.Turn{
			Role:      gateway.RoleAssistant,
			Content:   comp.Text,
			ToolCalls: comp.ToolCalls,
		})
		for _, tc := range comp.ToolCalls {
			history = append(history, gateway.Turn{
				Role:       gateway.RoleTool,
				ToolCallID: tc.ID,
				Content:    e.runTool(ctx, userID, tc),
			})
		}
		// Second pass turns the tool results into prose. No tools this
		// time, so the model cannot loop.
		req.History = history
		req.Tools = nil
		comp, err = e.completeWithFallback(ctx, req)
		if err != nil {
			e.commit(userID, history)
			return "", err
		}
	}

	history = append(history, gateway.Turn{Role: gateway.RoleAssistant, Content: comp.Text})
	e.commit(userID, history)
	return comp.Text, nil
}

// Reset drops the user's conversation history.
func (e *Engine) Reset(userID int64) {
	e.mu.Lock()
	delete(e.histories, userID)
	e.mu.Unlock()
}

// completeWithFallback tries each configured model in order. A rate-limited
// model gets one retry after the backoff; any other failure moves straight
// to the next model.
func (e *Engine) completeWithFallback(ctx context.Context, req gateway.Request) (*gateway.Completion, error) {
	for _, model := range e.models {
		req.Model = model
		comp, err := e.gateway.Complete(ctx, req)
		if err == nil {
			return comp, nil
		}
		if gateway.IsRateLimit(err) {
			log.Printf("dialog: model %s rate limited, retrying in %s", model, e.backoff)
			e.sleep(e.backoff)
			comp, err = e.gateway.Complete(ctx, req)
			if err == nil {
				return comp, nil
			}
		}
		log.Printf("dialog: model %s failed: %v", model, err)
	}
	return nil, ErrGatewayExhausted
}

func (e *Engine) snapshot(userID int64) []gateway.Turn {
	e.mu.Lock()
	defer e.mu.Unlock()
	stored := e.histories[userID]
	history := make([]gateway.Turn, len(stored), len(stored)+4)
	copy(history, stored)
	return history
}

func (e *Engine) commit(userID int64, history []gateway.Turn) {
	e.mu.Lock()
	e.histories[userID] = history
	e.mu.Unlock()
}
