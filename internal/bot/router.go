package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/influenta/switchboard/internal/dialog"
	"github.com/influenta/switchboard/internal/store"
	"github.com/influenta/switchboard/internal/transport"
)

// maxCaptionLen is the platform limit for photo captions.
const maxCaptionLen = 1024

// aiUnavailable is the static reply shown when every model failed.
const aiUnavailable = "🤖 The assistant is catching its breath, please try again in a minute. For anything urgent, press \"👤 Call operator\"."

// Responder answers user questions. *dialog.Engine satisfies it.
type Responder interface {
	Ask(ctx context.Context, userID int64, text string) (string, error)
	Reset(userID int64)
}

// Escalation is the human-operator flow. *escalation.Machine satisfies it.
type Escalation interface {
	HandleText(ctx context.Context, ev transport.Event) bool
	HandleAction(ctx context.Context, ev transport.Event) bool
	RequestOperator(ctx context.Context, userID int64)
	ClearComposition(userID int64)
}

// FAQSource serves curated Q&A content. *store.Store satisfies it.
type FAQSource interface {
	FAQ(ctx context.Context) []store.FAQItem
}

// Router classifies inbound events and routes them: operator commands,
// menu presses, FAQ matches, escalation flows, and finally the AI dialog.
type Router struct {
	responder  Responder
	escalation Escalation
	adapter    transport.Adapter
	faq        FAQSource
	commands   *CommandHandler // nil disables operator commands
	admins     []int64
	photoURL   string
	out        io.Writer
}

// RouterOpts holds parameters for creating a Router.
type RouterOpts struct {
	Responder  Responder
	Escalation Escalation
	Adapter    transport.Adapter
	FAQ        FAQSource
	Commands   *CommandHandler // optional
	Admins     []int64
	PhotoURL   string    // welcome banner, optional
	Out        io.Writer // defaults to os.Stdout
}

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.Responder == nil {
		return nil, fmt.Errorf("bot: router: responder is required")
	}
	if opts.Escalation == nil {
		return nil, fmt.Errorf("bot: router: escalation is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bot: router: adapter is required")
	}
	if opts.FAQ == nil {
		return nil, fmt.Errorf("bot: router: faq source is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Router{
		responder:  opts.Responder,
		escalation: opts.Escalation,
		adapter:    opts.Adapter,
		faq:        opts.FAQ,
		commands:   opts.Commands,
		admins:     opts.Admins,
		photoURL:   opts.PhotoURL,
		out:        out,
	}, nil
}

// Handle classifies and routes a single inbound event.
func (r *Router) Handle(ctx context.Context, ev transport.Event) {
	switch ev.Kind {
	case transport.KindAction:
		r.handleAction(ctx, ev)
	case transport.KindText:
		r.handleText(ctx, ev)
	}
}

// handleText routes a plain message. Routing paths:
//  1. "!sb" operator command
//  2. /start greeting
//  3. Menu button label
//  4. Exact FAQ question match
//  5. Escalation flows (reply intent, ticket body, active ticket)
//  6. AI dialog
func (r *Router) handleText(ctx context.Context, ev transport.Event) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}
	fmt.Fprintf(r.out, "bot: recv [user=%d name=%s] %q\n", ev.UserID, ev.UserName, truncate(text, 80))

	if r.commands != nil && isCommand(text) && r.isAdmin(ev.UserID) {
		r.send(ctx, transport.Outbound{ChatID: ev.UserID, Text: r.commands.Execute(ctx, text)})
		return
	}

	switch text {
	case "/start":
		r.sendWelcome(ctx, ev)
		return
	case menuAskAI:
		r.send(ctx, transport.Outbound{
			ChatID:   ev.UserID,
			Text:     "Ask me anything about the platform and I'll do my best 🙂",
			Keyboard: MainMenu(),
		})
		return
	case menuFAQ:
		r.sendFAQ(ctx, ev.UserID)
		return
	case menuOperator:
		r.escalation.RequestOperator(ctx, ev.UserID)
		return
	case menuReset:
		r.responder.Reset(ev.UserID)
		// A reset also abandons any half-written ticket, otherwise the
		// next question would silently become its body.
		r.escalation.ClearComposition(ev.UserID)
		r.send(ctx, transport.Outbound{
			ChatID:   ev.UserID,
			Text:     "🔄 Fresh start! Previous conversation forgotten.",
			Keyboard: MainMenu(),
		})
		return
	}

	if answer, ok := r.matchFAQ(ctx, text); ok {
		r.send(ctx, transport.Outbound{ChatID: ev.UserID, Text: answer, Keyboard: MainMenu()})
		return
	}

	if r.escalation.HandleText(ctx, ev) {
		return
	}

	r.askAI(ctx, ev, text)
}

// askAI runs the message through the dialog engine.
func (r *Router) askAI(ctx context.Context, ev transport.Event, text string) {
	answer, err := r.responder.Ask(ctx, ev.UserID, text)
	if errors.Is(err, dialog.ErrGatewayExhausted) {
		r.send(ctx, transport.Outbound{ChatID: ev.UserID, Text: aiUnavailable, Keyboard: MainMenu()})
		return
	}
	if err != nil {
		log.Printf("bot: ask for %d: %v", ev.UserID, err)
		r.send(ctx, transport.Outbound{ChatID: ev.UserID, Text: aiUnavailable, Keyboard: MainMenu()})
		return
	}
	r.send(ctx, transport.Outbound{ChatID: ev.UserID, Text: answer, Keyboard: feedbackKeyboard()})
}

// handleAction routes a button press. Feedback buttons are settled locally;
// everything else belongs to the escalation machine.
func (r *Router) handleAction(ctx context.Context, ev transport.Event) {
	switch ev.ActionID {
	case actionHelpfulYes:
		r.answer(ctx, ev, "Glad it helped! 🎉")
		r.clearKeyboard(ctx, ev)
		return
	case actionHelpfulNo:
		r.answer(ctx, ev, "")
		r.clearKeyboard(ctx, ev)
		r.send(ctx, transport.Outbound{
			ChatID:   ev.UserID,
			Text:     "Sorry about that. A human can take it from here:",
			Keyboard: operatorKeyboard(),
		})
		return
	}

	if r.escalation.HandleAction(ctx, ev) {
		r.answer(ctx, ev, "")
		return
	}
	r.answer(ctx, ev, "")
	log.Printf("bot: unknown action %q from %d", ev.ActionID, ev.UserID)
}

// sendWelcome greets a new user, with the banner photo when configured.
func (r *Router) sendWelcome(ctx context.Context, ev transport.Event) {
	name := ev.DisplayName
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("Hi %s! 👋 I'm the Influenta support assistant. Ask me about the platform, browse the FAQ, or call a human operator.", name)
	msg := transport.Outbound{ChatID: ev.UserID, Text: text, Keyboard: MainMenu()}
	if r.photoURL != "" {
		msg.PhotoURL = r.photoURL
		msg.Text = truncate(text, maxCaptionLen)
	}
	r.send(ctx, msg)
}

// sendFAQ renders the curated question list.
func (r *Router) sendFAQ(ctx context.Context, userID int64) {
	items := r.faq.FAQ(ctx)
	var b strings.Builder
	b.WriteString("📚 Frequent questions — send one verbatim for an instant answer:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "\n%s", item.Question)
	}
	r.send(ctx, transport.Outbound{ChatID: userID, Text: b.String(), Keyboard: MainMenu()})
}

// matchFAQ answers exact question matches without burning a model call.
func (r *Router) matchFAQ(ctx context.Context, text string) (string, bool) {
	for _, item := range r.faq.FAQ(ctx) {
		if strings.EqualFold(text, strings.TrimSpace(item.Question)) {
			return item.Answer, true
		}
	}
	return "", false
}

func (r *Router) isAdmin(userID int64) bool {
	for _, id := range r.admins {
		if id == userID {
			return true
		}
	}
	return false
}

func (r *Router) send(ctx context.Context, msg transport.Outbound) {
	if _, err := r.adapter.Send(ctx, msg); err != nil {
		log.Printf("bot: send to %d: %v", msg.ChatID, err)
	}
}

func (r *Router) answer(ctx context.Context, ev transport.Event, toast string) {
	if err := r.adapter.AnswerButton(ctx, ev.EventID, toast); err != nil {
		log.Printf("bot: answer button %s: %v", ev.EventID, err)
	}
}

func (r *Router) clearKeyboard(ctx context.Context, ev transport.Event) {
	if ev.Message.MessageID == "" {
		return
	}
	if err := r.adapter.EditKeyboard(ctx, ev.Message, nil); err != nil {
		log.Printf("bot: clear keyboard on %s: %v", ev.Message.MessageID, err)
	}
}

// truncate shortens s to max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
