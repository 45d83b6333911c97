package bot

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/influenta/switchboard/internal/dialog"
	"github.com/influenta/switchboard/internal/escalation"
	"github.com/influenta/switchboard/internal/store"
	"github.com/influenta/switchboard/internal/transport"
)

type fakeResponder struct {
	answer string
	err    error
	asked  []string
	resets []int64
}

func (f *fakeResponder) Ask(ctx context.Context, userID int64, text string) (string, error) {
	f.asked = append(f.asked, text)
	return f.answer, f.err
}

func (f *fakeResponder) Reset(userID int64) { f.resets = append(f.resets, userID) }

type fakeEscalation struct {
	consumeText   bool
	consumeAction bool
	texts         []transport.Event
	actions       []transport.Event
	requests      []int64
	cleared       []int64
}

func (f *fakeEscalation) HandleText(ctx context.Context, ev transport.Event) bool {
	f.texts = append(f.texts, ev)
	return f.consumeText
}

func (f *fakeEscalation) HandleAction(ctx context.Context, ev transport.Event) bool {
	f.actions = append(f.actions, ev)
	return f.consumeAction
}

func (f *fakeEscalation) RequestOperator(ctx context.Context, userID int64) {
	f.requests = append(f.requests, userID)
}

func (f *fakeEscalation) ClearComposition(userID int64) {
	f.cleared = append(f.cleared, userID)
}

type fakeFAQ struct {
	items []store.FAQItem
}

func (f *fakeFAQ) FAQ(ctx context.Context) []store.FAQItem { return f.items }

type routerFixture struct {
	router     *Router
	responder  *fakeResponder
	escalation *fakeEscalation
	adapter    *transport.MockAdapter
}

func newRouterFixture(t *testing.T, opts RouterOpts) *routerFixture {
	t.Helper()
	fx := &routerFixture{
		responder:  &fakeResponder{answer: "AI says hi"},
		escalation: &fakeEscalation{},
		adapter:    transport.NewMockAdapter(),
	}
	if err := fx.adapter.Connect(context.Background()); err != nil {
		t.Fatalf("connect mock: %v", err)
	}
	if opts.Responder == nil {
		opts.Responder = fx.responder
	} else {
		fx.responder = opts.Responder.(*fakeResponder)
	}
	if opts.Escalation == nil {
		opts.Escalation = fx.escalation
	} else {
		fx.escalation = opts.Escalation.(*fakeEscalation)
	}
	opts.Adapter = fx.adapter
	if opts.FAQ == nil {
		opts.FAQ = &fakeFAQ{items: []store.FAQItem{{Question: "🚀 How do I register?", Answer: "Open the app."}}}
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	r, err := NewRouter(opts)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	fx.router = r
	return fx
}

func text(userID int64, s string) transport.Event {
	return transport.Event{Kind: transport.KindText, UserID: userID, DisplayName: "Dana", Text: s}
}

func action(userID int64, actionID string) transport.Event {
	return transport.Event{
		Kind:     transport.KindAction,
		UserID:   userID,
		ActionID: actionID,
		EventID:  "ev-1",
		Message:  transport.MessageRef{ChannelID: "c", MessageID: "m"},
	}
}

func TestPlainTextGoesToAI(t *testing.T) {
	fx := newRouterFixture(t, RouterOpts{})

	fx.router.Handle(context.Background(), text(42, "how do payouts work?"))

	if len(fx.responder.asked) != 1 {
		t.Fatalf("AI asked %d times, want 1", len(fx.responder.asked))
	}
	last, ok := fx.adapter.LastSent()
	if !ok || last.Text != "AI says hi" {
		t.Fatalf("last sent = %+v", last)
	}
	if last.Keyboard == nil || !last.Keyboard.Inline {
		t.Error("AI answer missing feedback keyboard")
	}
}

func TestGatewayExhaustedShowsStaticReply(t *testing.T) {
	fx := newRouterFixture(t, RouterOpts{
		Responder: &fakeResponder{err: dialog.ErrGatewayExhausted},
	})

	fx.router.Handle(context.Background(), text(42, "hello?"))

	last, _ := fx.adapter.LastSent()
	if last.Text != aiUnavailable {
		t.Errorf("last sent = %q", last.Text)
	}
	if last.Keyboard == nil || last.Keyboard.Inline {
		t.Error("fallback should restore the main menu")
	}
}

func TestMenuButtons(t *testing.T) {
	fx := newRouterFixture(t, RouterOpts{})
	ctx := context.Background()

	fx.router.Handle(ctx, text(42, menuOperator))
	if len(fx.escalation.requests) != 1 || fx.escalation.requests[0] != 42 {
		t.Errorf("operator requests = %v", fx.escalation.requests)
	}

	fx.router.Handle(ctx, text(42, menuReset))
	if len(fx.responder.resets) != 1 {
		t.Errorf("resets = %v", fx.responder.resets)
	}
	if len(fx.escalation.cleared) != 1 || fx.escalation.cleared[0] != 42 {
		t.Errorf("reset did not clear composition: %v", fx.escalation.cleared)
	}

	fx.router.Handle(ctx, text(42, menuFAQ))
	last, _ := fx.adapter.LastSent()
	if !strings.Contains(last.Text, "How do I register?") {
		t.Errorf("FAQ listing = %q", last.Text)
	}

	if len(fx.responder.asked) != 0 {
		t.Errorf("menu presses leaked to the AI: %v", fx.responder.asked)
	}
}

// stubTicketStore backs the real escalation machine in router-level tests.
type stubTicketStore struct{ nextID uint }

func (s *stubTicketStore) CreateTicket(ctx context.Context, userID int64, displayName, body string) (uint, error) {
	s.nextID++
	return s.nextID, nil
}

func (s *stubTicketStore) CloseTicket(ctx context.Context, id uint) error { return nil }

func TestStartOverCancelsTicketComposition(t *testing.T) {
	responder := &fakeResponder{answer: "AI says hi"}
	adapter := transport.NewMockAdapter()
	if err := adapter.Connect(context.Background()); err != nil {
		t.Fatalf("connect mock: %v", err)
	}
	machine, err := escalation.New(escalation.Opts{
		Store:     &stubTicketStore{},
		Transport: adapter,
		Admins:    []int64{100},
	})
	if err != nil {
		t.Fatalf("escalation.New: %v", err)
	}
	router, err := NewRouter(RouterOpts{
		Responder:  responder,
		Escalation: machine,
		Adapter:    adapter,
		FAQ:        &fakeFAQ{},
		Out:        io.Discard,
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	ctx := context.Background()

	router.Handle(ctx, text(42, menuOperator))
	if !machine.IsComposing(42) {
		t.Fatal("operator request did not start composition")
	}

	router.Handle(ctx, text(42, menuReset))
	if machine.IsComposing(42) {
		t.Error("composition survived the reset")
	}

	// The follow-up question reaches the AI instead of becoming a ticket.
	router.Handle(ctx, text(42, "how do payouts work?"))
	if len(responder.asked) != 1 {
		t.Errorf("AI asked %d times, want 1", len(responder.asked))
	}
}

func TestExactFAQMatchSkipsAI(t *testing.T) {
	fx := newRouterFixture(t, RouterOpts{})

	fx.router.Handle(context.Background(), text(42, "🚀 How do I register?"))

	if len(fx.responder.asked) != 0 {
		t.Error("FAQ match still hit the AI")
	}
	last, _ := fx.adapter.LastSent()
	if last.Text != "Open the app." {
		t.Errorf("answer = %q", last.Text)
	}
}

func TestEscalationConsumesBeforeAI(t *testing.T) {
	fx := newRouterFixture(t, RouterOpts{
		Escalation: &fakeEscalation{consumeText: true},
	})

	fx.router.Handle(context.Background(), text(42, "my ticket text"))

	if len(fx.escalation.texts) != 1 {
		t.Fatal("escalation never saw the message")
	}
	if len(fx.responder.asked) != 0 {
		t.Error("consumed message still hit the AI")
	}
}

func TestStartSendsWelcomeWithBanner(t *testing.T) {
	fx := newRouterFixture(t, RouterOpts{PhotoURL: "https://example.com/banner.png"})

	fx.router.Handle(context.Background(), text(42, "/start"))

	last, _ := fx.adapter.LastSent()
	if last.PhotoURL != "https://example.com/banner.png" {
		t.Errorf("photo = %q", last.PhotoURL)
	}
	if !strings.Contains(last.Text, "Dana") {
		t.Errorf("welcome does not greet by name: %q", last.Text)
	}
	if last.Keyboard == nil || last.Keyboard.Inline {
		t.Error("welcome should carry the main menu")
	}
}

func TestOperatorCommands(t *testing.T) {
	ch, err := NewCommandHandler(&fakeCommandStore{})
	if err != nil {
		t.Fatalf("NewCommandHandler: %v", err)
	}
	fx := newRouterFixture(t, RouterOpts{Commands: ch, Admins: []int64{100}})
	ctx := context.Background()

	fx.router.Handle(ctx, text(100, "!sb tickets"))
	last, _ := fx.adapter.LastSent()
	if !strings.Contains(last.Text, "No open tickets") {
		t.Errorf("command reply = %q", last.Text)
	}
	if len(fx.responder.asked) != 0 {
		t.Error("admin command hit the AI")
	}

	// Same text from a regular user is just a question.
	fx.router.Handle(ctx, text(42, "!sb tickets"))
	if len(fx.responder.asked) != 1 {
		t.Error("non-admin command should fall through to the AI")
	}
}

func TestHelpfulNoOffersOperator(t *testing.T) {
	fx := newRouterFixture(t, RouterOpts{})

	fx.router.Handle(context.Background(), action(42, actionHelpfulNo))

	if got := fx.adapter.Answered(); len(got) != 1 {
		t.Errorf("button answered %d times", len(got))
	}
	edits := fx.adapter.Edits()
	if len(edits) != 1 || edits[0].Keyboard != nil {
		t.Errorf("feedback keyboard not cleared: %+v", edits)
	}
	last, _ := fx.adapter.LastSent()
	if last.Keyboard == nil || last.Keyboard.Rows[0][0].ActionID != escalation.ActionNeedOperator {
		t.Errorf("no operator offer: %+v", last)
	}
}

func TestUnhandledActionsGoToEscalation(t *testing.T) {
	fx := newRouterFixture(t, RouterOpts{
		Escalation: &fakeEscalation{consumeAction: true},
	})

	fx.router.Handle(context.Background(), action(100, "take_1_42"))

	if len(fx.escalation.actions) != 1 {
		t.Fatal("escalation never saw the action")
	}
	if got := fx.adapter.Answered(); len(got) != 1 {
		t.Error("escalation action left the button pending")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	long := strings.Repeat("а", 1100) // cyrillic, multi-byte
	got := truncate(long, maxCaptionLen)
	if runes := []rune(got); len(runes) != maxCaptionLen {
		t.Errorf("truncated to %d runes, want %d", len(runes), maxCaptionLen)
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("missing ellipsis")
	}
}
