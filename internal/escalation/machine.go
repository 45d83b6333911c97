// Package escalation runs the human-operator side of support: ticket
// composition, operator fan-out, claims, replies and closure. It multiplexes
// any number of user conversations against a small operator allow-list,
// tracking who is composing, which ticket a user is bound to, and which user
// each operator is currently replying to.
package escalation

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/influenta/switchboard/internal/transport"
)

// TicketStore is the persistence the machine needs. *store.Store satisfies it.
type TicketStore interface {
	CreateTicket(ctx context.Context, userID int64, displayName, body string) (uint, error)
	CloseTicket(ctx context.Context, id uint) error
}

// Sender delivers messages to users and operators and edits keyboards on
// already-delivered ones. transport.Adapter satisfies it.
type Sender interface {
	Send(ctx context.Context, msg transport.Outbound) (transport.MessageRef, error)
	EditKeyboard(ctx context.Context, ref transport.MessageRef, kb *transport.Keyboard) error
}

// Alerter receives out-of-band notifications about new tickets. Optional;
// failures are the alerter's problem, never the machine's.
type Alerter interface {
	TicketOpened(ctx context.Context, id uint, displayName, body string)
}

// Opts configures a Machine.
type Opts struct {
	Store     TicketStore
	Transport Sender
	Admins    []int64 // operator allow-list (platform user IDs)
	Alerter   Alerter // optional
	UserMenu  *transport.Keyboard // restored to users when a flow ends
}

type replyTarget struct {
	userID   int64
	ticketID uint
}

// Machine holds the in-memory escalation state. All state is lost on
// restart; open tickets survive in the database and reach operators again
// through the digest.
type Machine struct {
	store     TicketStore
	transport Sender
	admins    []int64
	alerter   Alerter
	userMenu  *transport.Keyboard

	mu        sync.Mutex
	composing map[int64]bool        // users writing a ticket body
	active    map[int64]uint        // user -> open ticket they are bound to
	replying  map[int64]replyTarget // admin -> user they are replying to
}

// New validates opts and returns a ready Machine.
func New(opts Opts) (*Machine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("escalation: store is required")
	}
	if opts.Transport == nil {
		return nil, fmt.Errorf("escalation: transport is required")
	}
	if len(opts.Admins) == 0 {
		return nil, fmt.Errorf("escalation: at least one admin is required")
	}
	return &Machine{
		store:     opts.Store,
		transport: opts.Transport,
		admins:    opts.Admins,
		alerter:   opts.Alerter,
		userMenu:  opts.UserMenu,
		composing: make(map[int64]bool),
		active:    make(map[int64]uint),
		replying:  make(map[int64]replyTarget),
	}, nil
}

// HandleText routes a plain text message through the machine. It reports
// whether the message was consumed; unconsumed messages belong to the AI
// dialog. Precedence: an operator's pending reply intent wins over that same
// account's user-side states.
func (m *Machine) HandleText(ctx context.Context, ev transport.Event) bool {
	m.mu.Lock()
	_, hasReply := m.replying[ev.UserID]
	isComposing := m.composing[ev.UserID]
	ticketID, hasActive := m.active[ev.UserID]
	m.mu.Unlock()

	switch {
	case hasReply:
		m.SubmitReply(ctx, ev.UserID, ev.Text)
		return true
	case isComposing:
		m.SubmitTicketBody(ctx, ev)
		return true
	case hasActive:
		m.ForwardUserMessage(ctx, ev, ticketID)
		return true
	}
	return false
}

// RequestOperator puts the user into ticket composition and asks for a
// problem description.
func (m *Machine) RequestOperator(ctx context.Context, userID int64) {
	m.mu.Lock()
	m.composing[userID] = true
	m.mu.Unlock()

	m.send(ctx, transport.Outbound{
		ChatID:   userID,
		Text:     "📝 Describe your problem in one message and I will pass it to an operator.",
		Keyboard: cancelKeyboard(),
	})
}

// SubmitTicketBody turns a composing user's message into a persisted ticket,
// binds the user to it and fans the ticket out to every operator. The
// composing state ends either way: a failed write returns the user to idle,
// so their next message is a fresh question rather than a retried body.
func (m *Machine) SubmitTicketBody(ctx context.Context, ev transport.Event) {
	m.mu.Lock()
	delete(m.composing, ev.UserID)
	m.mu.Unlock()

	ticketID, err := m.store.CreateTicket(ctx, ev.UserID, displayName(ev), ev.Text)
	if err != nil {
		log.Printf("escalation: create ticket for %d: %v", ev.UserID, err)
		m.send(ctx, transport.Outbound{
			ChatID:   ev.UserID,
			Text:     "⚠️ Could not save your request. Press \"👤 Call operator\" and send it again.",
			Keyboard: m.userMenu,
		})
		return
	}

	m.mu.Lock()
	m.active[ev.UserID] = ticketID
	m.mu.Unlock()

	m.send(ctx, transport.Outbound{
		ChatID:   ev.UserID,
		Text:     fmt.Sprintf("✅ Ticket #%d created. An operator will reply right here.", ticketID),
		Keyboard: m.userMenu,
	})

	m.notifyAdmins(ctx, fmt.Sprintf("🆕 Ticket #%d from %s:\n\n%s", ticketID, displayName(ev), ev.Text),
		ticketKeyboard(ticketID, ev.UserID, true))

	if m.alerter != nil {
		m.alerter.TicketOpened(ctx, ticketID, displayName(ev), ev.Text)
	}
}

// ForwardUserMessage relays a follow-up from a ticket-bound user to every
// operator.
func (m *Machine) ForwardUserMessage(ctx context.Context, ev transport.Event, ticketID uint) {
	m.notifyAdmins(ctx, fmt.Sprintf("💬 Ticket #%d, %s writes:\n\n%s", ticketID, displayName(ev), ev.Text),
		ticketKeyboard(ticketID, ev.UserID, false))
}

// Claim marks an operator as working a ticket: the pressed fan-out message
// gets its take button swapped for an in-progress marker. Claims are
// advisory, not exclusive: other operators keep their own buttons and can
// still jump in.
func (m *Machine) Claim(ctx context.Context, adminID int64, ticketID uint, userID int64, ref transport.MessageRef) {
	if !m.isAdmin(adminID) {
		return
	}
	m.replaceKeyboard(ctx, adminID, ref, claimedKeyboard(ticketID, userID),
		fmt.Sprintf("You took ticket #%d.", ticketID))
	m.send(ctx, transport.Outbound{
		ChatID: userID,
		Text:   fmt.Sprintf("👨‍💻 An operator is now looking at your ticket #%d.", ticketID),
	})
}

// BeginReply arms the operator's reply intent. Each operator has a single
// slot; starting a new reply replaces any previous intent.
func (m *Machine) BeginReply(ctx context.Context, adminID int64, ticketID uint, userID int64) {
	if !m.isAdmin(adminID) {
		return
	}
	m.mu.Lock()
	m.replying[adminID] = replyTarget{userID: userID, ticketID: ticketID}
	m.mu.Unlock()

	m.send(ctx, transport.Outbound{
		ChatID:   adminID,
		Text:     fmt.Sprintf("✍️ Write your reply for ticket #%d. It goes straight to the user.", ticketID),
		Keyboard: cancelReplyKeyboard(),
	})
}

// SubmitReply delivers the operator's message to the armed target. The
// intent clears whether or not delivery works: a failed delivery means
// pressing Reply again, never silently retargeting the operator's next
// message.
func (m *Machine) SubmitReply(ctx context.Context, adminID int64, text string) {
	m.mu.Lock()
	target, ok := m.replying[adminID]
	delete(m.replying, adminID)
	m.mu.Unlock()
	if !ok {
		return
	}

	_, err := m.transport.Send(ctx, transport.Outbound{
		ChatID: target.userID,
		Text:   fmt.Sprintf("👨‍💻 Operator on ticket #%d:\n\n%s", target.ticketID, text),
	})
	if err != nil {
		log.Printf("escalation: deliver reply to %d: %v", target.userID, err)
		m.send(ctx, transport.Outbound{
			ChatID:   adminID,
			Text:     fmt.Sprintf("⚠️ Could not deliver the reply on ticket #%d. Press 💬 Reply and send it again.", target.ticketID),
			Keyboard: ticketKeyboard(target.ticketID, target.userID, false),
		})
		return
	}

	m.send(ctx, transport.Outbound{
		ChatID:   adminID,
		Text:     fmt.Sprintf("✅ Reply sent on ticket #%d.", target.ticketID),
		Keyboard: ticketKeyboard(target.ticketID, target.userID, false),
	})
}

// Close closes a ticket: the row is updated first, and only then is the
// user unbound, the pressed keyboard replaced with a closed marker and
// everyone notified. A failed update changes nothing.
func (m *Machine) Close(ctx context.Context, adminID int64, ticketID uint, userID int64, ref transport.MessageRef) {
	if !m.isAdmin(adminID) {
		return
	}
	if err := m.store.CloseTicket(ctx, ticketID); err != nil {
		log.Printf("escalation: close ticket %d: %v", ticketID, err)
		m.send(ctx, transport.Outbound{
			ChatID: adminID,
			Text:   fmt.Sprintf("⚠️ Could not close ticket #%d: it may already be closed.", ticketID),
		})
		return
	}

	m.mu.Lock()
	if m.active[userID] == ticketID {
		delete(m.active, userID)
	}
	for admin, target := range m.replying {
		if target.ticketID == ticketID {
			delete(m.replying, admin)
		}
	}
	m.mu.Unlock()

	m.replaceKeyboard(ctx, adminID, ref, closedKeyboard(),
		fmt.Sprintf("Ticket #%d closed.", ticketID))
	m.send(ctx, transport.Outbound{
		ChatID:   userID,
		Text:     fmt.Sprintf("✅ Ticket #%d is closed. Thanks for reaching out!", ticketID),
		Keyboard: m.userMenu,
	})
}

// CancelComposition backs the user out of ticket composition.
func (m *Machine) CancelComposition(ctx context.Context, userID int64) {
	m.mu.Lock()
	wasComposing := m.composing[userID]
	delete(m.composing, userID)
	m.mu.Unlock()
	if !wasComposing {
		return
	}
	m.send(ctx, transport.Outbound{
		ChatID:   userID,
		Text:     "Okay, cancelled.",
		Keyboard: m.userMenu,
	})
}

// ClearComposition silently drops a user's composing state. Used when
// another flow, such as a conversation reset, supersedes the ticket prompt.
func (m *Machine) ClearComposition(userID int64) {
	m.mu.Lock()
	delete(m.composing, userID)
	m.mu.Unlock()
}

// CancelReply disarms the operator's reply intent.
func (m *Machine) CancelReply(ctx context.Context, adminID int64) {
	m.mu.Lock()
	_, ok := m.replying[adminID]
	delete(m.replying, adminID)
	m.mu.Unlock()
	if !ok {
		return
	}
	m.send(ctx, transport.Outbound{
		ChatID: adminID,
		Text:   "Reply cancelled.",
	})
}

// --- State accessors ---

// IsComposing reports whether the user is writing a ticket body.
func (m *Machine) IsComposing(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.composing[userID]
}

// ActiveTicket returns the ticket the user is bound to, if any.
func (m *Machine) ActiveTicket(userID int64) (uint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.active[userID]
	return id, ok
}

// ReplyIntent returns the operator's armed reply target, if any.
func (m *Machine) ReplyIntent(adminID int64) (int64, uint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.replying[adminID]
	return target.userID, target.ticketID, ok
}

// --- Internals ---

func (m *Machine) isAdmin(userID int64) bool {
	for _, id := range m.admins {
		if id == userID {
			return true
		}
	}
	return false
}

// notifyAdmins fans a message out to every operator sequentially. One
// failed delivery never blocks the rest.
func (m *Machine) notifyAdmins(ctx context.Context, text string, kb *transport.Keyboard) {
	for _, admin := range m.admins {
		if _, err := m.transport.Send(ctx, transport.Outbound{
			ChatID:   admin,
			Text:     text,
			Keyboard: kb,
		}); err != nil {
			log.Printf("escalation: notify admin %d: %v", admin, err)
		}
	}
}

// replaceKeyboard swaps the keyboard on the message whose button was
// pressed. Without a message reference, or when the edit fails, the
// operator gets a plain confirmation carrying the same buttons instead.
func (m *Machine) replaceKeyboard(ctx context.Context, adminID int64, ref transport.MessageRef, kb *transport.Keyboard, fallback string) {
	if ref != (transport.MessageRef{}) {
		err := m.transport.EditKeyboard(ctx, ref, kb)
		if err == nil {
			return
		}
		log.Printf("escalation: edit keyboard on %s: %v", ref.MessageID, err)
	}
	m.send(ctx, transport.Outbound{ChatID: adminID, Text: fallback, Keyboard: kb})
}

// send is fire-and-forget delivery with logging.
func (m *Machine) send(ctx context.Context, msg transport.Outbound) {
	if _, err := m.transport.Send(ctx, msg); err != nil {
		log.Printf("escalation: send to %d: %v", msg.ChatID, err)
	}
}

func displayName(ev transport.Event) string {
	if ev.DisplayName != "" {
		return ev.DisplayName
	}
	if ev.UserName != "" {
		return ev.UserName
	}
	return fmt.Sprintf("user %d", ev.UserID)
}
