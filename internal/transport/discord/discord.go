// Package discord implements the transport Adapter for Discord using the
// Gateway WebSocket. Conversations happen in DM channels; keyboards are
// rendered as message components. Menu (non-inline) keyboards have no
// native Discord equivalent, so their buttons echo the pressed label back
// as a plain text event.
package discord

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/influenta/switchboard/internal/transport"
)

const (
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
	// baseBackoff is the initial backoff duration for rate-limit retries.
	baseBackoff = 2 * time.Second
	// maxBackoff caps the exponential backoff.
	maxBackoff = 2 * time.Minute
	// menuPrefix marks component IDs that stand in for menu-keyboard
	// buttons. Presses are translated back into text events.
	menuPrefix = "kbd:"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// realSession wraps *discordgo.Session to implement the session interface.
type realSession struct {
	s *discordgo.Session
}

func (r *realSession) Open() error  { return r.s.Open() }
func (r *realSession) Close() error { return r.s.Close() }
func (r *realSession) AddHandler(handler interface{}) func() {
	return r.s.AddHandler(handler)
}
func (r *realSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return r.s.UserChannelCreate(recipientID, options...)
}
func (r *realSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendComplex(channelID, data, options...)
}
func (r *realSession) ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageEditComplex(m, options...)
}
func (r *realSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	return r.s.InteractionRespond(interaction, resp, options...)
}

// Adapter implements transport.Adapter for Discord.
type Adapter struct {
	sess      session
	botToken  string
	botUserID string

	mu             sync.Mutex
	connected      bool
	closed         bool
	events         chan transport.Event
	removeHandlers []func()
	dmChannels     map[int64]string                  // user ID -> DM channel ID
	interactions   map[string]*discordgo.Interaction // pending button presses by event ID
	baseBackoff    time.Duration
	maxBackoff     time.Duration
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken string
	// For testing: inject a mock session instead of real Discord API.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}

	a := &Adapter{
		botToken:     opts.BotToken,
		events:       make(chan transport.Event, 100),
		dmChannels:   make(map[int64]string),
		interactions: make(map[string]*discordgo.Interaction),
		baseBackoff:  baseBackoff,
		maxBackoff:   maxBackoff,
	}
	if opts.Session != nil {
		a.sess = opts.Session
	}
	return a, nil
}

// Connect establishes the Discord Gateway WebSocket connection.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("discord: adapter already closed")
	}
	if a.connected {
		return nil
	}

	// Create real session if not injected (production path).
	if a.sess == nil {
		dg, err := discordgo.New("Bot " + a.botToken)
		if err != nil {
			return fmt.Errorf("discord: create session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsDirectMessages |
			discordgo.IntentsGuildMessages |
			discordgo.IntentsMessageContent
		a.sess = &realSession{s: dg}
	}

	remove := a.sess.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.mu.Lock()
		a.botUserID = r.User.ID
		a.mu.Unlock()
		log.Printf("discord: connected as %s (ID: %s)", r.User.Username, r.User.ID)
	})
	a.removeHandlers = append(a.removeHandlers, remove)

	remove = a.sess.AddHandler(func(_ *discordgo.Session, d *discordgo.Disconnect) {
		log.Printf("discord: gateway disconnected, discordgo will auto-reconnect")
	})
	a.removeHandlers = append(a.removeHandlers, remove)

	if err := a.sess.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}

	a.connected = true
	return nil
}

// Listen returns the inbound event channel. Registers message and
// interaction handlers on the Gateway session. Must be called after Connect.
func (a *Adapter) Listen(ctx context.Context) (<-chan transport.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil, fmt.Errorf("discord: not connected")
	}

	remove := a.sess.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		a.handleMessage(m)
	})
	a.removeHandlers = append(a.removeHandlers, remove)

	remove = a.sess.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		a.handleInteraction(i)
	})
	a.removeHandlers = append(a.removeHandlers, remove)

	return a.events, nil
}

// Send delivers a message to the user's DM channel and returns its
// reference.
func (a *Adapter) Send(ctx context.Context, msg transport.Outbound) (transport.MessageRef, error) {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return transport.MessageRef{}, fmt.Errorf("discord: not connected")
	}
	a.mu.Unlock()

	channelID, err := a.dmChannel(ctx, msg.ChatID)
	if err != nil {
		return transport.MessageRef{}, err
	}

	data := &discordgo.MessageSend{Content: msg.Text}
	if msg.PhotoURL != "" {
		data.Embeds = []*discordgo.MessageEmbed{{
			Image: &discordgo.MessageEmbedImage{URL: msg.PhotoURL},
		}}
	}
	if msg.Keyboard != nil {
		data.Components = buildComponents(msg.Keyboard)
	}

	var sent *discordgo.Message
	err = a.retryOnRateLimit(ctx, func() error {
		var sendErr error
		sent, sendErr = a.sess.ChannelMessageSendComplex(channelID, data)
		return sendErr
	})
	if err != nil {
		return transport.MessageRef{}, fmt.Errorf("discord: send message: %w", err)
	}
	return transport.MessageRef{ChannelID: channelID, MessageID: sent.ID}, nil
}

// EditKeyboard replaces the components of a delivered message. A nil
// keyboard removes them.
func (a *Adapter) EditKeyboard(ctx context.Context, ref transport.MessageRef, kb *transport.Keyboard) error {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return fmt.Errorf("discord: not connected")
	}
	a.mu.Unlock()

	components := []discordgo.MessageComponent{}
	if kb != nil {
		components = buildComponents(kb)
	}
	edit := &discordgo.MessageEdit{
		Channel:    ref.ChannelID,
		ID:         ref.MessageID,
		Components: &components,
	}
	err := a.retryOnRateLimit(ctx, func() error {
		_, editErr := a.sess.ChannelMessageEditComplex(edit)
		return editErr
	})
	if err != nil {
		return fmt.Errorf("discord: edit keyboard: %w", err)
	}
	return nil
}

// AnswerButton acknowledges a pending button press. With a toast the user
// sees an ephemeral note; without one the press is silently settled.
func (a *Adapter) AnswerButton(ctx context.Context, eventID, toast string) error {
	a.mu.Lock()
	interaction, ok := a.interactions[eventID]
	delete(a.interactions, eventID)
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("discord: unknown interaction %s", eventID)
	}

	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}
	if toast != "" {
		resp = &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: toast,
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		}
	}
	if err := a.sess.InteractionRespond(interaction, resp); err != nil {
		return fmt.Errorf("discord: answer button: %w", err)
	}
	return nil
}

// Close gracefully shuts down the adapter connection.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.connected = false
	for _, remove := range a.removeHandlers {
		remove()
	}
	close(a.events)
	if a.sess != nil {
		return a.sess.Close()
	}
	return nil
}

// dmChannel resolves (and caches) the DM channel for a user.
func (a *Adapter) dmChannel(ctx context.Context, userID int64) (string, error) {
	a.mu.Lock()
	cached, ok := a.dmChannels[userID]
	a.mu.Unlock()
	if ok {
		return cached, nil
	}

	var ch *discordgo.Channel
	err := a.retryOnRateLimit(ctx, func() error {
		var apiErr error
		ch, apiErr = a.sess.UserChannelCreate(strconv.FormatInt(userID, 10))
		return apiErr
	})
	if err != nil {
		return "", fmt.Errorf("discord: open dm with %d: %w", userID, err)
	}

	a.mu.Lock()
	a.dmChannels[userID] = ch.ID
	a.mu.Unlock()
	return ch.ID, nil
}

// handleMessage converts a Discord message event into a text Event.
func (a *Adapter) handleMessage(m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	a.mu.Lock()
	botID := a.botUserID
	a.mu.Unlock()
	if m.Author.ID == botID {
		return
	}

	userID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		log.Printf("discord: unparseable author ID %q", m.Author.ID)
		return
	}

	ts, _ := discordgo.SnowflakeTimestamp(m.ID)
	a.deliver(transport.Event{
		Kind:        transport.KindText,
		UserID:      userID,
		UserName:    m.Author.Username,
		DisplayName: displayName(m.Author),
		Text:        m.Content,
		Message:     transport.MessageRef{ChannelID: m.ChannelID, MessageID: m.ID},
		Timestamp:   ts,
	})
}

// handleInteraction converts a component press into an Event. Menu-keyboard
// presses are settled immediately and re-emitted as text; real actions stay
// pending until AnswerButton.
func (a *Adapter) handleInteraction(i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	user := i.User
	if user == nil && i.Member != nil {
		user = i.Member.User
	}
	if user == nil {
		return
	}
	userID, err := strconv.ParseInt(user.ID, 10, 64)
	if err != nil {
		log.Printf("discord: unparseable interaction user ID %q", user.ID)
		return
	}

	customID := i.MessageComponentData().CustomID
	ref := transport.MessageRef{ChannelID: i.ChannelID}
	if i.Message != nil {
		ref.MessageID = i.Message.ID
	}

	if len(customID) > len(menuPrefix) && customID[:len(menuPrefix)] == menuPrefix {
		ack := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}
		if err := a.sess.InteractionRespond(i.Interaction, ack); err != nil {
			log.Printf("discord: ack menu press: %v", err)
		}
		a.deliver(transport.Event{
			Kind:        transport.KindText,
			UserID:      userID,
			UserName:    user.Username,
			DisplayName: displayName(user),
			Text:        customID[len(menuPrefix):],
			Message:     ref,
			Timestamp:   time.Now(),
		})
		return
	}

	a.mu.Lock()
	a.interactions[i.ID] = i.Interaction
	a.mu.Unlock()

	a.deliver(transport.Event{
		Kind:        transport.KindAction,
		UserID:      userID,
		UserName:    user.Username,
		DisplayName: displayName(user),
		ActionID:    customID,
		EventID:     i.ID,
		Message:     ref,
		Timestamp:   time.Now(),
	})
}

// deliver pushes an event without blocking the gateway goroutine forever.
func (a *Adapter) deliver(ev transport.Event) {
	select {
	case a.events <- ev:
	default:
		log.Printf("discord: event buffer full, dropping %s from %d", ev.Kind, ev.UserID)
	}
}

func displayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// buildComponents renders a Keyboard as Discord action rows. Inline buttons
// carry their action ID directly; menu buttons get the echo prefix.
func buildComponents(kb *transport.Keyboard) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for _, row := range kb.Rows {
		var buttons []discordgo.MessageComponent
		for _, b := range row {
			customID := b.ActionID
			style := discordgo.PrimaryButton
			if !kb.Inline {
				customID = menuPrefix + b.Label
				style = discordgo.SecondaryButton
			}
			buttons = append(buttons, discordgo.Button{
				Label:    b.Label,
				Style:    style,
				CustomID: customID,
			})
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}
	return rows
}

// retryOnRateLimit calls fn and retries with exponential backoff on Discord
// rate limit errors. It respects context cancellation.
func (a *Adapter) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		restErr, ok := err.(*discordgo.RESTError)
		if !ok || restErr.Response == nil || restErr.Response.StatusCode != 429 {
			return err // not a rate limit error
		}

		if attempt == maxRetries {
			return err
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * a.baseBackoff
		if wait > a.maxBackoff {
			wait = a.maxBackoff
		}

		log.Printf("discord: rate limited (attempt %d/%d), retrying in %v",
			attempt+1, maxRetries, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil // unreachable
}
