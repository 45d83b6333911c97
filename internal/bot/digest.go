package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/influenta/switchboard/internal/models"
	"github.com/influenta/switchboard/internal/transport"
)

// digestCronParser accepts standard 5-field cron expressions
// (minute, hour, dom, month, dow).
var digestCronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// TicketLister provides the open-ticket view for the digest.
// *store.Store satisfies it.
type TicketLister interface {
	OpenTickets(ctx context.Context) ([]models.Ticket, error)
}

// Sender is the delivery half of the transport.
type Sender interface {
	Send(ctx context.Context, msg transport.Outbound) (transport.MessageRef, error)
}

// Digest periodically DMs the open-ticket backlog to every operator so
// tickets opened during a restart (or simply forgotten) resurface. Quiet
// days send nothing.
type Digest struct {
	store  TicketLister
	sender Sender
	admins []int64
	sched  cron.Schedule
}

// DigestOpts holds parameters for creating a Digest.
type DigestOpts struct {
	Store  TicketLister
	Sender Sender
	Admins []int64
	Cron   string // 5-field cron expression
}

// NewDigest creates a Digest.
func NewDigest(opts DigestOpts) (*Digest, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("bot: digest: store is required")
	}
	if opts.Sender == nil {
		return nil, fmt.Errorf("bot: digest: sender is required")
	}
	if len(opts.Admins) == 0 {
		return nil, fmt.Errorf("bot: digest: at least one admin is required")
	}
	sched, err := digestCronParser.Parse(opts.Cron)
	if err != nil {
		return nil, fmt.Errorf("bot: digest: parse cron %q: %w", opts.Cron, err)
	}
	return &Digest{
		store:  opts.Store,
		sender: opts.Sender,
		admins: opts.Admins,
		sched:  sched,
	}, nil
}

// Run fires the digest on schedule until ctx is cancelled.
func (d *Digest) Run(ctx context.Context) {
	for {
		wait := time.Until(d.sched.Next(time.Now()))
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
			d.fire(ctx)
		}
	}
}

// fire sends one digest round. Suppressed when the backlog is empty.
func (d *Digest) fire(ctx context.Context) {
	tickets, err := d.store.OpenTickets(ctx)
	if err != nil {
		log.Printf("bot: digest: list open tickets: %v", err)
		return
	}
	if len(tickets) == 0 {
		return
	}

	text := formatDigest(tickets)
	for _, admin := range d.admins {
		if _, err := d.sender.Send(ctx, transport.Outbound{ChatID: admin, Text: text}); err != nil {
			log.Printf("bot: digest: send to admin %d: %v", admin, err)
		}
	}
}

func formatDigest(tickets []models.Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🗂 Open ticket digest: %d waiting\n", len(tickets))
	for _, t := range tickets {
		fmt.Fprintf(&b, "\n#%d · %s · since %s\n%s\n", t.ID, t.DisplayName, t.CreatedAt.Format("Jan 2 15:04"), truncate(t.Body, 60))
	}
	return b.String()
}
