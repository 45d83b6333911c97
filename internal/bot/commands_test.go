package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/influenta/switchboard/internal/models"
	"github.com/influenta/switchboard/internal/store"
)

type fakeCommandStore struct {
	tickets []models.Ticket
	err     error
}

func (f *fakeCommandStore) OpenTickets(ctx context.Context) ([]models.Ticket, error) {
	return f.tickets, f.err
}

func (f *fakeCommandStore) PlatformStats(ctx context.Context) store.PlatformStats {
	return store.PlatformStats{Bloggers: 7, Advertisers: 3, Listings: 2, Reach: 50000}
}

func TestCommandTickets(t *testing.T) {
	st := &fakeCommandStore{tickets: []models.Ticket{
		{ID: 1, UserID: 42, DisplayName: "Dana", Body: "payout is stuck somewhere", CreatedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)},
	}}
	ch, _ := NewCommandHandler(st)

	out := ch.Execute(context.Background(), "!sb tickets")
	if !strings.Contains(out, "#") && !strings.Contains(out, "Dana") {
		t.Errorf("tickets output = %q", out)
	}
	if !strings.Contains(out, "payout is stuck") {
		t.Errorf("tickets output misses body: %q", out)
	}
}

func TestCommandTicketsEmptyAndError(t *testing.T) {
	ch, _ := NewCommandHandler(&fakeCommandStore{})
	if out := ch.Execute(context.Background(), "!sb tickets"); !strings.Contains(out, "No open tickets") {
		t.Errorf("empty output = %q", out)
	}

	ch, _ = NewCommandHandler(&fakeCommandStore{err: errors.New("db down")})
	if out := ch.Execute(context.Background(), "!sb tickets"); !strings.Contains(out, "Error") {
		t.Errorf("error output = %q", out)
	}
}

func TestCommandStatsAndHelp(t *testing.T) {
	ch, _ := NewCommandHandler(&fakeCommandStore{})
	ctx := context.Background()

	if out := ch.Execute(ctx, "!sb stats"); !strings.Contains(out, "Bloggers: 7") {
		t.Errorf("stats output = %q", out)
	}
	if out := ch.Execute(ctx, "!sb"); !strings.Contains(out, "!sb tickets") {
		t.Errorf("bare prefix should print help, got %q", out)
	}
	if out := ch.Execute(ctx, "!sb bogus"); !strings.Contains(out, "Unknown command") {
		t.Errorf("unknown output = %q", out)
	}
}

func TestIsCommand(t *testing.T) {
	for text, want := range map[string]bool{
		"!sb":          true,
		"!sb tickets":  true,
		"!sbx":         false,
		"hello !sb":    false,
		"какие движи?": false,
	} {
		if got := isCommand(text); got != want {
			t.Errorf("isCommand(%q) = %v, want %v", text, got, want)
		}
	}
}
