package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/influenta/switchboard/internal/models"
	"github.com/influenta/switchboard/internal/store"
)

// commandPrefix is the prefix that triggers read-only operator commands.
const commandPrefix = "!sb"

// CommandStore is the read-only data the command handler needs.
// *store.Store satisfies it.
type CommandStore interface {
	OpenTickets(ctx context.Context) ([]models.Ticket, error)
	PlatformStats(ctx context.Context) store.PlatformStats
}

// CommandHandler processes read-only "!sb" commands from operators.
type CommandHandler struct {
	store CommandStore
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(st CommandStore) (*CommandHandler, error) {
	if st == nil {
		return nil, fmt.Errorf("bot: command handler: store is required")
	}
	return &CommandHandler{store: st}, nil
}

// isCommand reports whether text invokes the command handler.
func isCommand(text string) bool {
	return text == commandPrefix || strings.HasPrefix(text, commandPrefix+" ")
}

// Execute parses and executes an "!sb" command string. Returns the
// response text to send back to the operator.
func (ch *CommandHandler) Execute(ctx context.Context, text string) string {
	args := parseCommand(text)
	if len(args) == 0 {
		return ch.helpText()
	}

	switch args[0] {
	case "tickets":
		return ch.cmdTickets(ctx)
	case "stats":
		return ch.cmdStats(ctx)
	case "help":
		return ch.helpText()
	default:
		return fmt.Sprintf("Unknown command: `%s`\n\n%s", args[0], ch.helpText())
	}
}

// parseCommand strips the "!sb" prefix and splits the remaining text.
func parseCommand(text string) []string {
	text = strings.TrimSpace(text)
	if text == commandPrefix {
		return nil
	}
	text = strings.TrimPrefix(text, commandPrefix+" ")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return strings.Fields(text)
}

// cmdTickets lists open tickets, oldest first.
func (ch *CommandHandler) cmdTickets(ctx context.Context) string {
	tickets, err := ch.store.OpenTickets(ctx)
	if err != nil {
		return fmt.Sprintf("Error listing tickets: %v", err)
	}
	if len(tickets) == 0 {
		return "No open tickets. 🎉"
	}
	return formatTicketTable(tickets)
}

// cmdStats shows the platform counters.
func (ch *CommandHandler) cmdStats(ctx context.Context) string {
	stats := ch.store.PlatformStats(ctx)
	return fmt.Sprintf("**Platform**\nBloggers: %d\nAdvertisers: %d\nActive listings: %d\nCombined reach: %d",
		stats.Bloggers, stats.Advertisers, stats.Listings, stats.Reach)
}

// helpText returns usage information for all commands.
func (ch *CommandHandler) helpText() string {
	return "**Switchboard Commands**\n" +
		"`!sb tickets` — Open support tickets\n" +
		"`!sb stats` — Platform counters\n" +
		"`!sb help` — This message"
}

// formatTicketTable formats open tickets as a fixed-width table.
func formatTicketTable(tickets []models.Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Open tickets** (%d)\n", len(tickets))
	fmt.Fprintf(&b, "%-6s %-16s %-12s %s\n", "ID", "FROM", "OPENED", "PROBLEM")
	for _, t := range tickets {
		body := t.Body
		if len(body) > 40 {
			body = body[:37] + "..."
		}
		fmt.Fprintf(&b, "%-6d %-16s %-12s %s\n",
			t.ID, truncate(t.DisplayName, 16), t.CreatedAt.Format("Jan 2 15:04"), body)
	}
	return b.String()
}
