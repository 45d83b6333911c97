package escalation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/influenta/switchboard/internal/transport"
)

// Standalone action IDs. Ticket actions additionally encode the ticket and
// user, e.g. "reply_12_900042".
const (
	ActionNeedOperator = "need_operator"
	ActionCancelReply  = "cancel_reply"
	ActionCancelTicket = "cancel_ticket"
)

// actionNoop marks inert buttons left behind by a keyboard edit.
const actionNoop = "noop"

// Ticket action verbs.
const (
	verbTake  = "take"
	verbReply = "reply"
	verbClose = "close"
)

// HandleAction routes a button press through the machine and reports
// whether it was consumed.
func (m *Machine) HandleAction(ctx context.Context, ev transport.Event) bool {
	switch ev.ActionID {
	case ActionNeedOperator:
		m.RequestOperator(ctx, ev.UserID)
		return true
	case ActionCancelTicket:
		m.CancelComposition(ctx, ev.UserID)
		return true
	case ActionCancelReply:
		m.CancelReply(ctx, ev.UserID)
		return true
	case actionNoop:
		return true
	}

	verb, ticketID, userID, ok := parseTicketAction(ev.ActionID)
	if !ok {
		return false
	}
	switch verb {
	case verbTake:
		m.Claim(ctx, ev.UserID, ticketID, userID, ev.Message)
	case verbReply:
		m.BeginReply(ctx, ev.UserID, ticketID, userID)
	case verbClose:
		m.Close(ctx, ev.UserID, ticketID, userID, ev.Message)
	}
	return true
}

func ticketAction(verb string, ticketID uint, userID int64) string {
	return fmt.Sprintf("%s_%d_%d", verb, ticketID, userID)
}

// parseTicketAction decodes "<verb>_<ticketID>_<userID>". Anything
// malformed is simply not a ticket action.
func parseTicketAction(id string) (verb string, ticketID uint, userID int64, ok bool) {
	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		return "", 0, 0, false
	}
	verb = parts[0]
	if verb != verbTake && verb != verbReply && verb != verbClose {
		return "", 0, 0, false
	}
	tid, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return "", 0, 0, false
	}
	uid, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", 0, 0, false
	}
	return verb, uint(tid), uid, true
}

// ticketKeyboard builds the operator's inline buttons for a ticket. The
// take button only appears on the initial fan-out.
func ticketKeyboard(ticketID uint, userID int64, withTake bool) *transport.Keyboard {
	var rows [][]transport.Button
	if withTake {
		rows = append(rows, []transport.Button{
			{Label: "✋ Take", ActionID: ticketAction(verbTake, ticketID, userID)},
		})
	}
	rows = append(rows, []transport.Button{
		{Label: "💬 Reply", ActionID: ticketAction(verbReply, ticketID, userID)},
		{Label: "✅ Close", ActionID: ticketAction(verbClose, ticketID, userID)},
	})
	return &transport.Keyboard{Inline: true, Rows: rows}
}

// claimedKeyboard replaces the fan-out keyboard once a ticket is taken: the
// take button becomes an inert marker, reply and close stay live.
func claimedKeyboard(ticketID uint, userID int64) *transport.Keyboard {
	return &transport.Keyboard{Inline: true, Rows: [][]transport.Button{
		{{Label: "✅ In progress", ActionID: actionNoop}},
		{
			{Label: "💬 Reply", ActionID: ticketAction(verbReply, ticketID, userID)},
			{Label: "✅ Close", ActionID: ticketAction(verbClose, ticketID, userID)},
		},
	}}
}

// closedKeyboard is the terminal marker left on a ticket message after close.
func closedKeyboard() *transport.Keyboard {
	return &transport.Keyboard{Inline: true, Rows: [][]transport.Button{
		{{Label: "✅ Closed", ActionID: actionNoop}},
	}}
}

func cancelKeyboard() *transport.Keyboard {
	return &transport.Keyboard{Inline: true, Rows: [][]transport.Button{
		{{Label: "❌ Cancel", ActionID: ActionCancelTicket}},
	}}
}

func cancelReplyKeyboard() *transport.Keyboard {
	return &transport.Keyboard{Inline: true, Rows: [][]transport.Button{
		{{Label: "❌ Cancel", ActionID: ActionCancelReply}},
	}}
}
