package bot

import (
	"github.com/influenta/switchboard/internal/escalation"
	"github.com/influenta/switchboard/internal/transport"
)

// Main menu labels. Menu keyboards echo the pressed label back as text, so
// the router matches on these strings.
const (
	menuAskAI    = "💬 Ask AI"
	menuFAQ      = "📚 FAQ"
	menuOperator = "👤 Call operator"
	menuReset    = "🔄 Start over"
)

// Feedback actions attached to AI answers.
const (
	actionHelpfulYes = "helpful_yes"
	actionHelpfulNo  = "helpful_no"
)

// MainMenu is the persistent user keyboard.
func MainMenu() *transport.Keyboard {
	return &transport.Keyboard{Rows: [][]transport.Button{
		{{Label: menuAskAI}, {Label: menuFAQ}},
		{{Label: menuOperator}, {Label: menuReset}},
	}}
}

// feedbackKeyboard follows every AI answer.
func feedbackKeyboard() *transport.Keyboard {
	return &transport.Keyboard{Inline: true, Rows: [][]transport.Button{
		{
			{Label: "👍 Helpful", ActionID: actionHelpfulYes},
			{Label: "👎 Not really", ActionID: actionHelpfulNo},
		},
	}}
}

// operatorKeyboard offers the escalation path.
func operatorKeyboard() *transport.Keyboard {
	return &transport.Keyboard{Inline: true, Rows: [][]transport.Button{
		{{Label: "👤 Call operator", ActionID: escalation.ActionNeedOperator}},
	}}
}
