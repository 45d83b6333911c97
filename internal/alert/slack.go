// Package alert pushes out-of-band notifications to the operations team.
// Delivery is best-effort: failures are logged, never returned, so a broken
// webhook can't take the support flow down with it.
package alert

import (
	"context"
	"fmt"
	"log"

	"github.com/slack-go/slack"
)

// SlackNotifier posts ticket events to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
}

// NewSlackNotifier returns a notifier for the given webhook URL.
func NewSlackNotifier(webhookURL string) (*SlackNotifier, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("alert: webhook url is required")
	}
	return &SlackNotifier{webhookURL: webhookURL}, nil
}

// TicketOpened announces a freshly created support ticket.
func (n *SlackNotifier) TicketOpened(ctx context.Context, id uint, displayName, body string) {
	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf(":ticket: New support ticket #%d from %s\n>%s", id, displayName, body),
	}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		log.Printf("alert: post ticket %d to slack: %v", id, err)
	}
}
