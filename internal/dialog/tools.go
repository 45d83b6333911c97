package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/influenta/switchboard/internal/gateway"
	"github.com/influenta/switchboard/internal/store"
)

// Tool names the model may call. The registry is closed: anything else is
// rejected with an error result instead of being executed.
const (
	ToolSearchBloggers = "search_bloggers"
	ToolGetMyStats     = "get_my_stats"
)

// noBloggersFound steers the model toward suggesting looser criteria
// instead of inventing profiles.
const noBloggersFound = "No bloggers found matching the criteria. Suggest that the user change the search criteria."

// profileNotFound covers users who talk to support before registering.
const profileNotFound = "Profile not found. The user may not be registered on the platform yet."

func toolSpecs() []gateway.ToolSpec {
	return []gateway.ToolSpec{
		{
			Name:        ToolSearchBloggers,
			Description: "Search the catalog for active bloggers by category, price and audience size",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"category": map[string]interface{}{
						"type":        "string",
						"description": "Content category, e.g. tech, beauty, travel",
					},
					"maxPrice": map[string]interface{}{
						"type":        "number",
						"description": "Maximum price per post in rubles",
					},
					"minSubscribers": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum subscriber count",
					},
				},
			},
		},
		{
			Name:        ToolGetMyStats,
			Description: "Fetch profile analytics for the user currently talking to the bot",
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// runTool executes one model-issued tool call and returns the result text
// for the tool turn. Failures become descriptive strings so the model can
// relay them; they never abort the conversation.
func (e *Engine) runTool(ctx context.Context, userID int64, tc gateway.ToolCall) string {
	switch tc.Name {
	case ToolSearchBloggers:
		return e.searchBloggers(ctx, tc.Arguments)
	case ToolGetMyStats:
		return e.userStats(ctx, userID)
	default:
		log.Printf("dialog: model requested unknown tool %q", tc.Name)
		return fmt.Sprintf("Error: unknown tool %q.", tc.Name)
	}
}

func (e *Engine) searchBloggers(ctx context.Context, rawArgs string) string {
	var params store.SearchParams
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &params); err != nil {
			return fmt.Sprintf("Error: invalid search parameters: %v.", err)
		}
	}

	bloggers, err := e.store.SearchBloggers(ctx, params)
	if err != nil {
		log.Printf("dialog: blogger search failed: %v", err)
		return "Error: blogger search is temporarily unavailable."
	}
	if len(bloggers) == 0 {
		return noBloggersFound
	}

	payload, err := json.Marshal(bloggers)
	if err != nil {
		return "Error: blogger search is temporarily unavailable."
	}
	return string(payload)
}

func (e *Engine) userStats(ctx context.Context, userID int64) string {
	summary, err := e.store.UserAnalytics(ctx, userID)
	if errors.Is(err, store.ErrProfileNotFound) {
		return profileNotFound
	}
	if err != nil {
		log.Printf("dialog: user analytics failed: %v", err)
		return "Error: analytics are temporarily unavailable."
	}
	return summary
}
