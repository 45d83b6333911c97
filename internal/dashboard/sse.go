package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/influenta/switchboard/internal/models"
	"gorm.io/gorm"
)

// sseEvent wire format is one "event:" line plus a JSON "data:" line.

// ticketEvent holds data for a ticket SSE event.
type ticketEvent struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
	Body        string `json:"body"`
	OpenCount   int64  `json:"open_count"`
}

// handleSSE streams newly opened tickets to the client by polling the
// tickets table. The ops wallboard uses this to ring a bell the moment a
// user escalates.
func handleSSE(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		// Only tickets created after the client connects are streamed.
		var lastSeenID uint
		var latest models.Ticket
		if err := db.Order("id DESC").Limit(1).First(&latest).Error; err == nil {
			lastSeenID = latest.ID
		}

		ctx := c.Request.Context()
		ticker := time.NewTicker(3 * time.Second)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				var fresh []models.Ticket
				db.Where("id > ?", lastSeenID).Order("id ASC").Find(&fresh)
				if len(fresh) == 0 {
					continue
				}
				lastSeenID = fresh[len(fresh)-1].ID

				var openCount int64
				db.Model(&models.Ticket{}).
					Where("status = ?", models.TicketOpen).
					Count(&openCount)

				for _, t := range fresh {
					writeSSE(c.Writer, "ticket", ticketEvent{
						ID:          t.ID,
						DisplayName: t.DisplayName,
						Body:        t.Body,
						OpenCount:   openCount,
					})
				}
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
