package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillhive/backend/internal/middleware"
	"github.com/skillhive/backend/internal/services"
)

// SSEHandler streams notification events to the browser.
type SSEHandler struct {
	hub *services.EventHub
}

func NewSSEHandler() *SSEHandler {
	return &SSEHandler{hub: services.GetEventHub()}
}

// heartbeatInterval keeps idle SSE connections from being reaped by
// proxies.
const heartbeatInterval = 30 * time.Second

// Stream handles GET /api/events/notifications
func (h *SSEHandler) Stream(c *gin.Context) {
	userID := middleware.GetUserID(c)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	clientID, events := h.hub.Subscribe(userID)
	defer h.hub.Unsubscribe(clientID)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			data, err := json.Marshal(event)
			if err != nil {
				return true
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", data)
			return true
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
