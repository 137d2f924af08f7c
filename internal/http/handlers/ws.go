package handlers

import (
	"fmt"
	"net/http"
	"os"

	"opschecklist/internal/domain"
	"opschecklist/internal/feed"
	"opschecklist/internal/logger"
	"opschecklist/internal/service"
	"opschecklist/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Collections exposed over the change feed.
var feedCollections = map[string]bool{
	"checklists":         true,
	"checklist_tasks":    true,
	"completion_records": true,
	"notifications":      true,
}

// Feed upgrades the request to a websocket and streams change events for
// one collection. The socket owns its feed subscription: disconnecting
// closes it, so unmounted views cannot leak handles.
func (h *Handler) Feed(hub *feed.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		userID, role, err := service.ParseJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		collection := c.Query("collection")
		if !feedCollections[collection] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown collection"})
			return
		}

		filter := c.Query("filter")
		// notifications are scoped server-side: employees only see their own
		if collection == "notifications" && role != domain.RoleAdmin {
			filter = fmt.Sprintf("recipient_user_id=%d", userID)
		}

		allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
		upgrader := websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Error("ws upgrade failed", "error", err)
			return
		}

		client := ws.NewClient(userID, conn)
		sub, err := hub.Subscribe(collection, filter, feed.Handlers{OnAny: client.Push})
		if err != nil {
			_ = conn.WriteJSON(ws.Envelope{Type: ws.MsgError, Error: "bad filter"})
			_ = conn.Close()
			return
		}
		client.Attach(sub)

		go client.Run(collection)
	}
}
