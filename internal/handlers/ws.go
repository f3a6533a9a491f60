package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/taskhub/server/internal/events"
	"github.com/taskhub/server/internal/middleware"
	"github.com/taskhub/server/internal/response"
)

type WSHandler struct {
	hub      *events.Hub
	log      *zap.SugaredLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *events.Hub, log *zap.SugaredLogger, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &WSHandler{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin header.
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Serve upgrades the request to a websocket and attaches the connection to
// the event hub under the authenticated user's ID.
func (h *WSHandler) Serve(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		response.Error(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err, "user_id", userID)
		return
	}

	client := events.NewClient(h.hub, conn, userID)
	go client.WritePump()
	go client.ReadPump()
}
