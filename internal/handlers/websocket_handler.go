package handlers

import (
	"log"
	"net/http"
	"strings"

	"bingo-service/internal/dto"
	"bingo-service/internal/middleware"
	"bingo-service/internal/quiz"
	ws "bingo-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub   *ws.Hub
	rooms *quiz.Service
}

func NewWebSocketHandler(hub *ws.Hub, rooms *quiz.Service) *WebSocketHandler {
	return &WebSocketHandler{
		hub:   hub,
		rooms: rooms,
	}
}

// HandleWebSocket upgrades the connection. ?room=CODE subscribes it to the
// room's events.
// @Summary Open a game connection
// @Tags websocket
// @Security BearerAuth
// @Param room query string false "Room code"
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /ws [get]
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		dto.JsonError(c, http.StatusUnauthorized)
		return
	}

	channel := ""
	if code := strings.ToUpper(strings.TrimSpace(c.Query("room"))); code != "" {
		if _, err := h.rooms.Room(c.Request.Context(), code); err != nil {
			dto.JsonError(c, http.StatusNotFound, err.Error())
			return
		}
		channel = quiz.Channel(code)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn, userID, channel)

	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
