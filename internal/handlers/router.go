package handlers

import (
	"bingo-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Router struct {
	Health    *HealthHandler
	Cards     *CardHandler
	Rooms     *RoomHandler
	WebSocket *WebSocketHandler
	Results   *ResultHandler
	JWTSecret string
}

func (r Router) Engine() *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	router.GET("/health", r.Health.Health)
	router.GET("/ready", r.Health.Ready)

	router.GET("/cards", r.Cards.List)
	router.GET("/join/:code", r.Rooms.Get)

	auth := middleware.JWTAuth(r.JWTSecret)

	router.POST("/cards/reload", auth, r.Cards.Reload)

	rooms := router.Group("/rooms", auth)
	{
		rooms.POST("", r.Rooms.Create)
		rooms.GET("/:code", r.Rooms.Get)
		rooms.POST("/:code/join", r.Rooms.Join)
		rooms.POST("/:code/start", r.Rooms.Start)
		rooms.POST("/:code/answers", r.Rooms.Answer)
		rooms.POST("/:code/next", r.Rooms.Next)
		rooms.POST("/:code/restart", r.Rooms.Restart)
		rooms.GET("/:code/scores", r.Rooms.Scores)
		rooms.GET("/:code/qr", r.Rooms.QRCode)
	}

	router.GET("/results", auth, r.Results.List)

	router.GET("/ws", auth, r.WebSocket.HandleWebSocket)

	return router
}
