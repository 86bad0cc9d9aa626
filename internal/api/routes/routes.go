package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/takrit/linerelay/internal/api/handlers"
)

type Deps struct {
	Webhook *handlers.WebhookHandler
	History *handlers.HistoryHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/webhook/line-bot", d.Webhook.Handle)

	// Operator debug surface
	r.GET("/history/:session_id", d.History.Get)
	r.DELETE("/history/:session_id", d.History.Clear)
}
