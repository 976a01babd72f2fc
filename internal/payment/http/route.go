package http

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the gateway callbacks. They authenticate by signature, not JWT.
func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	g.POST("/payments/webhooks/:provider", h.Webhook)
}
