package http

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the public catalog routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/room-types")
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
	}
}
