package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *gin.Engine, ph *PhoneHandler) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api/v1")
	{
		apiGroup.GET("/status", ph.GetStatus)
		apiGroup.GET("/events", ph.ListEvents)
		apiGroup.POST("/ring", ph.Ring)
		apiGroup.POST("/commands", ph.PostCommand)
	}
}
