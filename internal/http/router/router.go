package router

import (
	"github.com/gin-gonic/gin"

	"cartstream.app/ingest/internal/http/handler"
	"cartstream.app/ingest/internal/service"
)

type RouterConfig struct {
	Revision string
}

func SetupRoutes(router *gin.Engine, eventRouter service.EventRouter, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "revision": cfg.Revision})
	})

	pushHandler := handler.NewPushHandler(eventRouter)
	router.POST("/pubsub/push", pushHandler.Receive)

	schemaHandler := handler.NewSchemaHandler()
	router.GET("/schema/event", schemaHandler.Event)
}
