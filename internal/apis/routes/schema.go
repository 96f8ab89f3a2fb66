package routes

import (
	"log"

	"datashorts/internal/di"

	"github.com/gin-gonic/gin"
)

func SetupSchemaRoutes(router *gin.Engine) {
	schemaHandler, err := di.GetSchemaHandler()
	if err != nil {
		log.Fatalf("Failed to get schema handler: %v", err)
	}

	router.POST("/api/connections/:id/schema/sync", schemaHandler.Sync)
	router.GET("/api/connections/:id/schema/sync", schemaHandler.LatestSync)
	router.POST("/api/schema/detect", schemaHandler.Detect)
}
