package routes

import (
	"log"

	"datashorts/internal/di"

	"github.com/gin-gonic/gin"
)

func SetupQueryRoutes(router *gin.Engine) {
	queryHandler, err := di.GetQueryHandler()
	if err != nil {
		log.Fatalf("Failed to get query handler: %v", err)
	}

	connections := router.Group("/api/connections")
	{
		connections.POST("/:id/query", queryHandler.Execute)
		connections.POST("/:id/batch", queryHandler.ExecuteBatch)
		connections.GET("/:id/history", queryHandler.ListHistory)
	}
}
