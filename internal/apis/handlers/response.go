package handlers

import (
	"datashorts/internal/apis/dtos"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, statusCode int, err error) {
	errorMsg := err.Error()
	c.JSON(statusCode, dtos.Response{
		Success: false,
		Error:   &errorMsg,
	})
}
