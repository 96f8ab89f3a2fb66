package handlers

import (
	"log"
	"net/http"

	"datashorts/internal/apis/dtos"
	"datashorts/internal/services"

	"github.com/gin-gonic/gin"
)

type SchemaHandler struct {
	schemaService services.SchemaService
}

func NewSchemaHandler(schemaService services.SchemaService) *SchemaHandler {
	if schemaService == nil {
		log.Fatal("Schema service cannot be nil")
	}
	return &SchemaHandler{
		schemaService: schemaService,
	}
}

func (h *SchemaHandler) Sync(c *gin.Context) {
	var req dtos.SchemaSyncRequest
	// the body is optional, an empty one asks for a full sync
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
	}

	result, statusCode, err := h.schemaService.SyncSchema(c.Request.Context(), c.Param("id"), req.SQL)
	if err != nil {
		respondError(c, int(statusCode), err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: result.Success,
		Data:    result,
	})
}

func (h *SchemaHandler) LatestSync(c *gin.Context) {
	result, statusCode, err := h.schemaService.LatestSync(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, int(statusCode), err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    result,
	})
}

func (h *SchemaHandler) Detect(c *gin.Context) {
	var req dtos.DetectSchemaChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, dtos.Response{
		Success: true,
		Data:    h.schemaService.DetectChange(req.SQL),
	})
}
