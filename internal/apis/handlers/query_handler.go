package handlers

import (
	"log"
	"net/http"
	"strconv"

	"datashorts/internal/apis/dtos"
	"datashorts/internal/services"

	"github.com/gin-gonic/gin"
)

type QueryHandler struct {
	queryService services.QueryAgentService
}

func NewQueryHandler(queryService services.QueryAgentService) *QueryHandler {
	if queryService == nil {
		log.Fatal("Query agent service cannot be nil")
	}
	return &QueryHandler{
		queryService: queryService,
	}
}

// Execute runs one statement through the remote query agent. Failures of the
// statement itself are reported in the payload with 200.
func (h *QueryHandler) Execute(c *gin.Context) {
	var req dtos.ExecuteQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	connectionID := c.Param("id")
	result := h.queryService.RemoteQueryAgent(c.Request.Context(), req.SQL, connectionID, req.Schema, services.ResolveQueryOptions(req.Options))
	if result.ErrorKind == "connection_not_found" {
		errorMsg := result.Error
		c.JSON(http.StatusNotFound, dtos.Response{
			Success: false,
			Data:    result,
			Error:   &errorMsg,
		})
		return
	}

	c.JSON(http.StatusOK, dtos.Response{
		Success: result.Success,
		Data:    result,
	})
}

func (h *QueryHandler) ExecuteBatch(c *gin.Context) {
	var req dtos.BatchQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	connectionID := c.Param("id")
	result := h.queryService.BatchQueryAgent(c.Request.Context(), req.Queries, connectionID, req.Schema, services.ResolveBatchOptions(req.Options))

	c.JSON(http.StatusOK, dtos.Response{
		Success: result.Success,
		Data:    result,
	})
}

func (h *QueryHandler) ListHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	response, statusCode, err := h.queryService.ListHistory(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		respondError(c, int(statusCode), err)
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}
