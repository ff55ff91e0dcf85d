package handler

import (
	"net/http"

	"nfe-backend/internal/service"
	"nfe-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/statistics", h.GetStatistics)
}

// GetStatistics returns cross-invoice dashboard figures
// @Summary      Import statistics
// @Description  Counts and value totals across all stored invoices plus the top suppliers by value
// @Tags         statistics
// @Produce      json
// @Success      200  {object}  response.Response{data=service.StatisticsResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	stats, err := h.statisticsService.GetStatistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
