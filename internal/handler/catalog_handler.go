package handler

import (
	"net/http"

	"nfe-backend/internal/service"
	"nfe-backend/pkg/pagination"
	"nfe-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/products", h.ListProducts)
}

// ListProducts returns line items across all stored invoices
// @Summary      Product catalog
// @Description  Searchable, paginated list of line items across every saved invoice
// @Tags         products
// @Produce      json
// @Param        search    query     string  false  "Match on code, description or brand"
// @Param        supplier  query     string  false  "Supplier name substring"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 20)"
// @Success      200       {object}  response.Response{data=response.Listing}
// @Failure      500       {object}  response.Response
// @Router       /api/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	params := pagination.Parse(c)

	items, total, err := h.catalogService.ListItems(c.Request.Context(), service.CatalogFilter{
		Search:   c.Query("search"),
		Supplier: c.Query("supplier"),
		Page:     params.Page,
		Limit:    params.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, items, total, params.Page, params.Limit))
}
