package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"nfe-backend/internal/service"
	"nfe-backend/pkg/pagination"
	"nfe-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NfeHandler struct {
	nfeService service.NfeService
}

func NewNfeHandler(nfeService service.NfeService) *NfeHandler {
	return &NfeHandler{nfeService: nfeService}
}

func (h *NfeHandler) RegisterRoutes(router *gin.RouterGroup) {
	nfes := router.Group("/api/nfes")
	{
		nfes.GET("", h.ListNfes)
		nfes.POST("", h.SaveNfe)
		nfes.GET("/:id", h.GetNfe)
		nfes.PUT("/:id", h.UpdateConfig)
		nfes.DELETE("/:id", h.DeleteNfe)
		nfes.PUT("/:id/lock", h.LockNfe)
		nfes.PUT("/:id/unlock", h.UnlockNfe)
		nfes.PUT("/:id/favorite", h.ToggleFavorite)
		nfes.PUT("/:id/items/:itemID/extra-cost", h.SetExtraCost)
		nfes.GET("/:id/summary", h.GetSummary)
		nfes.GET("/:id/history", h.GetPriceHistory)
	}

	router.POST("/api/import/xml", h.ImportXML)
}

// ListNfes returns a paginated list of saved invoices with their items
// @Summary      List invoices
// @Description  Retrieves saved invoices with items; filterable by supplier, number and favorites
// @Tags         nfes
// @Produce      json
// @Param        supplier   query     string  false  "Supplier name substring"
// @Param        number     query     string  false  "Invoice number"
// @Param        favorites  query     bool    false  "Only favorites"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200        {object}  response.Response{data=response.Listing}
// @Failure      500        {object}  response.Response
// @Router       /api/nfes [get]
func (h *NfeHandler) ListNfes(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.NfeFilter{
		Supplier:      c.Query("supplier"),
		Number:        c.Query("number"),
		FavoritesOnly: c.Query("favorites") == "true",
		Page:          params.Page,
		Limit:         params.Limit,
	}

	nfes, total, err := h.nfeService.ListNfes(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, nfes, total, params.Page, params.Limit))
}

// GetNfe returns one invoice with items and computed prices
// @Summary      Get invoice
// @Tags         nfes
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.NfeResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/nfes/{id} [get]
func (h *NfeHandler) GetNfe(c *gin.Context) {
	nfe, err := h.nfeService.GetNfe(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nfe))
}

// SaveNfe creates or replaces an invoice with its items in one transaction
// @Summary      Save invoice
// @Description  Upserts an invoice and replaces its line items; prices are computed before storing
// @Tags         nfes
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SaveNfeRequest  true  "Invoice payload"
// @Success      201      {object}  response.Response{data=service.NfeResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/nfes [post]
func (h *NfeHandler) SaveNfe(c *gin.Context) {
	var req service.SaveNfeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	nfe, err := h.nfeService.SaveNfe(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, nfe))
}

// UpdateConfig replaces the invoice's pricing configuration and recomputes prices
// @Summary      Update pricing configuration
// @Description  Replaces markup rates, entry tax, rounding mode and freight as one unit; recomputes every item and logs price snapshots. Rejected while the invoice is locked.
// @Tags         nfes
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Invoice ID"
// @Param        payload  body      service.UpdateConfigRequest   true  "Configuration payload"
// @Success      200      {object}  response.Response{data=service.NfeResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/nfes/{id} [put]
func (h *NfeHandler) UpdateConfig(c *gin.Context) {
	var req service.UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	nfe, err := h.nfeService.UpdateConfig(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, nfe))
}

// DeleteNfe removes an invoice and its items
// @Summary      Delete invoice
// @Tags         nfes
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/nfes/{id} [delete]
func (h *NfeHandler) DeleteNfe(c *gin.Context) {
	if err := h.nfeService.DeleteNfe(c.Request.Context(), c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// LockNfe freezes the invoice's configuration and prices
// @Summary      Lock invoice
// @Tags         nfes
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.NfeResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/nfes/{id}/lock [put]
func (h *NfeHandler) LockNfe(c *gin.Context) {
	h.setLocked(c, true)
}

// UnlockNfe re-enables configuration edits
// @Summary      Unlock invoice
// @Tags         nfes
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.NfeResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/nfes/{id}/unlock [put]
func (h *NfeHandler) UnlockNfe(c *gin.Context) {
	h.setLocked(c, false)
}

func (h *NfeHandler) setLocked(c *gin.Context, locked bool) {
	nfe, err := h.nfeService.SetLocked(c.Request.Context(), c.Param("id"), locked)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nfe))
}

// ToggleFavorite sets or clears the favorite flag
// @Summary      Toggle favorite
// @Tags         nfes
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "Invoice ID"
// @Param        payload  body      object  true  "{\"favorite\": bool}"
// @Success      200      {object}  response.Response{data=service.NfeResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/nfes/{id}/favorite [put]
func (h *NfeHandler) ToggleFavorite(c *gin.Context) {
	var req struct {
		Favorite bool `json:"favorite"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	nfe, err := h.nfeService.SetFavorite(c.Request.Context(), c.Param("id"), req.Favorite)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nfe))
}

// SetExtraCost sets the manual per-unit cost adjustment of one item
// @Summary      Set item extra cost
// @Description  Sets the per-unit manual cost adjustment and recomputes the invoice's prices
// @Tags         nfes
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "Invoice ID"
// @Param        itemID   path      string  true  "Item ID"
// @Param        payload  body      object  true  "{\"extra_cost\": string}"
// @Success      200      {object}  response.Response{data=service.NfeResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/nfes/{id}/items/{itemID}/extra-cost [put]
func (h *NfeHandler) SetExtraCost(c *gin.Context) {
	var req struct {
		ExtraCost string `json:"extra_cost" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	nfe, err := h.nfeService.SetExtraCost(c.Request.Context(), c.Param("id"), c.Param("itemID"), req.ExtraCost)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nfe))
}

// GetSummary returns invoice totals and suggested markups
// @Summary      Invoice summary
// @Tags         nfes
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.SummaryResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/nfes/{id}/summary [get]
func (h *NfeHandler) GetSummary(c *gin.Context) {
	summary, err := h.nfeService.GetSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// GetPriceHistory returns the append-only price snapshot log of an invoice
// @Summary      Price history
// @Tags         nfes
// @Produce      json
// @Param        id     path      string  true   "Invoice ID"
// @Param        limit  query     int     false  "Max snapshots (default all)"
// @Success      200    {object}  response.Response{data=[]model.PriceSnapshot}
// @Failure      500    {object}  response.Response
// @Router       /api/nfes/{id}/history [get]
func (h *NfeHandler) GetPriceHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	snapshots, err := h.nfeService.PriceHistory(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, snapshots))
}

// ImportXML parses an NF-e XML document into a priced preview
// @Summary      Import NF-e XML
// @Description  Parses a raw NF-e XML body into an invoice preview with default pricing configuration applied; nothing is persisted
// @Tags         import
// @Accept       xml
// @Produce      json
// @Success      200  {object}  response.Response{data=service.NfeResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/import/xml [post]
func (h *NfeHandler) ImportXML(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Empty request body"))
		return
	}

	nfe, err := h.nfeService.ImportXML(c.Request.Context(), body)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nfe))
}

func (h *NfeHandler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNfeLocked):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	}
}
