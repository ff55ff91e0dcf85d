package service

import (
	"context"
	"fmt"

	"nfe-backend/internal/repository"
)

// CatalogFilter narrows the cross-invoice product catalog.
type CatalogFilter struct {
	Search   string
	Supplier string
	Page     int
	Limit    int
}

type CatalogItemResponse struct {
	ID           string `json:"id"`
	NfeID        string `json:"nfe_id"`
	NfeNumber    string `json:"nfe_number"`
	Supplier     string `json:"supplier"`
	Code         string `json:"code"`
	Description  string `json:"description"`
	EAN          string `json:"ean"`
	Brand        string `json:"brand"`
	Unit         string `json:"unit"`
	Quantity     string `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	NetUnitCost  string `json:"net_unit_cost"`
	XapuriPrice  string `json:"xapuri_price"`
	EpitaPrice   string `json:"epita_price"`
}

// CatalogService exposes the line items of every stored invoice as one
// searchable product list.
type CatalogService interface {
	ListItems(ctx context.Context, filter CatalogFilter) ([]CatalogItemResponse, int64, error)
}

type catalogService struct {
	itemRepo repository.ItemRepository
}

func NewCatalogService(itemRepo repository.ItemRepository) CatalogService {
	return &catalogService{itemRepo: itemRepo}
}

func (s *catalogService) ListItems(ctx context.Context, filter CatalogFilter) ([]CatalogItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	entries, total, err := s.itemRepo.Catalog(ctx, repository.ItemCatalogFilter{
		Search:   filter.Search,
		Supplier: filter.Supplier,
		Page:     filter.Page,
		Limit:    filter.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	result := make([]CatalogItemResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, CatalogItemResponse{
			ID:          e.ID.String(),
			NfeID:       e.NfeID,
			NfeNumber:   e.NfeNumber,
			Supplier:    e.Supplier,
			Code:        e.Code,
			Description: e.Description,
			EAN:         e.EAN,
			Brand:       e.Brand,
			Unit:        e.Unit,
			Quantity:    e.Quantity.String(),
			UnitPrice:   e.UnitPrice.StringFixed(4),
			NetUnitCost: e.NetUnitCost.StringFixed(4),
			XapuriPrice: e.XapuriPrice.StringFixed(2),
			EpitaPrice:  e.EpitaPrice.StringFixed(2),
		})
	}
	return result, total, nil
}
