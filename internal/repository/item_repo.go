package repository

import (
	"context"

	"nfe-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemCatalogFilter narrows the cross-invoice item catalog.
type ItemCatalogFilter struct {
	Search   string // matches code, description or brand
	Supplier string // substring match on the owning invoice's supplier
	Page     int
	Limit    int
}

// CatalogEntry is a line item joined with its invoice header for the
// product catalog view.
type CatalogEntry struct {
	model.NfeItem
	Supplier  string `json:"supplier"`
	NfeNumber string `json:"nfe_number"`
}

type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.NfeItem, error)
	Catalog(ctx context.Context, filter ItemCatalogFilter) ([]CatalogEntry, int64, error)
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.NfeItem, error) {
	var item model.NfeItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) Catalog(ctx context.Context, filter ItemCatalogFilter) ([]CatalogEntry, int64, error) {
	db := GetDB(ctx, r.db)

	apply := func(q *gorm.DB) *gorm.DB {
		q = q.Joins("JOIN nfes ON nfes.id = nfe_items.nfe_id")
		if filter.Search != "" {
			like := "%" + filter.Search + "%"
			q = q.Where("nfe_items.code LIKE ? OR nfe_items.description LIKE ? OR nfe_items.brand LIKE ?", like, like, like)
		}
		if filter.Supplier != "" {
			q = q.Where("nfes.supplier LIKE ?", "%"+filter.Supplier+"%")
		}
		return q
	}

	var total int64
	if err := apply(db.Model(&model.NfeItem{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []CatalogEntry
	offset := (filter.Page - 1) * filter.Limit
	if err := apply(db.Model(&model.NfeItem{})).
		Select("nfe_items.*, nfes.supplier AS supplier, nfes.number AS nfe_number").
		Order("nfe_items.code").
		Offset(offset).Limit(filter.Limit).
		Scan(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
