package repository

import (
	"context"

	"nfe-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NfeListFilter narrows the invoice listing.
type NfeListFilter struct {
	Supplier      string // substring match
	Number        string // exact match
	FavoritesOnly bool
	Page          int
	Limit         int
}

type NfeRepository interface {
	Upsert(ctx context.Context, nfe *model.Nfe) error
	ReplaceItems(ctx context.Context, nfeID string, items []model.NfeItem) error
	UpdateItems(ctx context.Context, items []model.NfeItem) error
	FindByID(ctx context.Context, id string) (*model.Nfe, error)
	FindByIDWithItems(ctx context.Context, id string) (*model.Nfe, error)
	List(ctx context.Context, filter NfeListFilter) ([]model.Nfe, int64, error)
	Update(ctx context.Context, nfe *model.Nfe) error
	Delete(ctx context.Context, id string) error
}

type nfeRepository struct {
	db *gorm.DB
}

func NewNfeRepository(db *gorm.DB) NfeRepository {
	return &nfeRepository{db: db}
}

func (r *nfeRepository) Upsert(ctx context.Context, nfe *model.Nfe) error {
	return GetDB(ctx, r.db).
		Omit("Items").
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(nfe).Error
}

// ReplaceItems removes the invoice's stored items and inserts the given set,
// the way re-importing an invoice replaces its lines.
func (r *nfeRepository) ReplaceItems(ctx context.Context, nfeID string, items []model.NfeItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("nfe_id = ?", nfeID).Delete(&model.NfeItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].NfeID = nfeID
	}
	return db.Create(&items).Error
}

// UpdateItems persists recomputed derived fields for existing items.
func (r *nfeRepository) UpdateItems(ctx context.Context, items []model.NfeItem) error {
	db := GetDB(ctx, r.db)
	for i := range items {
		if err := db.Model(&model.NfeItem{}).
			Where("id = ?", items[i].ID).
			Updates(map[string]interface{}{
				"extra_cost":    items[i].ExtraCost,
				"freight_share": items[i].FreightShare,
				"net_unit_cost": items[i].NetUnitCost,
				"xapuri_price":  items[i].XapuriPrice,
				"epita_price":   items[i].EpitaPrice,
			}).Error; err != nil {
			return err
		}
	}
	return nil
}

// sortItems keeps preloaded items in document line order.
func sortItems(db *gorm.DB) *gorm.DB {
	return db.Order("ordinal")
}

func (r *nfeRepository) FindByID(ctx context.Context, id string) (*model.Nfe, error) {
	var nfe model.Nfe
	if err := GetDB(ctx, r.db).First(&nfe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &nfe, nil
}

func (r *nfeRepository) FindByIDWithItems(ctx context.Context, id string) (*model.Nfe, error) {
	var nfe model.Nfe
	if err := GetDB(ctx, r.db).Preload("Items", sortItems).First(&nfe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &nfe, nil
}

func (r *nfeRepository) List(ctx context.Context, filter NfeListFilter) ([]model.Nfe, int64, error) {
	var nfes []model.Nfe
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.Supplier != "" {
			q = q.Where("supplier LIKE ?", "%"+filter.Supplier+"%")
		}
		if filter.Number != "" {
			q = q.Where("number = ?", filter.Number)
		}
		if filter.FavoritesOnly {
			q = q.Where("favorite = ?", true)
		}
		return q
	}

	if err := apply(db.Model(&model.Nfe{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := apply(db.Preload("Items", sortItems)).
		Order("created_at desc").
		Offset(offset).Limit(filter.Limit).
		Find(&nfes).Error; err != nil {
		return nil, 0, err
	}

	return nfes, total, nil
}

func (r *nfeRepository) Update(ctx context.Context, nfe *model.Nfe) error {
	return GetDB(ctx, r.db).Omit("Items").Save(nfe).Error
}

func (r *nfeRepository) Delete(ctx context.Context, id string) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("nfe_id = ?", id).Delete(&model.NfeItem{}).Error; err != nil {
		return err
	}
	result := db.Delete(&model.Nfe{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
