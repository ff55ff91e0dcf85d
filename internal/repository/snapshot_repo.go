package repository

import (
	"context"

	"nfe-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SnapshotRepository appends and reads price history. Snapshots are never
// updated or deleted.
type SnapshotRepository interface {
	CreateBatch(ctx context.Context, snapshots []model.PriceSnapshot) error
	ListByNfe(ctx context.Context, nfeID string, limit int) ([]model.PriceSnapshot, error)
	ListByItem(ctx context.Context, itemID uuid.UUID, limit int) ([]model.PriceSnapshot, error)
}

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) CreateBatch(ctx context.Context, snapshots []model.PriceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&snapshots).Error
}

func (r *snapshotRepository) ListByNfe(ctx context.Context, nfeID string, limit int) ([]model.PriceSnapshot, error) {
	var snapshots []model.PriceSnapshot
	q := GetDB(ctx, r.db).Where("nfe_id = ?", nfeID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *snapshotRepository) ListByItem(ctx context.Context, itemID uuid.UUID, limit int) ([]model.PriceSnapshot, error) {
	var snapshots []model.PriceSnapshot
	q := GetDB(ctx, r.db).Where("item_id = ?", itemID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}
