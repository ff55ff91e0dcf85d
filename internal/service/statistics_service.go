package service

import (
	"context"

	"nfe-backend/internal/model"

	"gorm.io/gorm"
)

type SupplierRanking struct {
	Supplier     string  `json:"supplier"`
	InvoiceCount int64   `json:"invoice_count"`
	TotalValue   float64 `json:"total_value"`
}

type StatisticsResponse struct {
	InvoiceCount  int64             `json:"invoice_count"`
	ItemCount     int64             `json:"item_count"`
	FavoriteCount int64             `json:"favorite_count"`
	LockedCount   int64             `json:"locked_count"`
	TotalGross    float64           `json:"total_gross"`
	TotalDiscount float64           `json:"total_discount"`
	TotalFreight  float64           `json:"total_freight"`
	TopSuppliers  []SupplierRanking `json:"top_suppliers"`
}

type StatisticsService interface {
	GetStatistics(ctx context.Context) (StatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetStatistics aggregates stored invoices into dashboard figures.
func (s *statisticsService) GetStatistics(ctx context.Context) (StatisticsResponse, error) {
	var response StatisticsResponse
	db := s.db.WithContext(ctx)

	if err := db.Model(&model.Nfe{}).Count(&response.InvoiceCount).Error; err != nil {
		return response, err
	}
	if err := db.Model(&model.NfeItem{}).Count(&response.ItemCount).Error; err != nil {
		return response, err
	}
	db.Model(&model.Nfe{}).Where("favorite = ?", true).Count(&response.FavoriteCount)
	db.Model(&model.Nfe{}).Where("locked = ?", true).Count(&response.LockedCount)

	var totals struct {
		Gross    float64
		Discount float64
	}
	db.Model(&model.NfeItem{}).
		Select("COALESCE(SUM(total_price), 0) as gross, COALESCE(SUM(discount), 0) as discount").
		Scan(&totals)
	response.TotalGross = totals.Gross
	response.TotalDiscount = totals.Discount

	var freight struct {
		Value float64
	}
	db.Model(&model.Nfe{}).
		Select("COALESCE(SUM(freight_total), 0) as value").
		Scan(&freight)
	response.TotalFreight = freight.Value

	var top []SupplierRanking
	db.Model(&model.Nfe{}).
		Select("supplier, COUNT(*) as invoice_count, COALESCE(SUM(total_amount), 0) as total_value").
		Group("supplier").
		Order("total_value DESC").
		Limit(5).
		Scan(&top)
	response.TopSuppliers = top

	return response, nil
}
