package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceSnapshot records the computed prices of one line item at a point in
// time, together with the configuration that produced them. Rows are
// append-only: one batch is written per item whenever an unlocked invoice's
// configuration changes.
type PriceSnapshot struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	NfeID        string          `gorm:"type:varchar(64);not null;index" json:"nfe_id"`
	ItemID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	EntryTaxRate decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"entry_tax_rate"`
	XapuriMarkup decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"xapuri_markup"`
	EpitaMarkup  decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"epita_markup"`
	Rounding     string          `gorm:"type:varchar(10);not null" json:"rounding"`
	FreightTotal decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"freight_total"`
	NetUnitCost  decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"net_unit_cost"`
	FreightShare decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"freight_share"`
	XapuriPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"xapuri_price"`
	EpitaPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"epita_price"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (PriceSnapshot) TableName() string { return "price_snapshots" }

func (s *PriceSnapshot) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
