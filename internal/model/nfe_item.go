package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NfeItem is one line item of an imported invoice. UnitPrice, TotalPrice and
// Discount come from the source document; TotalPrice as stated there is
// authoritative for aggregate totals even when it differs from
// UnitPrice × Quantity by a source-side rounding step.
//
// FreightShare, NetUnitCost, XapuriPrice and EpitaPrice are computed outputs
// of the pricing engine and are overwritten on every recomputation.
type NfeItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	NfeID       string          `gorm:"type:varchar(64);not null;index" json:"nfe_id"`
	Ordinal     int             `gorm:"not null" json:"ordinal"`
	Code        string          `gorm:"type:varchar(60);not null;index" json:"code"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	NCM         string          `gorm:"type:varchar(10)" json:"ncm"`
	CFOP        string          `gorm:"type:varchar(10)" json:"cfop"`
	Unit        string          `gorm:"type:varchar(10)" json:"unit"`
	EAN         string          `gorm:"type:varchar(20)" json:"ean"`
	Reference   string          `gorm:"type:varchar(60)" json:"reference"`
	Brand       string          `gorm:"type:varchar(60)" json:"brand"`
	Color       string          `gorm:"type:varchar(40)" json:"color"`
	Size        string          `gorm:"type:varchar(20)" json:"size"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_price"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"discount"`
	ExtraCost   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"extra_cost"`

	FreightShare decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"freight_share"`
	NetUnitCost  decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"net_unit_cost"`
	XapuriPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"xapuri_price"`
	EpitaPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"epita_price"`
}

func (NfeItem) TableName() string { return "nfe_items" }

// BeforeCreate assigns the row ID application-side so the model also works
// on database engines without gen_random_uuid().
func (i *NfeItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
