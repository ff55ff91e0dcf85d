package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rounding mode constants. Wire values match the stored configuration:
// "90" forces prices to end in .90, "50" rounds up to the next 0.50.
const (
	RoundingNone = "none"
	Rounding90   = "90"
	Rounding50   = "50"
)

// Default pricing configuration applied when an invoice is first imported.
var (
	DefaultEntryTaxRate = decimal.NewFromInt(12)
	DefaultXapuriMarkup = decimal.NewFromInt(160)
	DefaultEpitaMarkup  = decimal.NewFromInt(130)
)

// Nfe is an imported electronic invoice together with its per-invoice
// pricing configuration. The ID is the client-supplied invoice identifier
// (derived from the NF-e access key), not a generated surrogate.
type Nfe struct {
	ID            string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	Number        string          `gorm:"type:varchar(20);not null;index" json:"number"`
	AccessKey     string          `gorm:"type:varchar(50);index" json:"access_key"`
	IssuedAt      string          `gorm:"type:varchar(30)" json:"issued_at"`
	Supplier      string          `gorm:"type:varchar(120);not null;index" json:"supplier"`
	SupplierTaxID string          `gorm:"type:varchar(20)" json:"supplier_tax_id"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	ItemCount     int             `gorm:"not null;default:0" json:"item_count"`

	// Pricing configuration. Mutable as one unit until Locked is set.
	EntryTaxRate decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"entry_tax_rate"`
	XapuriMarkup decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"xapuri_markup"`
	EpitaMarkup  decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"epita_markup"`
	Rounding     string          `gorm:"type:varchar(10);not null;default:'none'" json:"rounding"`
	FreightTotal decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"freight_total"`
	Locked       bool            `gorm:"not null;default:false" json:"locked"`

	Favorite  bool      `gorm:"not null;default:false" json:"favorite"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []NfeItem `gorm:"foreignKey:NfeID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Nfe) TableName() string { return "nfes" }

// ApplyConfigDefaults fills zero-valued configuration fields with the
// standard import defaults.
func (n *Nfe) ApplyConfigDefaults() {
	if n.EntryTaxRate.IsZero() {
		n.EntryTaxRate = DefaultEntryTaxRate
	}
	if n.XapuriMarkup.IsZero() {
		n.XapuriMarkup = DefaultXapuriMarkup
	}
	if n.EpitaMarkup.IsZero() {
		n.EpitaMarkup = DefaultEpitaMarkup
	}
	if n.Rounding == "" {
		n.Rounding = RoundingNone
	}
}
