package pricing

import (
	"nfe-backend/internal/model"

	"github.com/shopspring/decimal"
)

// Totals are summary figures over a set of line items. TotalNet is the
// invoice-stated net (gross minus discount); TotalNetCost is the
// tax-adjusted cost basis (net unit cost × quantity). The two are distinct
// quantities and are kept separate on purpose.
type Totals struct {
	TotalGross             decimal.Decimal `json:"total_gross"`
	TotalDiscount          decimal.Decimal `json:"total_discount"`
	TotalNet               decimal.Decimal `json:"total_net"`
	TotalNetCost           decimal.Decimal `json:"total_net_cost"`
	TotalQuantity          decimal.Decimal `json:"total_quantity"`
	AverageDiscountPercent decimal.Decimal `json:"average_discount_percent"`
}

// Summarize computes Totals over any subset of items. An empty subset
// yields all-zero totals.
func Summarize(items []model.NfeItem, entryTaxRate decimal.Decimal) Totals {
	var t Totals
	t.TotalGross = decimal.Zero
	t.TotalDiscount = decimal.Zero
	t.TotalNet = decimal.Zero
	t.TotalNetCost = decimal.Zero
	t.TotalQuantity = decimal.Zero
	t.AverageDiscountPercent = decimal.Zero

	for _, item := range items {
		t.TotalGross = t.TotalGross.Add(item.TotalPrice)
		t.TotalDiscount = t.TotalDiscount.Add(item.Discount)
		t.TotalNet = t.TotalNet.Add(item.TotalPrice.Sub(item.Discount))
		t.TotalNetCost = t.TotalNetCost.Add(NetUnitCost(item, entryTaxRate).Mul(item.Quantity))
		t.TotalQuantity = t.TotalQuantity.Add(item.Quantity)
	}

	if t.TotalGross.IsPositive() {
		t.AverageDiscountPercent = t.TotalDiscount.Div(t.TotalGross).Mul(hundred)
	}
	return t
}

// Advisory markup defaults surfaced to the UI. The 2.2 gross factor and the
// 120/130 fallbacks are long-standing commercial defaults; they pre-populate
// markup fields and never override an explicitly configured markup.
var (
	xapuriSuggestedFactor = decimal.RequireFromString("2.2")
	xapuriFallbackMarkup  = decimal.NewFromInt(120)
	epitaSuggestedMarkup  = decimal.NewFromInt(130)
)

// SuggestedMarkups derives advisory starting markups for both channels from
// the invoice-stated totals. Xapuri targets a sale total of 2.2 × gross,
// expressed as a markup over the stated net; with a zero net it falls back
// to 120. Epita is a fixed 130.
func SuggestedMarkups(items []model.NfeItem) (xapuri, epita decimal.Decimal) {
	gross := decimal.Zero
	net := decimal.Zero
	for _, item := range items {
		gross = gross.Add(item.TotalPrice)
		net = net.Add(item.TotalPrice.Sub(item.Discount))
	}

	if !net.IsPositive() {
		return xapuriFallbackMarkup, epitaSuggestedMarkup
	}

	target := gross.Mul(xapuriSuggestedFactor)
	xapuri = target.Div(net).Sub(one).Mul(hundred).Round(0)
	return xapuri, epitaSuggestedMarkup
}
