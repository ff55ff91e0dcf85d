// Package pricing implements the resale pricing engine: net cost derivation,
// proportional freight allocation, per-channel sale prices and summary
// totals. All functions are pure; configuration is passed in explicitly and
// no function here touches storage or global state.
package pricing

import (
	"nfe-backend/internal/model"

	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
	cents90 = decimal.RequireFromString("0.90")
)

// Config is the per-invoice pricing configuration the engine operates under.
type Config struct {
	EntryTaxRate decimal.Decimal
	XapuriMarkup decimal.Decimal
	EpitaMarkup  decimal.Decimal
	Rounding     string
	FreightTotal decimal.Decimal
}

// ConfigOf extracts the pricing configuration from an invoice record.
func ConfigOf(n *model.Nfe) Config {
	return Config{
		EntryTaxRate: n.EntryTaxRate,
		XapuriMarkup: n.XapuriMarkup,
		EpitaMarkup:  n.EpitaMarkup,
		Rounding:     n.Rounding,
		FreightTotal: n.FreightTotal,
	}
}

// Round maps a raw price to the configured presentation convention.
// "none" rounds to two decimal places, "90" floors the price and appends
// .90 (23.91 still becomes 23.90, not 24.90), "50" rounds up to the next
// 0.50 increment. Unknown modes behave like "none".
func Round(price decimal.Decimal, mode string) decimal.Decimal {
	switch mode {
	case model.Rounding90:
		return price.Floor().Add(cents90)
	case model.Rounding50:
		return price.Mul(two).Ceil().Div(two)
	default:
		return price.Round(2)
	}
}

// UnitDiscount spreads the line discount over the line quantity. A zero
// quantity yields a zero discount rather than a division error.
func UnitDiscount(item model.NfeItem) decimal.Decimal {
	if item.Quantity.IsPositive() {
		return item.Discount.Div(item.Quantity)
	}
	return decimal.Zero
}

// CostWithDiscount is the gross unit price minus the per-unit discount.
func CostWithDiscount(item model.NfeItem) decimal.Decimal {
	return item.UnitPrice.Sub(UnitDiscount(item))
}

// NetUnitCost applies the entry tax rate to the discounted unit cost.
// Freight shares and manual extra costs are deliberately excluded so that
// freight allocation works on a comparable cost basis across items.
func NetUnitCost(item model.NfeItem, entryTaxRate decimal.Decimal) decimal.Decimal {
	factor := one.Add(entryTaxRate.Div(hundred))
	return CostWithDiscount(item).Mul(factor)
}

// AllocateFreight distributes an invoice-level freight total across items
// proportionally to each item's net unit cost. The returned slice is in
// input order and sums to the freight total. When the cost basis is zero
// every share is zero; there is no even-split fallback.
func AllocateFreight(items []model.NfeItem, freightTotal, entryTaxRate decimal.Decimal) []decimal.Decimal {
	costs := make([]decimal.Decimal, len(items))
	basis := decimal.Zero
	for i, item := range items {
		costs[i] = NetUnitCost(item, entryTaxRate)
		basis = basis.Add(costs[i])
	}

	shares := make([]decimal.Decimal, len(items))
	if basis.IsZero() {
		return shares
	}
	for i, cost := range costs {
		// Multiply before dividing to keep precision on non-terminating ratios.
		shares[i] = cost.Mul(freightTotal).Div(basis)
	}
	return shares
}

// FinalUnitCost is the full per-unit cost a sale price is built on: net
// cost plus the item's freight share plus any manual extra cost.
func FinalUnitCost(netUnitCost, freightShare, extraCost decimal.Decimal) decimal.Decimal {
	return netUnitCost.Add(freightShare).Add(extraCost)
}

// SalePrice applies a channel markup to the final unit cost and rounds the
// result. Rounding happens only here, never on intermediate cost figures.
func SalePrice(finalUnitCost, markup decimal.Decimal, rounding string) decimal.Decimal {
	raw := finalUnitCost.Mul(one.Add(markup.Div(hundred)))
	return Round(raw, rounding)
}

// Apply recomputes every derived field of the given items under cfg:
// net unit cost, freight share and both channel prices. Items are updated
// in place. Callers must re-run Apply whenever any configuration value or
// item input changes; the outputs are only consistent as a whole.
func Apply(items []model.NfeItem, cfg Config) {
	shares := AllocateFreight(items, cfg.FreightTotal, cfg.EntryTaxRate)
	for i := range items {
		net := NetUnitCost(items[i], cfg.EntryTaxRate)
		final := FinalUnitCost(net, shares[i], items[i].ExtraCost)

		items[i].NetUnitCost = net
		items[i].FreightShare = shares[i]
		items[i].XapuriPrice = SalePrice(final, cfg.XapuriMarkup, cfg.Rounding)
		items[i].EpitaPrice = SalePrice(final, cfg.EpitaMarkup, cfg.Rounding)
	}
}
