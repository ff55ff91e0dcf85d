package pricing

import (
	"testing"

	"nfe-backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func itemWithTotals(totalPrice, discount string) model.NfeItem {
	return model.NfeItem{
		TotalPrice: dec(totalPrice),
		Discount:   dec(discount),
		Quantity:   dec("1"),
		UnitPrice:  dec(totalPrice),
	}
}

func TestSummarize(t *testing.T) {
	items := []model.NfeItem{
		itemWithTotals("100", "10"),
		itemWithTotals("200", "0"),
		itemWithTotals("300", "30"),
	}
	totals := Summarize(items, dec("12"))

	assert.True(t, totals.TotalGross.Equal(dec("600")))
	assert.True(t, totals.TotalDiscount.Equal(dec("40")))
	assert.True(t, totals.TotalNet.Equal(dec("560")))
	assert.True(t, totals.TotalQuantity.Equal(dec("3")))
	assert.InDelta(t, 6.67, totals.AverageDiscountPercent.InexactFloat64(), 0.01)
}

func TestSummarize_NetCostBasisUsesQuantity(t *testing.T) {
	// One line: unit 100, qty 2, discount 20 => net unit cost 100.8,
	// cost basis 201.6. Distinct from the stated net of 180.
	items := []model.NfeItem{
		{
			UnitPrice:  dec("100"),
			Quantity:   dec("2"),
			TotalPrice: dec("200"),
			Discount:   dec("20"),
		},
	}
	totals := Summarize(items, dec("12"))
	assert.True(t, totals.TotalNet.Equal(dec("180")))
	assert.True(t, totals.TotalNetCost.Equal(dec("201.6")), "got %s", totals.TotalNetCost)
}

func TestSummarize_Empty(t *testing.T) {
	totals := Summarize(nil, dec("12"))
	assert.True(t, totals.TotalGross.IsZero())
	assert.True(t, totals.TotalDiscount.IsZero())
	assert.True(t, totals.TotalNet.IsZero())
	assert.True(t, totals.TotalNetCost.IsZero())
	assert.True(t, totals.TotalQuantity.IsZero())
	assert.True(t, totals.AverageDiscountPercent.IsZero())
}

func TestSummarize_ZeroGrossAvoidsDivision(t *testing.T) {
	items := []model.NfeItem{itemWithTotals("0", "0")}
	totals := Summarize(items, dec("12"))
	assert.True(t, totals.AverageDiscountPercent.IsZero())
}

func TestSuggestedMarkups(t *testing.T) {
	// gross 1000, net 900: 1000*2.2/900 - 1 = 1.4444 => 144 rounded.
	items := []model.NfeItem{
		itemWithTotals("600", "60"),
		itemWithTotals("400", "40"),
	}
	xapuri, epita := SuggestedMarkups(items)
	assert.True(t, xapuri.Equal(dec("144")), "got %s", xapuri)
	assert.True(t, epita.Equal(dec("130")))
}

func TestSuggestedMarkups_ZeroNetFallsBack(t *testing.T) {
	xapuri, epita := SuggestedMarkups(nil)
	assert.True(t, xapuri.Equal(dec("120")))
	assert.True(t, epita.Equal(dec("130")))

	fullyDiscounted := []model.NfeItem{itemWithTotals("100", "100")}
	xapuri, _ = SuggestedMarkups(fullyDiscounted)
	assert.True(t, xapuri.Equal(dec("120")))
}
