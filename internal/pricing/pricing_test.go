package pricing

import (
	"testing"

	"nfe-backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func item(unitPrice, quantity, discount string) model.NfeItem {
	return model.NfeItem{
		UnitPrice: dec(unitPrice),
		Quantity:  dec(quantity),
		Discount:  dec(discount),
	}
}

func TestRound_None(t *testing.T) {
	assert.True(t, Round(dec("23.456"), model.RoundingNone).Equal(dec("23.46")))
	assert.True(t, Round(dec("23.454"), model.RoundingNone).Equal(dec("23.45")))
	assert.True(t, Round(dec("10"), model.RoundingNone).Equal(dec("10")))
}

func TestRound_Ending90(t *testing.T) {
	assert.True(t, Round(dec("23.45"), model.Rounding90).Equal(dec("23.90")))
	// Floor-then-add, not nearest: 23.91 stays at 23.90.
	assert.True(t, Round(dec("23.91"), model.Rounding90).Equal(dec("23.90")))
	assert.True(t, Round(dec("23.95"), model.Rounding90).Equal(dec("23.90")))
}

func TestRound_NearestHalf(t *testing.T) {
	assert.True(t, Round(dec("23.01"), model.Rounding50).Equal(dec("23.50")))
	assert.True(t, Round(dec("23.50"), model.Rounding50).Equal(dec("23.50")))
	assert.True(t, Round(dec("23.51"), model.Rounding50).Equal(dec("24.00")))
}

func TestRound_UnknownModeFallsBackToNone(t *testing.T) {
	assert.True(t, Round(dec("23.456"), "whatever").Equal(dec("23.46")))
}

func TestRound_Idempotent(t *testing.T) {
	inputs := []string{"23.456", "23.91", "23.01", "23.50", "99.99", "0", "7"}
	modes := []string{model.RoundingNone, model.Rounding90, model.Rounding50}
	for _, mode := range modes {
		for _, in := range inputs {
			once := Round(dec(in), mode)
			twice := Round(once, mode)
			assert.True(t, twice.Equal(once), "mode %s input %s: %s != %s", mode, in, twice, once)
		}
	}
}

func TestUnitDiscount(t *testing.T) {
	assert.True(t, UnitDiscount(item("100", "2", "20")).Equal(dec("10")))
	// Zero quantity must not divide.
	assert.True(t, UnitDiscount(item("100", "0", "20")).IsZero())
}

func TestNetUnitCost(t *testing.T) {
	got := NetUnitCost(item("100", "2", "20"), dec("12"))
	assert.True(t, got.Equal(dec("100.8")), "got %s", got)
}

func TestNetUnitCost_ZeroQuantity(t *testing.T) {
	// With qty 0 the discount is ignored and only tax applies.
	got := NetUnitCost(item("100", "0", "20"), dec("12"))
	assert.True(t, got.Equal(dec("112")), "got %s", got)
}

func TestNetUnitCost_ZeroTax(t *testing.T) {
	got := NetUnitCost(item("50", "1", "5"), decimal.Zero)
	assert.True(t, got.Equal(dec("45")), "got %s", got)
}

func TestNetUnitCost_NonNegative(t *testing.T) {
	// Gross >= unit discount and tax >= 0 keeps the net cost non-negative.
	items := []model.NfeItem{
		item("10", "4", "40"),
		item("0.01", "1", "0.01"),
		item("99.99", "3", "0"),
	}
	for _, it := range items {
		assert.False(t, NetUnitCost(it, dec("12")).IsNegative())
	}
}

func TestAllocateFreight_Conservation(t *testing.T) {
	items := []model.NfeItem{
		item("100", "2", "20"),
		item("37.50", "4", "0"),
		item("12.33", "1", "1.17"),
	}
	freight := dec("123.45")
	shares := AllocateFreight(items, freight, dec("12"))
	require.Len(t, shares, len(items))

	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s)
	}
	assert.InDelta(t, freight.InexactFloat64(), sum.InexactFloat64(), 1e-9)
}

func TestAllocateFreight_Proportionality(t *testing.T) {
	// Net unit costs 100.8 and 50.4 (ratio 2:1) split 30 into 20 and 10.
	items := []model.NfeItem{
		item("100", "2", "20"),
		item("50", "2", "10"),
	}
	shares := AllocateFreight(items, dec("30"), dec("12"))
	require.Len(t, shares, 2)
	assert.InDelta(t, 20, shares[0].InexactFloat64(), 1e-9)
	assert.InDelta(t, 10, shares[1].InexactFloat64(), 1e-9)
}

func TestAllocateFreight_ZeroBasis(t *testing.T) {
	// All-zero net costs: no proportional basis, every share is zero —
	// never an even split and never a division error.
	items := []model.NfeItem{
		item("0", "2", "0"),
		item("0", "5", "0"),
	}
	shares := AllocateFreight(items, dec("30"), dec("12"))
	require.Len(t, shares, 2)
	for _, s := range shares {
		assert.True(t, s.IsZero())
	}
}

func TestAllocateFreight_ZeroFreight(t *testing.T) {
	items := []model.NfeItem{item("100", "2", "20")}
	shares := AllocateFreight(items, decimal.Zero, dec("12"))
	require.Len(t, shares, 1)
	assert.True(t, shares[0].IsZero())
}

func TestAllocateFreight_Empty(t *testing.T) {
	shares := AllocateFreight(nil, dec("30"), dec("12"))
	assert.Empty(t, shares)
}

func TestSalePrice_EndToEnd(t *testing.T) {
	// gross 100, qty 2, discount 20 (10/unit), tax 12%:
	// costWithDiscount 90, netUnitCost 100.8, markup 160% => 262.08.
	it := item("100", "2", "20")
	net := NetUnitCost(it, dec("12"))
	require.True(t, net.Equal(dec("100.8")))

	final := FinalUnitCost(net, decimal.Zero, decimal.Zero)
	got := SalePrice(final, dec("160"), model.RoundingNone)
	assert.True(t, got.Equal(dec("262.08")), "got %s", got)
}

func TestSalePrice_RoundingAppliedLast(t *testing.T) {
	final := dec("100.8")
	assert.True(t, SalePrice(final, dec("160"), model.Rounding90).Equal(dec("262.90")))
	assert.True(t, SalePrice(final, dec("160"), model.Rounding50).Equal(dec("262.50")))
}

func TestSalePrice_IncludesFreightAndExtraCost(t *testing.T) {
	final := FinalUnitCost(dec("100"), dec("5"), dec("2.50"))
	require.True(t, final.Equal(dec("107.5")))
	got := SalePrice(final, dec("100"), model.RoundingNone)
	assert.True(t, got.Equal(dec("215")), "got %s", got)
}

func TestApply_RecomputesAllDerivedFields(t *testing.T) {
	items := []model.NfeItem{
		item("100", "2", "20"),
		item("50", "2", "10"),
	}
	cfg := Config{
		EntryTaxRate: dec("12"),
		XapuriMarkup: dec("160"),
		EpitaMarkup:  dec("130"),
		Rounding:     model.RoundingNone,
		FreightTotal: dec("30"),
	}
	Apply(items, cfg)

	assert.True(t, items[0].NetUnitCost.Equal(dec("100.8")))
	assert.InDelta(t, 20, items[0].FreightShare.InexactFloat64(), 1e-9)
	// (100.8 + 20) * 2.6 = 314.08
	assert.InDelta(t, 314.08, items[0].XapuriPrice.InexactFloat64(), 1e-9)
	// (100.8 + 20) * 2.3 = 277.84
	assert.InDelta(t, 277.84, items[0].EpitaPrice.InexactFloat64(), 1e-9)

	assert.True(t, items[1].NetUnitCost.Equal(dec("50.4")))
	assert.InDelta(t, 10, items[1].FreightShare.InexactFloat64(), 1e-9)
}

func TestApply_ChannelsShareFinalCost(t *testing.T) {
	items := []model.NfeItem{item("80", "1", "0")}
	cfg := Config{
		EntryTaxRate: decimal.Zero,
		XapuriMarkup: dec("100"),
		EpitaMarkup:  dec("100"),
		Rounding:     model.RoundingNone,
		FreightTotal: decimal.Zero,
	}
	Apply(items, cfg)
	assert.True(t, items[0].XapuriPrice.Equal(items[0].EpitaPrice))
	assert.True(t, items[0].XapuriPrice.Equal(dec("160")))
}
