package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
)

func pctStage(name string, v string) *model.PricingStage {
	return &model.PricingStage{
		Name:          name,
		ModifierKind:  model.ModifierPercentage,
		ModifierValue: decimal.RequireFromString(v),
	}
}

func rowMod(v string) *model.RowModifier {
	return &model.RowModifier{Percent: decimal.RequireFromString(v)}
}

func seatMod(v string) *model.SeatModifier {
	return &model.SeatModifier{Percent: decimal.RequireFromString(v)}
}

func TestCompute_BaseOnly(t *testing.T) {
	final, bd := Compute(decimal.RequireFromString("100.00"), nil, nil, nil)

	assert.True(t, final.Equal(decimal.RequireFromString("100.00")), "got %s", final)
	assert.False(t, bd.StageApplied)
	assert.False(t, bd.RowApplied)
	assert.False(t, bd.SeatApplied)
	assert.False(t, bd.Clamped)
}

func TestCompute_StageThenRow(t *testing.T) {
	// Reference fixture: $100.00 base, stage +15%, row 1 +20%.
	final, bd := Compute(decimal.RequireFromString("100.00"), pctStage("Early Bird", "15"), rowMod("20"), nil)

	assert.True(t, bd.PriceAfterStage.Equal(decimal.RequireFromString("115")), "after stage: %s", bd.PriceAfterStage)
	assert.True(t, bd.PriceAfterRow.Equal(decimal.RequireFromString("138")), "after row: %s", bd.PriceAfterRow)
	assert.True(t, final.Equal(decimal.RequireFromString("138.00")), "final: %s", final)
	assert.Equal(t, "Early Bird", bd.StageName)
}

func TestCompute_AllThreeLayers(t *testing.T) {
	// 100 * 1.10 * 1.05 * 0.98 = 113.19 exactly.
	final, bd := Compute(decimal.RequireFromString("100.00"), pctStage("General", "10"), rowMod("5"), seatMod("-2"))

	assert.True(t, final.Equal(decimal.RequireFromString("113.19")), "final: %s", final)
	assert.True(t, bd.SeatApplied)
}

func TestCompute_FixedStageModifier(t *testing.T) {
	final, bd := Compute(decimal.RequireFromString("80.00"), &model.PricingStage{
		Name:          "Flat Surcharge",
		ModifierKind:  model.ModifierFixed,
		ModifierValue: decimal.RequireFromString("5.50"),
	}, nil, nil)

	assert.True(t, bd.PriceAfterStage.Equal(decimal.RequireFromString("85.50")))
	assert.True(t, final.Equal(decimal.RequireFromString("85.50")))
}

func TestCompute_RoundsOnlyAtFinalStep(t *testing.T) {
	// 99.99 * 1.155 = 115.48845; rounding intermediates would lose the
	// trailing digits before the row markup is applied.
	// 115.48845 * 1.0333 = 119.3341... -> 119.33 final.
	final, bd := Compute(decimal.RequireFromString("99.99"), pctStage("Presale", "15.5"), rowMod("3.33"), nil)

	assert.True(t, bd.PriceAfterStage.Equal(decimal.RequireFromString("115.48845")),
		"intermediate must stay unrounded, got %s", bd.PriceAfterStage)
	assert.True(t, final.Equal(decimal.RequireFromString("119.33")), "final: %s", final)
}

func TestCompute_NegativeCompositionClampsToZero(t *testing.T) {
	final, bd := Compute(decimal.RequireFromString("10.00"), &model.PricingStage{
		Name:          "Giveaway",
		ModifierKind:  model.ModifierFixed,
		ModifierValue: decimal.RequireFromString("-25.00"),
	}, rowMod("20"), nil)

	assert.True(t, final.Equal(decimal.Zero), "final: %s", final)
	assert.True(t, bd.Clamped)
}

func TestCompute_DiscountStageStaysPositive(t *testing.T) {
	final, bd := Compute(decimal.RequireFromString("50.00"), pctStage("Early Bird", "-30"), nil, nil)

	assert.True(t, final.Equal(decimal.RequireFromString("35.00")), "final: %s", final)
	assert.False(t, bd.Clamped)
}

// TestCompute_MatchesClosedForm checks the documented property: for
// percentage modifiers m1, m2, m3 the result equals
// max(0, B*(1+m1/100)*(1+m2/100)*(1+m3/100)) rounded at the final step.
func TestCompute_MatchesClosedForm(t *testing.T) {
	cases := []struct {
		base, m1, m2, m3 string
	}{
		{"100.00", "15", "20", "0"},
		{"19.99", "7.5", "-3.25", "1.1"},
		{"0", "50", "50", "50"},
		{"250.10", "-100", "10", "10"},
		{"33.33", "33.33", "33.33", "33.33"},
		{"5.00", "-200", "10", "5"},
	}
	for _, tc := range cases {
		base := decimal.RequireFromString(tc.base)
		m1 := decimal.RequireFromString(tc.m1)
		m2 := decimal.RequireFromString(tc.m2)
		m3 := decimal.RequireFromString(tc.m3)

		want := base.
			Mul(one.Add(m1.Div(hundred))).
			Mul(one.Add(m2.Div(hundred))).
			Mul(one.Add(m3.Div(hundred)))
		if want.IsNegative() {
			want = decimal.Zero
		}
		want = want.Round(2)

		got, _ := Compute(base, pctStage("s", tc.m1), rowMod(tc.m2), seatMod(tc.m3))
		require.True(t, got.Equal(want), "base=%s m1=%s m2=%s m3=%s: got %s want %s",
			tc.base, tc.m1, tc.m2, tc.m3, got, want)
	}
}
