package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestCalculate_WorkedExample(t *testing.T) {
	tires := []TireItem{{UnitPrice: d("100"), Quantity: 2}}
	services := []ServiceItem{
		{UnitPrice: d("50"), Quantity: 1, IsTaxable: true},
		{UnitPrice: d("20"), Quantity: 1, IsTaxable: false},
	}

	got := Calculate(tires, services, d("7"))

	assertDecimal(t, "200", got.TiresSubtotal, "tires_subtotal")
	assertDecimal(t, "70", got.ServicesSubtotal, "services_subtotal")
	assertDecimal(t, "250", got.TaxableAmount, "taxable_amount")
	assertDecimal(t, "17.50", got.Tax, "tax")
	assertDecimal(t, "270", got.Subtotal, "subtotal")
	assertDecimal(t, "287.50", got.Total, "total")
	assert.Equal(t, "287.50", got.Rounded().Total.StringFixed(2))
}

func TestCalculate_EmptyIsZero(t *testing.T) {
	got := Calculate(nil, nil, d("8.25"))

	for name, v := range map[string]decimal.Decimal{
		"tires_subtotal":    got.TiresSubtotal,
		"services_subtotal": got.ServicesSubtotal,
		"subtotal":          got.Subtotal,
		"taxable_amount":    got.TaxableAmount,
		"tax":               got.Tax,
		"total":             got.Total,
	} {
		assert.Truef(t, v.IsZero(), "%s should be zero, got %s", name, v)
	}
}

func TestCalculate_ZeroRateTotalEqualsSubtotal(t *testing.T) {
	cases := []struct {
		name     string
		tires    []TireItem
		services []ServiceItem
	}{
		{"tires only", []TireItem{{d("89.99"), 4}}, nil},
		{"services only", nil, []ServiceItem{{d("15.5"), 3, true}, {d("9.99"), 1, false}}},
		{"mixed", []TireItem{{d("120.10"), 2}, {d("75"), 1}}, []ServiceItem{{d("0.01"), 7, false}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Calculate(tc.tires, tc.services, decimal.Zero)
			assert.True(t, got.Total.Equal(got.Subtotal))
			assert.True(t, got.Tax.IsZero())
		})
	}
}

func TestCalculate_NonTaxableServiceDoesNotChangeTax(t *testing.T) {
	tires := []TireItem{{d("100"), 4}}
	base := Calculate(tires, []ServiceItem{{d("20"), 1, false}}, d("6.5"))

	for _, price := range []string{"0", "35", "1000", "99999.99"} {
		got := Calculate(tires, []ServiceItem{{d(price), 1, false}}, d("6.5"))
		assert.Truef(t, base.Tax.Equal(got.Tax), "tax changed with non-taxable price %s", price)
	}
}

func TestCalculate_TaxFormula(t *testing.T) {
	tires := []TireItem{{d("133.33"), 3}}
	services := []ServiceItem{{d("19.99"), 4, true}, {d("12"), 2, false}}
	rate := d("8.875")

	got := Calculate(tires, services, rate)

	taxableServices := d("19.99").Mul(decimal.NewFromInt(4))
	want := d("133.33").Mul(decimal.NewFromInt(3)).Add(taxableServices).Mul(rate.Div(decimal.NewFromInt(100)))
	assert.True(t, want.Equal(got.Tax), "want %s got %s", want, got.Tax)
}

func TestCalculate_Idempotent(t *testing.T) {
	tires := []TireItem{{d("101.01"), 3}}
	services := []ServiceItem{{d("7.77"), 2, true}}

	first := Calculate(tires, services, d("7.25"))
	second := Calculate(tires, services, d("7.25"))

	assert.Equal(t, first, second)
}

func TestCalculate_NoIntermediateRounding(t *testing.T) {
	// 3 tires at 0.333 = 0.999; rounding each line would give 0.99 or 1.00 per unit
	tires := []TireItem{{d("0.333"), 3}}

	got := Calculate(tires, nil, d("10"))

	assertDecimal(t, "0.999", got.TiresSubtotal, "tires_subtotal")
	assertDecimal(t, "0.0999", got.Tax, "tax")
	assertDecimal(t, "1.10", got.Rounded().Total, "rounded total")
}

func TestEffectiveQuantity(t *testing.T) {
	tests := []struct {
		priceType PriceType
		tireCount int
		entered   int
		want      int
	}{
		{PriceTypePerTire, 4, 1, 4},
		{PriceTypePerTire, 0, 3, 0},
		{PriceTypeFlat, 4, 3, 1},
		{PriceTypePerUnit, 4, 3, 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.priceType), func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveQuantity(tt.priceType, tt.tireCount, tt.entered))
		})
	}
}

func TestCalculateOrder_PerTireScalesWithTireCount(t *testing.T) {
	mountAndBalance := []SelectedService{{UnitPrice: d("5"), PriceType: PriceTypePerTire, EnteredQuantity: 1, IsTaxable: true}}

	splits := [][]TireItem{
		{{d("100"), 4}},
		{{d("100"), 2}, {d("80"), 2}},
		{{d("100"), 1}, {d("80"), 1}, {d("90"), 2}},
	}

	for _, tires := range splits {
		got := CalculateOrder(tires, mountAndBalance, decimal.Zero)
		assertDecimal(t, "20", got.ServicesSubtotal, "services_subtotal")
	}
}

func TestCalculateOrder_RecomputesWhenTiresChange(t *testing.T) {
	selected := []SelectedService{{UnitPrice: d("12.50"), PriceType: PriceTypePerTire, IsTaxable: false}}

	two := CalculateOrder([]TireItem{{d("100"), 2}}, selected, decimal.Zero)
	three := CalculateOrder([]TireItem{{d("100"), 2}, {d("90"), 1}}, selected, decimal.Zero)

	assertDecimal(t, "25", two.ServicesSubtotal, "two tires")
	assertDecimal(t, "37.50", three.ServicesSubtotal, "three tires")
}

func TestParsePriceType(t *testing.T) {
	p, err := ParsePriceType("per_tire")
	require.NoError(t, err)
	assert.Equal(t, PriceTypePerTire, p)

	_, err = ParsePriceType("hourly")
	assert.Error(t, err)
}

func BenchmarkCalculateOrder(b *testing.B) {
	tires := []TireItem{{d("100"), 2}, {d("80"), 2}}
	services := []SelectedService{
		{UnitPrice: d("5"), PriceType: PriceTypePerTire, IsTaxable: true},
		{UnitPrice: d("49.99"), PriceType: PriceTypeFlat, EnteredQuantity: 1, IsTaxable: true},
	}
	rate := d("7")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CalculateOrder(tires, services, rate)
	}
}
