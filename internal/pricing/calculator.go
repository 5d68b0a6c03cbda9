// Package pricing computes work-order totals from tire and service line items.
//
// Amounts are accumulated at full precision; rounding to cents happens only
// when a caller asks for Rounded totals.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PriceType is the pricing mode of a shop service.
type PriceType string

const (
	PriceTypeFlat    PriceType = "flat"
	PriceTypePerTire PriceType = "per_tire"
	PriceTypePerUnit PriceType = "per_unit"
)

func (p PriceType) Valid() bool {
	switch p {
	case PriceTypeFlat, PriceTypePerTire, PriceTypePerUnit:
		return true
	}
	return false
}

func ParsePriceType(s string) (PriceType, error) {
	p := PriceType(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown price type %q", s)
	}
	return p, nil
}

// TireItem is one tire line: every tire is taxable.
type TireItem struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// ServiceItem is one service line with its effective quantity already applied.
type ServiceItem struct {
	UnitPrice decimal.Decimal
	Quantity  int
	IsTaxable bool
}

// SelectedService is a service as chosen on an order, before its quantity is derived.
type SelectedService struct {
	UnitPrice       decimal.Decimal
	PriceType       PriceType
	EnteredQuantity int
	IsTaxable       bool
}

type Totals struct {
	TiresSubtotal    decimal.Decimal `json:"tires_subtotal"`
	ServicesSubtotal decimal.Decimal `json:"services_subtotal"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	TaxableAmount    decimal.Decimal `json:"taxable_amount"`
	Tax              decimal.Decimal `json:"tax"`
	Total            decimal.Decimal `json:"total"`
}

// Rounded returns a copy with every amount rounded to 2 fractional digits.
func (t Totals) Rounded() Totals {
	return Totals{
		TiresSubtotal:    t.TiresSubtotal.Round(2),
		ServicesSubtotal: t.ServicesSubtotal.Round(2),
		Subtotal:         t.Subtotal.Round(2),
		TaxableAmount:    t.TaxableAmount.Round(2),
		Tax:              t.Tax.Round(2),
		Total:            t.Total.Round(2),
	}
}

// EffectiveQuantity derives the billed quantity of a service.
// per_tire follows the order's tire count, flat is charged once and
// per_unit uses what was entered.
func EffectiveQuantity(priceType PriceType, tireCount, enteredQuantity int) int {
	switch priceType {
	case PriceTypePerTire:
		return tireCount
	case PriceTypeFlat:
		return 1
	default:
		return enteredQuantity
	}
}

// TireCount sums quantities over all tire lines.
func TireCount(tires []TireItem) int {
	n := 0
	for _, t := range tires {
		n += t.Quantity
	}
	return n
}

// BuildServiceItems applies EffectiveQuantity to every selected service.
// It must be re-run whenever the tire lines change.
func BuildServiceItems(selected []SelectedService, tireCount int) []ServiceItem {
	items := make([]ServiceItem, 0, len(selected))
	for _, s := range selected {
		items = append(items, ServiceItem{
			UnitPrice: s.UnitPrice,
			Quantity:  EffectiveQuantity(s.PriceType, tireCount, s.EnteredQuantity),
			IsTaxable: s.IsTaxable,
		})
	}
	return items
}

// Calculate assumes validated input (non-negative prices, positive quantities).
func Calculate(tires []TireItem, services []ServiceItem, taxRatePercent decimal.Decimal) Totals {
	tiresSubtotal := decimal.Zero
	for _, t := range tires {
		tiresSubtotal = tiresSubtotal.Add(lineTotal(t.UnitPrice, t.Quantity))
	}

	servicesSubtotal := decimal.Zero
	taxableServices := decimal.Zero
	for _, s := range services {
		amount := lineTotal(s.UnitPrice, s.Quantity)
		servicesSubtotal = servicesSubtotal.Add(amount)
		if s.IsTaxable {
			taxableServices = taxableServices.Add(amount)
		}
	}

	taxable := tiresSubtotal.Add(taxableServices)
	tax := taxable.Mul(taxRatePercent.Div(hundred))
	subtotal := tiresSubtotal.Add(servicesSubtotal)

	return Totals{
		TiresSubtotal:    tiresSubtotal,
		ServicesSubtotal: servicesSubtotal,
		Subtotal:         subtotal,
		TaxableAmount:    taxable,
		Tax:              tax,
		Total:            subtotal.Add(tax),
	}
}

// CalculateOrder derives service quantities from the tire lines and calculates totals.
func CalculateOrder(tires []TireItem, selected []SelectedService, taxRatePercent decimal.Decimal) Totals {
	return Calculate(tires, BuildServiceItems(selected, TireCount(tires)), taxRatePercent)
}

func lineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
