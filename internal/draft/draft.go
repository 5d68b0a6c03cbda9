// Package draft models an order that is still being put together: its tire
// lines hold quantities reserved against live stock and its service lines
// keep the quantity the user entered, from which the billed quantity is
// derived.
package draft

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/pricing"
)

type TireLine struct {
	TireID    string          `json:"tire_id"`
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	Size      string          `json:"size"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

type ServiceLine struct {
	ServiceID       string            `json:"service_id"`
	Name            string            `json:"name"`
	UnitPrice       decimal.Decimal   `json:"unit_price"`
	PriceType       pricing.PriceType `json:"price_type"`
	IsTaxable       bool              `json:"is_taxable"`
	EnteredQuantity int               `json:"entered_quantity"`
}

// Warning is a reservation notice that stops being shown after ExpiresAt.
type Warning struct {
	TireID    string    `json:"tire_id"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (w Warning) Active(now time.Time) bool {
	return now.Before(w.ExpiresAt)
}

// OrderDraft is a serializable work order in progress.
type OrderDraft struct {
	ID            string        `json:"id"`
	ShopID        string        `json:"shop_id"`
	CustomerID    string        `json:"customer_id,omitempty"`
	VehicleID     string        `json:"vehicle_id,omitempty"`
	ScheduledDate string        `json:"scheduled_date,omitempty"`
	ScheduledTime string        `json:"scheduled_time,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	Tires         []TireLine    `json:"tires"`
	Services      []ServiceLine `json:"services"`
	Warnings      []Warning     `json:"warnings"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func New(id, shopID string, now time.Time) *OrderDraft {
	return &OrderDraft{
		ID:        id,
		ShopID:    shopID,
		Tires:     []TireLine{},
		Services:  []ServiceLine{},
		Warnings:  []Warning{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reserved is the quantity of tireID this draft currently holds.
func (d *OrderDraft) Reserved(tireID string) int {
	if i := d.tireIndex(tireID); i >= 0 {
		return d.Tires[i].Quantity
	}
	return 0
}

// AddTire reserves up to qty more units of tire, merging into an existing
// line for the same tire. tire.Quantity is the stock available to this
// draft before its own reservation. It returns the quantity actually added
// and the clamp warning, if any; the warning is kept until warnUntil.
func (d *OrderDraft) AddTire(tire *models.Tire, qty int, now, warnUntil time.Time) (int, *Warning, error) {
	if qty < 1 {
		return 0, nil, apperrors.NewValidationError("quantity", "must be at least 1")
	}

	i := d.tireIndex(tire.ID)
	reserved := 0
	if i >= 0 {
		reserved = d.Tires[i].Quantity
	}

	added, msg := Reserve(qty, tire.Quantity, reserved)
	if added > 0 {
		if i >= 0 {
			d.Tires[i].Quantity += added
			d.Tires[i].UnitPrice = tire.Price
		} else {
			d.Tires = append(d.Tires, TireLine{
				TireID:    tire.ID,
				Brand:     tire.Brand,
				Model:     tire.Model,
				Size:      tire.Size,
				UnitPrice: tire.Price,
				Quantity:  added,
			})
		}
	}

	w := d.setWarning(tire.ID, msg, warnUntil)
	d.UpdatedAt = now
	return added, w, nil
}

// SetTireQuantity moves an existing line to qty, reserving the difference
// when it grows and releasing it when it shrinks. It returns the resulting
// line quantity.
func (d *OrderDraft) SetTireQuantity(tire *models.Tire, qty int, now, warnUntil time.Time) (int, *Warning, error) {
	if qty < 1 {
		return 0, nil, apperrors.NewValidationError("quantity", "must be at least 1")
	}
	i := d.tireIndex(tire.ID)
	if i < 0 {
		return 0, nil, errors.Wrapf(apperrors.ErrNotFound, "tire %s is not on draft", tire.ID)
	}

	line := &d.Tires[i]
	var msg string
	if qty > line.Quantity {
		var added int
		added, msg = Reserve(qty-line.Quantity, tire.Quantity, line.Quantity)
		line.Quantity += added
	} else {
		line.Quantity = Release(line.Quantity, line.Quantity-qty)
	}

	w := d.setWarning(tire.ID, msg, warnUntil)
	d.UpdatedAt = now
	return line.Quantity, w, nil
}

// RemoveTire releases the whole line and returns the quantity given back.
func (d *OrderDraft) RemoveTire(tireID string, now time.Time) (int, error) {
	i := d.tireIndex(tireID)
	if i < 0 {
		return 0, errors.Wrapf(apperrors.ErrNotFound, "tire %s is not on draft", tireID)
	}
	released := d.Tires[i].Quantity
	d.Tires = append(d.Tires[:i], d.Tires[i+1:]...)
	d.clearWarning(tireID)
	d.UpdatedAt = now
	return released, nil
}

// AddService puts svc on the draft, replacing the entered quantity when it
// is already there. enteredQty only matters for per_unit services.
func (d *OrderDraft) AddService(svc *models.Service, enteredQty int, now time.Time) error {
	if enteredQty < 1 {
		if svc.PriceType == pricing.PriceTypePerUnit {
			return apperrors.NewValidationError("quantity", "must be at least 1")
		}
		enteredQty = 1
	}

	line := ServiceLine{
		ServiceID:       svc.ID,
		Name:            svc.Name,
		UnitPrice:       svc.Price,
		PriceType:       svc.PriceType,
		IsTaxable:       svc.IsTaxable,
		EnteredQuantity: enteredQty,
	}
	if i := d.serviceIndex(svc.ID); i >= 0 {
		d.Services[i] = line
	} else {
		d.Services = append(d.Services, line)
	}
	d.UpdatedAt = now
	return nil
}

func (d *OrderDraft) RemoveService(serviceID string, now time.Time) error {
	i := d.serviceIndex(serviceID)
	if i < 0 {
		return errors.Wrapf(apperrors.ErrNotFound, "service %s is not on draft", serviceID)
	}
	d.Services = append(d.Services[:i], d.Services[i+1:]...)
	d.UpdatedAt = now
	return nil
}

// Cancel releases every reservation and empties the draft. It returns what
// was held per tire.
func (d *OrderDraft) Cancel(now time.Time) map[string]int {
	released := make(map[string]int, len(d.Tires))
	for _, t := range d.Tires {
		released[t.TireID] = t.Quantity
	}
	d.Tires = []TireLine{}
	d.Services = []ServiceLine{}
	d.Warnings = []Warning{}
	d.UpdatedAt = now
	return released
}

func (d *OrderDraft) Empty() bool {
	return len(d.Tires) == 0 && len(d.Services) == 0
}

func (d *OrderDraft) TireCount() int {
	return pricing.TireCount(d.tireItems())
}

// EffectiveQuantity is the billed quantity of a service line on this draft.
func (d *OrderDraft) EffectiveQuantity(line ServiceLine) int {
	return pricing.EffectiveQuantity(line.PriceType, d.TireCount(), line.EnteredQuantity)
}

func (d *OrderDraft) Totals(taxRatePercent decimal.Decimal) pricing.Totals {
	return pricing.CalculateOrder(d.tireItems(), d.selectedServices(), taxRatePercent)
}

// TotalAmount is the rounded order total, or invalid while the draft has no lines.
func (d *OrderDraft) TotalAmount(taxRatePercent decimal.Decimal) decimal.NullDecimal {
	if d.Empty() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d.Totals(taxRatePercent).Total.Round(2))
}

// ActiveWarnings drops expired warnings and returns the rest.
func (d *OrderDraft) ActiveWarnings(now time.Time) []Warning {
	active := d.Warnings[:0]
	for _, w := range d.Warnings {
		if w.Active(now) {
			active = append(active, w)
		}
	}
	d.Warnings = active
	return append([]Warning(nil), active...)
}

// Selections turns the draft into order request lines.
func (d *OrderDraft) Selections() ([]models.TireSelection, []models.ServiceSelection) {
	tires := make([]models.TireSelection, 0, len(d.Tires))
	for _, t := range d.Tires {
		tires = append(tires, models.TireSelection{TireID: t.TireID, Quantity: t.Quantity})
	}
	services := make([]models.ServiceSelection, 0, len(d.Services))
	for _, s := range d.Services {
		services = append(services, models.ServiceSelection{ServiceID: s.ServiceID, Quantity: s.EnteredQuantity})
	}
	return tires, services
}

func (d *OrderDraft) tireItems() []pricing.TireItem {
	items := make([]pricing.TireItem, 0, len(d.Tires))
	for _, t := range d.Tires {
		items = append(items, pricing.TireItem{UnitPrice: t.UnitPrice, Quantity: t.Quantity})
	}
	return items
}

func (d *OrderDraft) selectedServices() []pricing.SelectedService {
	selected := make([]pricing.SelectedService, 0, len(d.Services))
	for _, s := range d.Services {
		selected = append(selected, pricing.SelectedService{
			UnitPrice:       s.UnitPrice,
			PriceType:       s.PriceType,
			EnteredQuantity: s.EnteredQuantity,
			IsTaxable:       s.IsTaxable,
		})
	}
	return selected
}

func (d *OrderDraft) tireIndex(tireID string) int {
	for i := range d.Tires {
		if d.Tires[i].TireID == tireID {
			return i
		}
	}
	return -1
}

func (d *OrderDraft) serviceIndex(serviceID string) int {
	for i := range d.Services {
		if d.Services[i].ServiceID == serviceID {
			return i
		}
	}
	return -1
}

// setWarning replaces the warning for tireID. An empty msg just clears it.
func (d *OrderDraft) setWarning(tireID, msg string, expiresAt time.Time) *Warning {
	d.clearWarning(tireID)
	if msg == "" {
		return nil
	}
	w := Warning{TireID: tireID, Message: msg, ExpiresAt: expiresAt}
	d.Warnings = append(d.Warnings, w)
	return &w
}

func (d *OrderDraft) clearWarning(tireID string) {
	kept := d.Warnings[:0]
	for _, w := range d.Warnings {
		if w.TireID != tireID {
			kept = append(kept, w)
		}
	}
	d.Warnings = kept
}
