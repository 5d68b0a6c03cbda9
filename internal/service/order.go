package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/pricing"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/schedule"
)

// OrderService prices, books and tracks work orders.
type OrderService struct {
	repo      repository.OrderRepository
	customers repository.CustomerRepository
	vehicles  repository.VehicleRepository
	shops     *ShopService
	inventory *InventoryService
	catalog   *CatalogService
	events    notifier
	logger    *logrus.Entry
}

func NewOrderService(
	repo repository.OrderRepository,
	customers repository.CustomerRepository,
	vehicles repository.VehicleRepository,
	shops *ShopService,
	inventory *InventoryService,
	catalog *CatalogService,
	publisher events.Publisher,
) *OrderService {
	return &OrderService{
		repo:      repo,
		customers: customers,
		vehicles:  vehicles,
		shops:     shops,
		inventory: inventory,
		catalog:   catalog,
		events:    newNotifier(publisher, "order-service"),
		logger:    logging.New("order-service"),
	}
}

// Create books a work order. When the slot is already taken and the caller
// did not allow double booking, it returns a *apperrors.DoubleBookingError
// listing the orders in the way and nothing is written.
//
// Tire lines are taken out of stock without checking availability again.
func (s *OrderService) Create(ctx context.Context, shopID string, req *models.CreateOrderRequest) (*models.Order, error) {
	s.logger.WithFields(logging.Fields{
		"shop_id":     shopID,
		"customer_id": req.CustomerID,
		"tires":       len(req.Tires),
		"services":    len(req.Services),
	}).Info("Creating order")

	if err := requireShopScope(shopID); err != nil {
		return nil, err
	}
	slot, err := schedule.NewSlot(req.ScheduledDate, req.ScheduledTime)
	if err != nil {
		return nil, err
	}
	if err := ValidateSelections(req.Tires, req.Services); err != nil {
		return nil, err
	}
	if err := s.checkParties(ctx, shopID, req.CustomerID, req.VehicleID); err != nil {
		return nil, err
	}
	if err := s.gate(ctx, shopID, slot, "", req.AllowDoubleBooking); err != nil {
		return nil, err
	}

	rate, err := s.shops.TaxRate(ctx, shopID)
	if err != nil {
		return nil, err
	}
	items, totals, err := s.price(ctx, shopID, req.Tires, req.Services, rate)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ShopID:        shopID,
		CustomerID:    req.CustomerID,
		VehicleID:     req.VehicleID,
		ScheduledDate: slot.Date,
		ScheduledTime: slot.Time,
		Status:        models.OrderStatusPending,
		Notes:         SanitizeNotes(req.Notes),
		Items:         items,
	}
	if len(items) > 0 {
		order.TotalAmount = decimal.NewNullDecimal(totals.Total.Round(2))
	}

	if err := s.repo.Create(ctx, order); err != nil {
		s.logger.WithFields(logging.Fields{
			"shop_id":     shopID,
			"customer_id": req.CustomerID,
			"error":       err.Error(),
		}).Error("Failed to create order")
		return nil, err
	}
	metrics.OrdersCreated.Inc()

	s.events.notify(ctx, events.TableOrders, events.OpInsert, shopID, order.ID)
	for _, item := range items {
		if item.ItemType == models.ItemTypeTire {
			s.inventory.changed(ctx, events.OpUpdate, shopID, item.RefID)
		}
	}
	return order, nil
}

// Quote prices a set of selections with the shop's tax rate without
// persisting anything. Amounts are rounded to cents.
func (s *OrderService) Quote(ctx context.Context, shopID string, req *models.QuoteRequest) (*models.Quote, error) {
	if err := ValidateSelections(req.Tires, req.Services); err != nil {
		return nil, err
	}
	rate, err := s.shops.TaxRate(ctx, shopID)
	if err != nil {
		return nil, err
	}
	items, totals, err := s.price(ctx, shopID, req.Tires, req.Services, rate)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.OrderItem{}
	}
	return &models.Quote{Items: items, Totals: totals.Rounded()}, nil
}

// Conflicts lists the orders booked at exactly the requested slot. It only
// reports; it never blocks.
func (s *OrderService) Conflicts(ctx context.Context, shopID string, req *models.ConflictCheckRequest) ([]*models.Order, error) {
	slot, err := schedule.NewSlot(req.ScheduledDate, req.ScheduledTime)
	if err != nil {
		return nil, err
	}
	conflicts, err := s.conflicts(ctx, shopID, slot, req.ExcludeOrderID)
	if err != nil {
		return nil, err
	}
	if conflicts == nil {
		conflicts = []*models.Order{}
	}
	return conflicts, nil
}

func (s *OrderService) Get(ctx context.Context, shopID, id string) (*models.Order, error) {
	return s.repo.Get(ctx, shopID, id)
}

func (s *OrderService) List(ctx context.Context, shopID string, filter *models.OrderFilter) ([]*models.Order, int, error) {
	if err := ValidateOrderFilter(filter); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, shopID, filter)
}

// UpdateStatus moves an order to any valid status.
func (s *OrderService) UpdateStatus(ctx context.Context, shopID, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status", "status must be pending, in_progress, completed or cancelled")
	}
	order, err := s.repo.UpdateStatus(ctx, shopID, id, status)
	if err != nil {
		return nil, err
	}
	s.events.notify(ctx, events.TableOrders, events.OpUpdate, shopID, id)

	s.logger.WithFields(logging.Fields{
		"shop_id":  shopID,
		"order_id": id,
		"status":   status,
	}).Info("Order status updated")
	return order, nil
}

// Reschedule moves an order to a new slot through the same double-booking
// gate as Create. The order never conflicts with itself.
func (s *OrderService) Reschedule(ctx context.Context, shopID, id string, req *models.RescheduleRequest) (*models.Order, error) {
	slot, err := schedule.NewSlot(req.ScheduledDate, req.ScheduledTime)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, shopID, id); err != nil {
		return nil, err
	}
	if err := s.gate(ctx, shopID, slot, id, req.AllowDoubleBooking); err != nil {
		return nil, err
	}

	order, err := s.repo.Reschedule(ctx, shopID, id, slot.Date, slot.Time)
	if err != nil {
		return nil, err
	}
	s.events.notify(ctx, events.TableOrders, events.OpUpdate, shopID, id)
	return order, nil
}

// Delete removes an order and its items. Stock taken by the order is not
// given back.
func (s *OrderService) Delete(ctx context.Context, shopID, id string) error {
	if err := s.repo.Delete(ctx, shopID, id); err != nil {
		return err
	}
	s.events.notify(ctx, events.TableOrders, events.OpDelete, shopID, id)
	return nil
}

func (s *OrderService) conflicts(ctx context.Context, shopID string, slot schedule.Slot, excludeID string) ([]*models.Order, error) {
	if slot.Time == "" {
		return nil, nil
	}
	sameDay, err := s.repo.ListOnDate(ctx, shopID, slot.Date)
	if err != nil {
		return nil, errors.Wrap(err, "load orders on date")
	}
	return schedule.FindConflicts(slot, schedule.Except(sameDay, excludeID)), nil
}

// gate blocks a booking onto an occupied slot unless allow is set.
func (s *OrderService) gate(ctx context.Context, shopID string, slot schedule.Slot, excludeID string, allow bool) error {
	conflicts, err := s.conflicts(ctx, shopID, slot, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}

	fields := logging.Fields{
		"shop_id":        shopID,
		"scheduled_date": slot.Date,
		"scheduled_time": slot.Time,
		"conflicts":      len(conflicts),
	}
	if allow {
		metrics.DoubleBookings.WithLabelValues("allowed").Inc()
		s.logger.WithFields(fields).Info("Double booking allowed")
		return nil
	}
	metrics.DoubleBookings.WithLabelValues("blocked").Inc()
	s.logger.WithFields(fields).Info("Double booking blocked")
	return &apperrors.DoubleBookingError{Date: slot.Date, Time: slot.Time, Conflicts: conflicts}
}

// checkParties makes sure the customer exists and the vehicle, when given,
// belongs to that customer.
func (s *OrderService) checkParties(ctx context.Context, shopID, customerID, vehicleID string) error {
	if customerID == "" {
		return apperrors.NewValidationError("customer_id", "customer is required")
	}
	if _, err := s.customers.Get(ctx, shopID, customerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewValidationError("customer_id", "customer does not exist")
		}
		return err
	}
	if vehicleID == "" {
		return nil
	}
	v, err := s.vehicles.Get(ctx, shopID, vehicleID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewValidationError("vehicle_id", "vehicle does not exist")
		}
		return err
	}
	if v.CustomerID != customerID {
		return apperrors.NewValidationError("vehicle_id", "vehicle belongs to another customer")
	}
	return nil
}

// price reads current tire prices and service metadata and builds the order
// lines. Repeated tires are merged. A per_tire service on an order without
// tires bills nothing and gets no line.
func (s *OrderService) price(ctx context.Context, shopID string, tires []models.TireSelection, services []models.ServiceSelection, rate decimal.Decimal) ([]models.OrderItem, pricing.Totals, error) {
	var items []models.OrderItem
	var tireItems []pricing.TireItem

	for _, sel := range mergeTires(tires) {
		t, err := s.inventory.Live(ctx, shopID, sel.TireID)
		if err != nil {
			return nil, pricing.Totals{}, lineError(err, "tires", "tire "+sel.TireID+" does not exist")
		}
		tireItems = append(tireItems, pricing.TireItem{UnitPrice: t.Price, Quantity: sel.Quantity})
		items = append(items, newItem(models.ItemTypeTire, t.ID, t.Label(), t.Price, sel.Quantity, true))
	}

	tireCount := pricing.TireCount(tireItems)
	var serviceItems []pricing.ServiceItem
	for _, sel := range services {
		svc, err := s.catalog.Get(ctx, shopID, sel.ServiceID)
		if err != nil {
			return nil, pricing.Totals{}, lineError(err, "services", "service "+sel.ServiceID+" does not exist")
		}
		if !svc.IsActive {
			return nil, pricing.Totals{}, apperrors.NewValidationError("services", "service "+svc.Name+" is not offered")
		}
		if svc.PriceType == pricing.PriceTypePerUnit && sel.Quantity < 1 {
			return nil, pricing.Totals{}, apperrors.NewValidationError("services", "quantity is required for "+svc.Name)
		}

		qty := pricing.EffectiveQuantity(svc.PriceType, tireCount, sel.Quantity)
		if qty == 0 {
			continue
		}
		serviceItems = append(serviceItems, pricing.ServiceItem{UnitPrice: svc.Price, Quantity: qty, IsTaxable: svc.IsTaxable})
		items = append(items, newItem(models.ItemTypeService, svc.ID, svc.Name, svc.Price, qty, svc.IsTaxable))
	}

	return items, pricing.Calculate(tireItems, serviceItems, rate), nil
}

func newItem(kind models.ItemType, refID, description string, unitPrice decimal.Decimal, qty int, taxable bool) models.OrderItem {
	return models.OrderItem{
		ItemType:    kind,
		RefID:       refID,
		Description: description,
		UnitPrice:   unitPrice,
		Quantity:    qty,
		IsTaxable:   taxable,
		LineTotal:   unitPrice.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func mergeTires(tires []models.TireSelection) []models.TireSelection {
	merged := make([]models.TireSelection, 0, len(tires))
	index := make(map[string]int, len(tires))
	for _, t := range tires {
		if i, ok := index[t.TireID]; ok {
			merged[i].Quantity += t.Quantity
			continue
		}
		index[t.TireID] = len(merged)
		merged = append(merged, t)
	}
	return merged
}

// lineError turns a missing line reference into a validation error.
func lineError(err error, field, msg string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewValidationError(field, msg)
	}
	return err
}
