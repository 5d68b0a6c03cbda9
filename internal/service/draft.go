package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/draft"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/pricing"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/schedule"
)

// DraftDetails edits the header of a draft. Nil fields are left alone.
type DraftDetails struct {
	CustomerID    *string `json:"customer_id"`
	VehicleID     *string `json:"vehicle_id"`
	ScheduledDate *string `json:"scheduled_date"`
	ScheduledTime *string `json:"scheduled_time"`
	Notes         *string `json:"notes"`
}

type AddTireRequest struct {
	TireID   string `json:"tire_id"`
	Quantity int    `json:"quantity"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type AddServiceRequest struct {
	ServiceID string `json:"service_id"`
	Quantity  int    `json:"quantity"`
}

type SubmitDraftRequest struct {
	AllowDoubleBooking bool `json:"allow_double_booking"`
}

// DraftView is a draft as the client renders it: live totals, the derived
// quantity of every service line and only the warnings still showing.
type DraftView struct {
	*draft.OrderDraft
	TireCount           int                 `json:"tire_count"`
	EffectiveQuantities map[string]int      `json:"effective_quantities"`
	Totals              pricing.Totals      `json:"totals"`
	TotalAmount         decimal.NullDecimal `json:"total_amount"`
	// Warning is set on the response of the call that produced it.
	Warning string `json:"warning,omitempty"`
}

// DraftService edits order drafts. Tire lines reserve against the live
// stock count; nothing is taken out of stock until the draft is submitted.
type DraftService struct {
	store      repository.DraftStore
	shops      *ShopService
	inventory  *InventoryService
	catalog    *CatalogService
	orders     *OrderService
	warningTTL time.Duration
	now        clock
	logger     *logrus.Entry
}

// NewDraftService creates a draft service. Reservation warnings stay
// visible for warningTTL.
func NewDraftService(
	store repository.DraftStore,
	shops *ShopService,
	inventory *InventoryService,
	catalog *CatalogService,
	orders *OrderService,
	warningTTL time.Duration,
) *DraftService {
	return &DraftService{
		store:      store,
		shops:      shops,
		inventory:  inventory,
		catalog:    catalog,
		orders:     orders,
		warningTTL: warningTTL,
		now:        systemClock,
		logger:     logging.New("draft-service"),
	}
}

func (s *DraftService) Create(ctx context.Context, shopID string, details *DraftDetails) (*DraftView, error) {
	if err := requireShopScope(shopID); err != nil {
		return nil, err
	}
	if _, err := s.shops.Get(ctx, shopID); err != nil {
		return nil, err
	}
	d := draft.New(uuid.NewString(), shopID, s.now())
	if details != nil {
		if err := applyDetails(d, details); err != nil {
			return nil, err
		}
	}
	if err := s.store.Save(ctx, d); err != nil {
		return nil, err
	}

	s.logger.WithFields(logging.Fields{"shop_id": shopID, "draft_id": d.ID}).Info("Draft created")
	return s.view(ctx, d, "")
}

func (s *DraftService) Get(ctx context.Context, shopID, id string) (*DraftView, error) {
	d, err := s.store.Get(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, d, "")
}

func (s *DraftService) UpdateDetails(ctx context.Context, shopID, id string, details *DraftDetails) (*DraftView, error) {
	return s.edit(ctx, shopID, id, func(d *draft.OrderDraft) (string, error) {
		d.UpdatedAt = s.now()
		return "", applyDetails(d, details)
	})
}

// AddTire reserves qty units of a tire on the draft. When less stock is left
// the reservation is clamped and the view carries the warning.
func (s *DraftService) AddTire(ctx context.Context, shopID, id string, req *AddTireRequest) (*DraftView, error) {
	if req.TireID == "" {
		return nil, apperrors.NewValidationError("tire_id", "tire id is required")
	}
	return s.edit(ctx, shopID, id, func(d *draft.OrderDraft) (string, error) {
		tire, err := s.inventory.Live(ctx, shopID, req.TireID)
		if err != nil {
			return "", lineError(err, "tire_id", "tire does not exist")
		}
		now := s.now()
		_, w, err := d.AddTire(tire, req.Quantity, now, now.Add(s.warningTTL))
		return s.warned(d, w), err
	})
}

// SetTireQuantity moves a tire line to qty, reserving or releasing the difference.
func (s *DraftService) SetTireQuantity(ctx context.Context, shopID, id, tireID string, req *SetQuantityRequest) (*DraftView, error) {
	return s.edit(ctx, shopID, id, func(d *draft.OrderDraft) (string, error) {
		tire, err := s.inventory.Live(ctx, shopID, tireID)
		if err != nil {
			return "", err
		}
		now := s.now()
		_, w, err := d.SetTireQuantity(tire, req.Quantity, now, now.Add(s.warningTTL))
		return s.warned(d, w), err
	})
}

func (s *DraftService) RemoveTire(ctx context.Context, shopID, id, tireID string) (*DraftView, error) {
	return s.edit(ctx, shopID, id, func(d *draft.OrderDraft) (string, error) {
		_, err := d.RemoveTire(tireID, s.now())
		return "", err
	})
}

func (s *DraftService) AddService(ctx context.Context, shopID, id string, req *AddServiceRequest) (*DraftView, error) {
	if req.ServiceID == "" {
		return nil, apperrors.NewValidationError("service_id", "service id is required")
	}
	return s.edit(ctx, shopID, id, func(d *draft.OrderDraft) (string, error) {
		svc, err := s.catalog.Get(ctx, shopID, req.ServiceID)
		if err != nil {
			return "", lineError(err, "service_id", "service does not exist")
		}
		if !svc.IsActive {
			return "", apperrors.NewValidationError("service_id", "service is not offered")
		}
		return "", d.AddService(svc, req.Quantity, s.now())
	})
}

func (s *DraftService) RemoveService(ctx context.Context, shopID, id, serviceID string) (*DraftView, error) {
	return s.edit(ctx, shopID, id, func(d *draft.OrderDraft) (string, error) {
		return "", d.RemoveService(serviceID, s.now())
	})
}

// Totals prices the draft with the shop's current tax rate, rounded to cents.
func (s *DraftService) Totals(ctx context.Context, shopID, id string) (pricing.Totals, error) {
	d, err := s.store.Get(ctx, shopID, id)
	if err != nil {
		return pricing.Totals{}, err
	}
	rate, err := s.shops.TaxRate(ctx, shopID)
	if err != nil {
		return pricing.Totals{}, err
	}
	return d.Totals(rate).Rounded(), nil
}

// Cancel drops the draft and every reservation it held.
func (s *DraftService) Cancel(ctx context.Context, shopID, id string) error {
	d, err := s.store.Get(ctx, shopID, id)
	if err != nil {
		return err
	}
	released := d.Cancel(s.now())
	if err := s.store.Delete(ctx, shopID, id); err != nil {
		return err
	}

	s.logger.WithFields(logging.Fields{
		"shop_id":  shopID,
		"draft_id": id,
		"released": released,
	}).Info("Draft cancelled")
	return nil
}

// Submit turns the draft into an order and removes it. When the order is
// refused, double booking included, the draft is kept as it was.
func (s *DraftService) Submit(ctx context.Context, shopID, id string, req *SubmitDraftRequest) (*models.Order, error) {
	d, err := s.store.Get(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	if d.Empty() {
		return nil, apperrors.NewValidationError("draft", "draft has no tires or services")
	}

	tires, services := d.Selections()
	order, err := s.orders.Create(ctx, shopID, &models.CreateOrderRequest{
		CustomerID:         d.CustomerID,
		VehicleID:          d.VehicleID,
		ScheduledDate:      d.ScheduledDate,
		ScheduledTime:      d.ScheduledTime,
		Notes:              d.Notes,
		Tires:              tires,
		Services:           services,
		AllowDoubleBooking: req != nil && req.AllowDoubleBooking,
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, shopID, id); err != nil {
		s.logger.WithFields(logging.Fields{
			"draft_id": id,
			"order_id": order.ID,
			"error":    err.Error(),
		}).Warn("Failed to delete submitted draft")
	}
	return order, nil
}

// edit loads a draft, applies fn and saves it. fn returns the warning of
// the change, if any.
func (s *DraftService) edit(ctx context.Context, shopID, id string, fn func(d *draft.OrderDraft) (string, error)) (*DraftView, error) {
	d, err := s.store.Get(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	warning, err := fn(d)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, d); err != nil {
		return nil, errors.Wrap(err, "save draft")
	}
	return s.view(ctx, d, warning)
}

func (s *DraftService) warned(d *draft.OrderDraft, w *draft.Warning) string {
	if w == nil {
		return ""
	}
	metrics.ReservationWarnings.Inc()
	s.logger.WithFields(logging.Fields{
		"shop_id":  d.ShopID,
		"draft_id": d.ID,
		"tire_id":  w.TireID,
		"warning":  w.Message,
	}).Info("Reservation clamped to stock")
	return w.Message
}

func (s *DraftService) view(ctx context.Context, d *draft.OrderDraft, warning string) (*DraftView, error) {
	rate, err := s.shops.TaxRate(ctx, d.ShopID)
	if err != nil {
		return nil, err
	}
	d.ActiveWarnings(s.now())

	quantities := make(map[string]int, len(d.Services))
	for _, line := range d.Services {
		quantities[line.ServiceID] = d.EffectiveQuantity(line)
	}
	return &DraftView{
		OrderDraft:          d,
		TireCount:           d.TireCount(),
		EffectiveQuantities: quantities,
		Totals:              d.Totals(rate).Rounded(),
		TotalAmount:         d.TotalAmount(rate),
		Warning:             warning,
	}, nil
}

func applyDetails(d *draft.OrderDraft, in *DraftDetails) error {
	if in.CustomerID != nil {
		d.CustomerID = *in.CustomerID
	}
	if in.VehicleID != nil {
		d.VehicleID = *in.VehicleID
	}
	if in.Notes != nil {
		d.Notes = SanitizeNotes(*in.Notes)
	}

	date, clock := d.ScheduledDate, d.ScheduledTime
	if in.ScheduledDate != nil {
		date = *in.ScheduledDate
	}
	if in.ScheduledTime != nil {
		clock = *in.ScheduledTime
	}
	if date == "" {
		d.ScheduledDate, d.ScheduledTime = "", clock
		return nil
	}
	slot, err := schedule.NewSlot(date, clock)
	if err != nil {
		return err
	}
	d.ScheduledDate, d.ScheduledTime = slot.Date, slot.Time
	return nil
}
