package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/repository"
)

// InventoryService manages the tire stock of a shop.
type InventoryService struct {
	repo   repository.InventoryRepository
	cache  repository.Cache[models.Tire]
	events notifier
	logger *logrus.Entry
}

// NewInventoryService creates an inventory service. cache may be nil.
func NewInventoryService(repo repository.InventoryRepository, cache repository.Cache[models.Tire], publisher events.Publisher) *InventoryService {
	return &InventoryService{
		repo:   repo,
		cache:  cache,
		events: newNotifier(publisher, "inventory-service"),
		logger: logging.New("inventory-service"),
	}
}

func (s *InventoryService) Create(ctx context.Context, shopID string, in *models.TireInput) (*models.Tire, error) {
	if err := requireShopScope(shopID); err != nil {
		return nil, err
	}
	if err := ValidateTire(in); err != nil {
		return nil, err
	}

	t := &models.Tire{ShopID: shopID}
	applyTire(t, in)
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.events.notify(ctx, events.TableInventory, events.OpInsert, shopID, t.ID)
	return t, nil
}

// Get reads a tire through the cache. The quantity may trail the database
// until the change feed evicts the record.
func (s *InventoryService) Get(ctx context.Context, shopID, id string) (*models.Tire, error) {
	return readThrough(ctx, s.cache, s.logger, events.TableInventory, shopID, id, func() (*models.Tire, error) {
		return s.repo.Get(ctx, shopID, id)
	})
}

// Live reads the current stock count bypassing the cache. Reservations are
// taken against it.
func (s *InventoryService) Live(ctx context.Context, shopID, id string) (*models.Tire, error) {
	return s.repo.Get(ctx, shopID, id)
}

func (s *InventoryService) Update(ctx context.Context, shopID, id string, in *models.TireInput) (*models.Tire, error) {
	if err := ValidateTire(in); err != nil {
		return nil, err
	}
	t, err := s.repo.Get(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	applyTire(t, in)
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.changed(ctx, events.OpUpdate, shopID, id)
	return t, nil
}

func (s *InventoryService) Delete(ctx context.Context, shopID, id string) error {
	if err := s.repo.Delete(ctx, shopID, id); err != nil {
		return err
	}
	s.changed(ctx, events.OpDelete, shopID, id)
	return nil
}

func (s *InventoryService) List(ctx context.Context, shopID string, filter *models.TireFilter) ([]*models.Tire, int, error) {
	filter.Search = CleanText(filter.Search)
	if filter.LowStock != nil && *filter.LowStock < 0 {
		return nil, 0, apperrors.NewValidationError("low_stock", "threshold cannot be negative")
	}
	filter.Page.Normalize()
	return s.repo.List(ctx, shopID, filter)
}

// Adjust adds delta to the stock count of a tire. A result below zero is
// rejected and nothing changes.
func (s *InventoryService) Adjust(ctx context.Context, shopID, id string, delta int) (*models.Tire, error) {
	if delta == 0 {
		return nil, apperrors.NewValidationError("delta", "delta cannot be zero")
	}
	t, err := s.repo.AdjustQuantity(ctx, shopID, id, delta)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, events.OpUpdate, shopID, id)

	s.logger.WithFields(logging.Fields{
		"shop_id":  shopID,
		"tire_id":  id,
		"delta":    delta,
		"quantity": t.Quantity,
	}).Info("Stock adjusted")
	return t, nil
}

// changed evicts locally before publishing so this instance never serves
// its own stale copy while the event is in flight.
func (s *InventoryService) changed(ctx context.Context, op events.Op, shopID, id string) {
	evict(ctx, s.cache, s.logger, shopID, id)
	s.events.notify(ctx, events.TableInventory, op, shopID, id)
}

func applyTire(t *models.Tire, in *models.TireInput) {
	t.Brand = in.Brand
	t.Model = in.Model
	t.Size = in.Size
	t.Quantity = in.Quantity
	t.Price = in.Price
	t.Description = in.Description
}
