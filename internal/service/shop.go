package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/repository"
)

// ShopService reads and edits the settings of a shop. The tax rate it
// returns is what every order of the shop is priced with.
type ShopService struct {
	repo   repository.ShopRepository
	cache  repository.Cache[models.Shop]
	events notifier
	logger *logrus.Entry
}

// NewShopService creates a shop service. cache may be nil.
func NewShopService(repo repository.ShopRepository, cache repository.Cache[models.Shop], publisher events.Publisher) *ShopService {
	return &ShopService{
		repo:   repo,
		cache:  cache,
		events: newNotifier(publisher, "shop-service"),
		logger: logging.New("shop-service"),
	}
}

func (s *ShopService) Get(ctx context.Context, shopID string) (*models.Shop, error) {
	return readThrough(ctx, s.cache, s.logger, events.TableShops, shopID, shopID, func() (*models.Shop, error) {
		return s.repo.Get(ctx, shopID)
	})
}

// TaxRate is the shop's tax rate in percent.
func (s *ShopService) TaxRate(ctx context.Context, shopID string) (decimal.Decimal, error) {
	shop, err := s.Get(ctx, shopID)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "load tax rate")
	}
	return shop.TaxRate, nil
}

// Create registers a new shop. An empty ID gets a fresh one.
func (s *ShopService) Create(ctx context.Context, shop *models.Shop) error {
	if shop.ID == "" {
		shop.ID = uuid.NewString()
	}
	shop.Currency = strings.ToUpper(strings.TrimSpace(shop.Currency))
	if shop.Currency == "" {
		shop.Currency = "USD"
	}
	req := &models.UpdateShopRequest{Name: &shop.Name, TaxRate: &shop.TaxRate, Currency: &shop.Currency}
	if err := ValidateShopUpdate(req); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, shop); err != nil {
		return err
	}
	s.events.notify(ctx, events.TableShops, events.OpInsert, shop.ID, shop.ID)
	return nil
}

func (s *ShopService) Update(ctx context.Context, shopID string, req *models.UpdateShopRequest) (*models.Shop, error) {
	if err := ValidateShopUpdate(req); err != nil {
		return nil, err
	}

	shop, err := s.repo.Get(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		shop.Name = *req.Name
	}
	if req.TaxRate != nil {
		shop.TaxRate = *req.TaxRate
	}
	if req.Currency != nil {
		shop.Currency = *req.Currency
	}

	if err := s.repo.Update(ctx, shop); err != nil {
		return nil, err
	}
	evict(ctx, s.cache, s.logger, shopID, shopID)
	s.events.notify(ctx, events.TableShops, events.OpUpdate, shopID, shopID)

	s.logger.WithFields(logging.Fields{
		"shop_id":  shopID,
		"tax_rate": shop.TaxRate.String(),
	}).Info("Shop settings updated")
	return shop, nil
}

// requireShopScope rejects calls made without a shop.
func requireShopScope(shopID string) error {
	if strings.TrimSpace(shopID) == "" {
		return apperrors.NewValidationError("shop_id", "shop id is required")
	}
	return nil
}
