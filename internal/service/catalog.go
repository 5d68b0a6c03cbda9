package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/repository"
)

// CatalogService manages the labor services a shop sells.
type CatalogService struct {
	repo   repository.CatalogRepository
	cache  repository.Cache[models.Service]
	events notifier
	logger *logrus.Entry
}

func NewCatalogService(repo repository.CatalogRepository, cache repository.Cache[models.Service], publisher events.Publisher) *CatalogService {
	return &CatalogService{
		repo:   repo,
		cache:  cache,
		events: newNotifier(publisher, "catalog-service"),
		logger: logging.New("catalog-service"),
	}
}

func (s *CatalogService) Create(ctx context.Context, shopID string, in *models.ServiceInput) (*models.Service, error) {
	if err := requireShopScope(shopID); err != nil {
		return nil, err
	}
	if err := ValidateService(in); err != nil {
		return nil, err
	}

	svc := &models.Service{ShopID: shopID, IsActive: true}
	applyService(svc, in)
	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, err
	}
	s.events.notify(ctx, events.TableServices, events.OpInsert, shopID, svc.ID)
	return svc, nil
}

func (s *CatalogService) Get(ctx context.Context, shopID, id string) (*models.Service, error) {
	return readThrough(ctx, s.cache, s.logger, events.TableServices, shopID, id, func() (*models.Service, error) {
		return s.repo.Get(ctx, shopID, id)
	})
}

func (s *CatalogService) Update(ctx context.Context, shopID, id string, in *models.ServiceInput) (*models.Service, error) {
	if err := ValidateService(in); err != nil {
		return nil, err
	}
	svc, err := s.repo.Get(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	applyService(svc, in)
	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, err
	}
	evict(ctx, s.cache, s.logger, shopID, id)
	s.events.notify(ctx, events.TableServices, events.OpUpdate, shopID, id)
	return svc, nil
}

func (s *CatalogService) Delete(ctx context.Context, shopID, id string) error {
	if err := s.repo.Delete(ctx, shopID, id); err != nil {
		return err
	}
	evict(ctx, s.cache, s.logger, shopID, id)
	s.events.notify(ctx, events.TableServices, events.OpDelete, shopID, id)
	return nil
}

func (s *CatalogService) List(ctx context.Context, shopID string, filter *models.ServiceFilter) ([]*models.Service, error) {
	return s.repo.List(ctx, shopID, filter)
}

// applyService leaves IsActive alone when the input does not set it.
func applyService(svc *models.Service, in *models.ServiceInput) {
	svc.Name = in.Name
	svc.Description = in.Description
	svc.Price = in.Price
	svc.PriceType = in.PriceType
	svc.IsTaxable = in.IsTaxable
	if in.IsActive != nil {
		svc.IsActive = *in.IsActive
	}
}
