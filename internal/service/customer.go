package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/repository"
)

type CustomerService struct {
	repo   repository.CustomerRepository
	events notifier
	logger *logrus.Entry
}

func NewCustomerService(repo repository.CustomerRepository, publisher events.Publisher) *CustomerService {
	return &CustomerService{
		repo:   repo,
		events: newNotifier(publisher, "customer-service"),
		logger: logging.New("customer-service"),
	}
}

func (s *CustomerService) Create(ctx context.Context, shopID string, in *models.CustomerInput) (*models.Customer, error) {
	if err := requireShopScope(shopID); err != nil {
		return nil, err
	}
	if err := NormalizeCustomer(in); err != nil {
		return nil, err
	}

	c := &models.Customer{ShopID: shopID}
	applyCustomer(c, in)
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.events.notify(ctx, events.TableCustomers, events.OpInsert, shopID, c.ID)

	s.logger.WithFields(logging.Fields{"shop_id": shopID, "customer_id": c.ID}).Info("Customer created")
	return c, nil
}

func (s *CustomerService) Get(ctx context.Context, shopID, id string) (*models.Customer, error) {
	return s.repo.Get(ctx, shopID, id)
}

func (s *CustomerService) Update(ctx context.Context, shopID, id string, in *models.CustomerInput) (*models.Customer, error) {
	if err := NormalizeCustomer(in); err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	applyCustomer(c, in)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.events.notify(ctx, events.TableCustomers, events.OpUpdate, shopID, id)
	return c, nil
}

func (s *CustomerService) Delete(ctx context.Context, shopID, id string) error {
	if err := s.repo.Delete(ctx, shopID, id); err != nil {
		return err
	}
	s.events.notify(ctx, events.TableCustomers, events.OpDelete, shopID, id)
	return nil
}

// List returns one page of customers and the total matching the filter.
func (s *CustomerService) List(ctx context.Context, shopID string, filter *models.CustomerFilter) ([]*models.Customer, int, error) {
	filter.Search = CleanText(filter.Search)
	filter.Page.Normalize()
	return s.repo.List(ctx, shopID, filter)
}

func applyCustomer(c *models.Customer, in *models.CustomerInput) {
	c.Name = in.Name
	c.Phone = in.Phone
	c.Email = in.Email
	c.Address = in.Address
	c.Notes = in.Notes
}
