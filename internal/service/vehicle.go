package service

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/repository"
)

type VehicleService struct {
	repo      repository.VehicleRepository
	customers repository.CustomerRepository
	events    notifier
	now       clock
}

func NewVehicleService(repo repository.VehicleRepository, customers repository.CustomerRepository, publisher events.Publisher) *VehicleService {
	return &VehicleService{
		repo:      repo,
		customers: customers,
		events:    newNotifier(publisher, "vehicle-service"),
		now:       systemClock,
	}
}

func (s *VehicleService) Create(ctx context.Context, shopID string, in *models.VehicleInput) (*models.Vehicle, error) {
	if err := requireShopScope(shopID); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, shopID, in); err != nil {
		return nil, err
	}

	v := &models.Vehicle{ShopID: shopID}
	applyVehicle(v, in)
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	s.events.notify(ctx, events.TableVehicles, events.OpInsert, shopID, v.ID)
	return v, nil
}

func (s *VehicleService) Get(ctx context.Context, shopID, id string) (*models.Vehicle, error) {
	return s.repo.Get(ctx, shopID, id)
}

func (s *VehicleService) Update(ctx context.Context, shopID, id string, in *models.VehicleInput) (*models.Vehicle, error) {
	if err := s.validate(ctx, shopID, in); err != nil {
		return nil, err
	}
	v, err := s.repo.Get(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	applyVehicle(v, in)
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	s.events.notify(ctx, events.TableVehicles, events.OpUpdate, shopID, id)
	return v, nil
}

func (s *VehicleService) Delete(ctx context.Context, shopID, id string) error {
	if err := s.repo.Delete(ctx, shopID, id); err != nil {
		return err
	}
	s.events.notify(ctx, events.TableVehicles, events.OpDelete, shopID, id)
	return nil
}

// ListByCustomer returns the vehicles of a customer, which must exist.
func (s *VehicleService) ListByCustomer(ctx context.Context, shopID, customerID string) ([]*models.Vehicle, error) {
	if _, err := s.customers.Get(ctx, shopID, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListByCustomer(ctx, shopID, customerID)
}

func (s *VehicleService) validate(ctx context.Context, shopID string, in *models.VehicleInput) error {
	if err := NormalizeVehicle(in, s.now()); err != nil {
		return err
	}
	if _, err := s.customers.Get(ctx, shopID, in.CustomerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewValidationError("customer_id", "customer does not exist")
		}
		return err
	}
	return nil
}

func applyVehicle(v *models.Vehicle, in *models.VehicleInput) {
	v.CustomerID = in.CustomerID
	v.Year = in.Year
	v.Make = in.Make
	v.Model = in.Model
	v.VIN = in.VIN
	v.LicensePlate = in.LicensePlate
}
