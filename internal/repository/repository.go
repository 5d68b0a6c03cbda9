// Package repository persists shop data in PostgreSQL and keeps hot records
// and order drafts in Redis. Every query is scoped by shop id.
package repository

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/draft"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
)

type ShopRepository interface {
	Create(ctx context.Context, shop *models.Shop) error
	Get(ctx context.Context, shopID string) (*models.Shop, error)
	Update(ctx context.Context, shop *models.Shop) error
}

type CustomerRepository interface {
	Create(ctx context.Context, c *models.Customer) error
	Get(ctx context.Context, shopID, id string) (*models.Customer, error)
	Update(ctx context.Context, c *models.Customer) error
	Delete(ctx context.Context, shopID, id string) error
	List(ctx context.Context, shopID string, filter *models.CustomerFilter) ([]*models.Customer, int, error)
}

type VehicleRepository interface {
	Create(ctx context.Context, v *models.Vehicle) error
	Get(ctx context.Context, shopID, id string) (*models.Vehicle, error)
	Update(ctx context.Context, v *models.Vehicle) error
	Delete(ctx context.Context, shopID, id string) error
	ListByCustomer(ctx context.Context, shopID, customerID string) ([]*models.Vehicle, error)
}

type InventoryRepository interface {
	Create(ctx context.Context, t *models.Tire) error
	Get(ctx context.Context, shopID, id string) (*models.Tire, error)
	Update(ctx context.Context, t *models.Tire) error
	Delete(ctx context.Context, shopID, id string) error
	List(ctx context.Context, shopID string, filter *models.TireFilter) ([]*models.Tire, int, error)
	// AdjustQuantity adds delta to the stock count and returns the updated tire.
	// It fails with a validation error when the result would be negative.
	AdjustQuantity(ctx context.Context, shopID, id string, delta int) (*models.Tire, error)
}

type CatalogRepository interface {
	Create(ctx context.Context, s *models.Service) error
	Get(ctx context.Context, shopID, id string) (*models.Service, error)
	Update(ctx context.Context, s *models.Service) error
	Delete(ctx context.Context, shopID, id string) error
	List(ctx context.Context, shopID string, filter *models.ServiceFilter) ([]*models.Service, error)
}

type OrderRepository interface {
	// Create inserts the order with its items and takes every tire line out
	// of stock, in one transaction.
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, shopID, id string) (*models.Order, error)
	List(ctx context.Context, shopID string, filter *models.OrderFilter) ([]*models.Order, int, error)
	// ListOnDate returns every order scheduled on date, whatever its status.
	ListOnDate(ctx context.Context, shopID, date string) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, shopID, id string, status models.OrderStatus) (*models.Order, error)
	Reschedule(ctx context.Context, shopID, id, date, clock string) (*models.Order, error)
	Delete(ctx context.Context, shopID, id string) error
}

type TaskRepository interface {
	Create(ctx context.Context, t *models.Task) error
	Get(ctx context.Context, shopID, id string) (*models.Task, error)
	Update(ctx context.Context, t *models.Task) error
	Delete(ctx context.Context, shopID, id string) error
	List(ctx context.Context, shopID string, filter *models.TaskFilter) ([]*models.Task, error)
}

// DraftStore keeps order drafts between requests.
type DraftStore interface {
	Get(ctx context.Context, shopID, id string) (*draft.OrderDraft, error)
	Save(ctx context.Context, d *draft.OrderDraft) error
	Delete(ctx context.Context, shopID, id string) error
}

// Cache is a read-through cache of single records of one table.
type Cache[T any] interface {
	Get(ctx context.Context, shopID, id string) (*T, error)
	Set(ctx context.Context, shopID, id string, v *T) error
	Delete(ctx context.Context, shopID, id string) error
}

var (
	_ ShopRepository      = (*PostgresShopRepository)(nil)
	_ CustomerRepository  = (*PostgresCustomerRepository)(nil)
	_ VehicleRepository   = (*PostgresVehicleRepository)(nil)
	_ InventoryRepository = (*PostgresInventoryRepository)(nil)
	_ CatalogRepository   = (*PostgresCatalogRepository)(nil)
	_ OrderRepository     = (*PostgresOrderRepository)(nil)
	_ TaskRepository      = (*PostgresTaskRepository)(nil)
	_ DraftStore          = (*RedisDraftStore)(nil)

	_ Cache[models.Shop]    = (*ShopCache)(nil)
	_ Cache[models.Tire]    = (*TireCache)(nil)
	_ Cache[models.Service] = (*ServiceCache)(nil)
)
