package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/draft"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/pricing"
)

const testShop = "shop-1"

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func key(shopID, id string) string { return shopID + "/" + id }

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

type mockShopRepository struct {
	store map[string]*models.Shop
	gets  int
}

func (m *mockShopRepository) Create(_ context.Context, s *models.Shop) error {
	if _, ok := m.store[s.ID]; ok {
		return apperrors.ErrConflict
	}
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *mockShopRepository) Get(_ context.Context, shopID string) (*models.Shop, error) {
	m.gets++
	s, ok := m.store[shopID]
	if !ok {
		return nil, errors.Wrap(apperrors.ErrNotFound, "shop")
	}
	cp := *s
	return &cp, nil
}

func (m *mockShopRepository) Update(_ context.Context, s *models.Shop) error {
	if _, ok := m.store[s.ID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

type mockCustomerRepository struct {
	store map[string]*models.Customer
}

func (m *mockCustomerRepository) Create(_ context.Context, c *models.Customer) error {
	c.ID = newID(c.ID)
	cp := *c
	m.store[key(c.ShopID, c.ID)] = &cp
	return nil
}

func (m *mockCustomerRepository) Get(_ context.Context, shopID, id string) (*models.Customer, error) {
	c, ok := m.store[key(shopID, id)]
	if !ok {
		return nil, errors.Wrap(apperrors.ErrNotFound, "customer")
	}
	cp := *c
	return &cp, nil
}

func (m *mockCustomerRepository) Update(_ context.Context, c *models.Customer) error {
	if _, ok := m.store[key(c.ShopID, c.ID)]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *c
	m.store[key(c.ShopID, c.ID)] = &cp
	return nil
}

func (m *mockCustomerRepository) Delete(_ context.Context, shopID, id string) error {
	if _, ok := m.store[key(shopID, id)]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.store, key(shopID, id))
	return nil
}

func (m *mockCustomerRepository) List(_ context.Context, shopID string, _ *models.CustomerFilter) ([]*models.Customer, int, error) {
	var out []*models.Customer
	for _, c := range m.store {
		if c.ShopID == shopID {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

type mockVehicleRepository struct {
	store map[string]*models.Vehicle
}

func (m *mockVehicleRepository) Create(_ context.Context, v *models.Vehicle) error {
	v.ID = newID(v.ID)
	cp := *v
	m.store[key(v.ShopID, v.ID)] = &cp
	return nil
}

func (m *mockVehicleRepository) Get(_ context.Context, shopID, id string) (*models.Vehicle, error) {
	v, ok := m.store[key(shopID, id)]
	if !ok {
		return nil, errors.Wrap(apperrors.ErrNotFound, "vehicle")
	}
	cp := *v
	return &cp, nil
}

func (m *mockVehicleRepository) Update(_ context.Context, v *models.Vehicle) error {
	cp := *v
	m.store[key(v.ShopID, v.ID)] = &cp
	return nil
}

func (m *mockVehicleRepository) Delete(_ context.Context, shopID, id string) error {
	delete(m.store, key(shopID, id))
	return nil
}

func (m *mockVehicleRepository) ListByCustomer(_ context.Context, shopID, customerID string) ([]*models.Vehicle, error) {
	var out []*models.Vehicle
	for _, v := range m.store {
		if v.ShopID == shopID && v.CustomerID == customerID {
			out = append(out, v)
		}
	}
	return out, nil
}

type mockInventoryRepository struct {
	mu    sync.Mutex
	store map[string]*models.Tire
}

func (m *mockInventoryRepository) Create(_ context.Context, t *models.Tire) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = newID(t.ID)
	cp := *t
	m.store[key(t.ShopID, t.ID)] = &cp
	return nil
}

func (m *mockInventoryRepository) Get(_ context.Context, shopID, id string) (*models.Tire, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[key(shopID, id)]
	if !ok {
		return nil, errors.Wrap(apperrors.ErrNotFound, "tire")
	}
	cp := *t
	return &cp, nil
}

func (m *mockInventoryRepository) Update(_ context.Context, t *models.Tire) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[key(t.ShopID, t.ID)]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *t
	m.store[key(t.ShopID, t.ID)] = &cp
	return nil
}

func (m *mockInventoryRepository) Delete(_ context.Context, shopID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key(shopID, id))
	return nil
}

func (m *mockInventoryRepository) List(_ context.Context, shopID string, filter *models.TireFilter) ([]*models.Tire, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Tire
	for _, t := range m.store {
		if t.ShopID != shopID {
			continue
		}
		if filter.LowStock != nil && t.Quantity > *filter.LowStock {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *mockInventoryRepository) AdjustQuantity(_ context.Context, shopID, id string, delta int) (*models.Tire, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[key(shopID, id)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if t.Quantity+delta < 0 {
		return nil, apperrors.NewValidationError("delta", "quantity cannot go below zero")
	}
	t.Quantity += delta
	cp := *t
	return &cp, nil
}

func (m *mockInventoryRepository) quantity(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[key(testShop, id)].Quantity
}

type mockCatalogRepository struct {
	store map[string]*models.Service
}

func (m *mockCatalogRepository) Create(_ context.Context, s *models.Service) error {
	s.ID = newID(s.ID)
	cp := *s
	m.store[key(s.ShopID, s.ID)] = &cp
	return nil
}

func (m *mockCatalogRepository) Get(_ context.Context, shopID, id string) (*models.Service, error) {
	s, ok := m.store[key(shopID, id)]
	if !ok {
		return nil, errors.Wrap(apperrors.ErrNotFound, "service")
	}
	cp := *s
	return &cp, nil
}

func (m *mockCatalogRepository) Update(_ context.Context, s *models.Service) error {
	cp := *s
	m.store[key(s.ShopID, s.ID)] = &cp
	return nil
}

func (m *mockCatalogRepository) Delete(_ context.Context, shopID, id string) error {
	if _, ok := m.store[key(shopID, id)]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.store, key(shopID, id))
	return nil
}

func (m *mockCatalogRepository) List(_ context.Context, shopID string, filter *models.ServiceFilter) ([]*models.Service, error) {
	var out []*models.Service
	for _, s := range m.store {
		if s.ShopID == shopID && (!filter.ActiveOnly || s.IsActive) {
			out = append(out, s)
		}
	}
	return out, nil
}

// mockOrderRepository takes tire lines out of the inventory mock on Create,
// like the real transaction does.
type mockOrderRepository struct {
	store     map[string]*models.Order
	inventory *mockInventoryRepository
}

func (m *mockOrderRepository) Create(_ context.Context, o *models.Order) error {
	o.ID = newID(o.ID)
	o.CreatedAt, o.UpdatedAt = testNow, testNow
	for i := range o.Items {
		o.Items[i].ID = newID("")
		o.Items[i].OrderID = o.ID
		if o.Items[i].ItemType == models.ItemTypeTire {
			m.inventory.mu.Lock()
			m.inventory.store[key(o.ShopID, o.Items[i].RefID)].Quantity -= o.Items[i].Quantity
			m.inventory.mu.Unlock()
		}
	}
	cp := *o
	m.store[key(o.ShopID, o.ID)] = &cp
	return nil
}

func (m *mockOrderRepository) Get(_ context.Context, shopID, id string) (*models.Order, error) {
	o, ok := m.store[key(shopID, id)]
	if !ok {
		return nil, errors.Wrap(apperrors.ErrNotFound, "order")
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepository) List(_ context.Context, shopID string, filter *models.OrderFilter) ([]*models.Order, int, error) {
	var out []*models.Order
	for _, o := range m.store {
		if o.ShopID == shopID && (filter.Status == "" || o.Status == filter.Status) {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (m *mockOrderRepository) ListOnDate(_ context.Context, shopID, date string) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range m.store {
		if o.ShopID == shopID && o.ScheduledDate == date {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepository) UpdateStatus(_ context.Context, shopID, id string, status models.OrderStatus) (*models.Order, error) {
	o, ok := m.store[key(shopID, id)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepository) Reschedule(_ context.Context, shopID, id, date, clock string) (*models.Order, error) {
	o, ok := m.store[key(shopID, id)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	o.ScheduledDate, o.ScheduledTime = date, clock
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepository) Delete(_ context.Context, shopID, id string) error {
	if _, ok := m.store[key(shopID, id)]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.store, key(shopID, id))
	return nil
}

type mockTaskRepository struct {
	store map[string]*models.Task
}

func (m *mockTaskRepository) Create(_ context.Context, t *models.Task) error {
	t.ID = newID(t.ID)
	cp := *t
	m.store[key(t.ShopID, t.ID)] = &cp
	return nil
}

func (m *mockTaskRepository) Get(_ context.Context, shopID, id string) (*models.Task, error) {
	t, ok := m.store[key(shopID, id)]
	if !ok {
		return nil, errors.Wrap(apperrors.ErrNotFound, "task")
	}
	cp := *t
	return &cp, nil
}

func (m *mockTaskRepository) Update(_ context.Context, t *models.Task) error {
	cp := *t
	m.store[key(t.ShopID, t.ID)] = &cp
	return nil
}

func (m *mockTaskRepository) Delete(_ context.Context, shopID, id string) error {
	if _, ok := m.store[key(shopID, id)]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.store, key(shopID, id))
	return nil
}

func (m *mockTaskRepository) List(_ context.Context, shopID string, filter *models.TaskFilter) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range m.store {
		if t.ShopID == shopID && (filter.Status == "" || t.Status == filter.Status) {
			out = append(out, t)
		}
	}
	return out, nil
}

// mockDraftStore round-trips drafts through JSON like the Redis store.
type mockDraftStore struct {
	store map[string][]byte
}

func (m *mockDraftStore) Get(_ context.Context, shopID, id string) (*draft.OrderDraft, error) {
	raw, ok := m.store[key(shopID, id)]
	if !ok {
		return nil, errors.Wrap(apperrors.ErrNotFound, "draft")
	}
	var d draft.OrderDraft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (m *mockDraftStore) Save(_ context.Context, d *draft.OrderDraft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	m.store[key(d.ShopID, d.ID)] = raw
	return nil
}

func (m *mockDraftStore) Delete(_ context.Context, shopID, id string) error {
	delete(m.store, key(shopID, id))
	return nil
}

type mockCache[T any] struct {
	store map[string]*T
}

func newMockCache[T any]() *mockCache[T] {
	return &mockCache[T]{store: make(map[string]*T)}
}

func (m *mockCache[T]) Get(_ context.Context, shopID, id string) (*T, error) {
	return m.store[key(shopID, id)], nil
}

func (m *mockCache[T]) Set(_ context.Context, shopID, id string, v *T) error {
	m.store[key(shopID, id)] = v
	return nil
}

func (m *mockCache[T]) Delete(_ context.Context, shopID, id string) error {
	delete(m.store, key(shopID, id))
	return nil
}

type fixture struct {
	shopRepo     *mockShopRepository
	customerRepo *mockCustomerRepository
	vehicleRepo  *mockVehicleRepository
	tireRepo     *mockInventoryRepository
	catalogRepo  *mockCatalogRepository
	orderRepo    *mockOrderRepository
	taskRepo     *mockTaskRepository
	drafts       *mockDraftStore
	tireCache    *mockCache[models.Tire]
	publisher    *events.LocalPublisher

	shops     *ShopService
	customers *CustomerService
	vehicles  *VehicleService
	inventory *InventoryService
	catalog   *CatalogService
	orders    *OrderService
	draftSvc  *DraftService
	tasks     *TaskService

	now time.Time
}

// setup wires every service over the mocks with one shop taxed at 7%.
func setup() *fixture {
	f := &fixture{
		shopRepo:     &mockShopRepository{store: map[string]*models.Shop{}},
		customerRepo: &mockCustomerRepository{store: map[string]*models.Customer{}},
		vehicleRepo:  &mockVehicleRepository{store: map[string]*models.Vehicle{}},
		tireRepo:     &mockInventoryRepository{store: map[string]*models.Tire{}},
		catalogRepo:  &mockCatalogRepository{store: map[string]*models.Service{}},
		taskRepo:     &mockTaskRepository{store: map[string]*models.Task{}},
		drafts:       &mockDraftStore{store: map[string][]byte{}},
		tireCache:    newMockCache[models.Tire](),
		publisher:    events.NewLocalPublisher(),
		now:          testNow,
	}
	f.orderRepo = &mockOrderRepository{store: map[string]*models.Order{}, inventory: f.tireRepo}
	f.shopRepo.store[testShop] = &models.Shop{ID: testShop, Name: "Main St Tires", TaxRate: decimal.NewFromInt(7), Currency: "USD"}

	f.shops = NewShopService(f.shopRepo, newMockCache[models.Shop](), f.publisher)
	f.customers = NewCustomerService(f.customerRepo, f.publisher)
	f.vehicles = NewVehicleService(f.vehicleRepo, f.customerRepo, f.publisher)
	f.vehicles.now = f.clock
	f.inventory = NewInventoryService(f.tireRepo, f.tireCache, f.publisher)
	f.catalog = NewCatalogService(f.catalogRepo, nil, f.publisher)
	f.orders = NewOrderService(f.orderRepo, f.customerRepo, f.vehicleRepo, f.shops, f.inventory, f.catalog, f.publisher)
	f.draftSvc = NewDraftService(f.drafts, f.shops, f.inventory, f.catalog, f.orders, 5*time.Second)
	f.draftSvc.now = f.clock
	f.tasks = NewTaskService(f.taskRepo, f.publisher)
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) addTire(id string, qty int, price string) {
	f.tireRepo.store[key(testShop, id)] = &models.Tire{
		ID: id, ShopID: testShop, Brand: "Michelin", Model: "Defender", Size: "225/65R17",
		Quantity: qty, Price: decimal.RequireFromString(price),
	}
}

func (f *fixture) addService(id string, priceType string, price string, taxable bool) {
	f.catalogRepo.store[key(testShop, id)] = &models.Service{
		ID: id, ShopID: testShop, Name: id, Price: decimal.RequireFromString(price),
		PriceType: pricing.PriceType(priceType), IsTaxable: taxable, IsActive: true,
	}
}

func (f *fixture) addCustomer(id string) {
	f.customerRepo.store[key(testShop, id)] = &models.Customer{ID: id, ShopID: testShop, Name: "Dana Ruiz"}
}

func (f *fixture) addOrder(id, date, clock string, status models.OrderStatus) {
	f.orderRepo.store[key(testShop, id)] = &models.Order{
		ID: id, ShopID: testShop, CustomerID: "c1", ScheduledDate: date, ScheduledTime: clock, Status: status,
	}
}

// published lists "table:op" of every event sent so far.
func (f *fixture) published() []string {
	var out []string
	for _, ev := range f.publisher.Published() {
		out = append(out, ev.Table+":"+string(ev.Op))
	}
	return out
}
