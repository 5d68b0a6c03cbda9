package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
)

func orderFixture() *fixture {
	f := setup()
	f.addCustomer("c1")
	f.addTire("t1", 4, "100")
	f.addTire("t2", 6, "80")
	f.addService("balance", "flat", "50", true)
	f.addService("disposal", "flat", "20", false)
	f.addService("mount", "per_tire", "12.50", true)
	f.addService("valve", "per_unit", "3", true)
	return f
}

func TestOrderService_CreateWorkedExample(t *testing.T) {
	f := orderFixture()

	order, err := f.orders.Create(context.Background(), testShop, &models.CreateOrderRequest{
		CustomerID:    "c1",
		ScheduledDate: "2026-05-06",
		ScheduledTime: "9:30",
		Tires:         []models.TireSelection{{TireID: "t1", Quantity: 2}},
		Services:      []models.ServiceSelection{{ServiceID: "balance"}, {ServiceID: "disposal"}},
	})

	require.NoError(t, err)
	require.True(t, order.TotalAmount.Valid)
	assert.Equal(t, "287.50", order.TotalAmount.Decimal.StringFixed(2))
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "09:30", order.ScheduledTime)
	assert.Len(t, order.Items, 3)
	assert.Equal(t, 2, f.tireRepo.quantity("t1"))
	assert.Equal(t, []string{"orders:insert", "inventory:update"}, f.published())
}

func TestOrderService_CreatePerTireFollowsTireCount(t *testing.T) {
	f := orderFixture()

	order, err := f.orders.Create(context.Background(), testShop, &models.CreateOrderRequest{
		CustomerID:    "c1",
		ScheduledDate: "2026-05-06",
		Tires:         []models.TireSelection{{TireID: "t1", Quantity: 2}, {TireID: "t2", Quantity: 2}},
		Services:      []models.ServiceSelection{{ServiceID: "mount", Quantity: 1}},
	})
	require.NoError(t, err)

	var mount models.OrderItem
	for _, item := range order.Items {
		if item.RefID == "mount" {
			mount = item
		}
	}
	assert.Equal(t, 4, mount.Quantity)
	assert.True(t, decimal.NewFromInt(50).Equal(mount.LineTotal))
}

func TestOrderService_CreateWithoutLinesHasNoTotal(t *testing.T) {
	f := orderFixture()

	order, err := f.orders.Create(context.Background(), testShop, &models.CreateOrderRequest{
		CustomerID:    "c1",
		ScheduledDate: "2026-05-06",
		Services:      []models.ServiceSelection{{ServiceID: "mount"}},
	})

	require.NoError(t, err)
	assert.False(t, order.TotalAmount.Valid)
	assert.Empty(t, order.Items)
}

func TestOrderService_CreateRejects(t *testing.T) {
	f := orderFixture()
	f.addCustomer("c2")
	f.vehicleRepo.store[key(testShop, "v2")] = &models.Vehicle{ID: "v2", ShopID: testShop, CustomerID: "c2"}
	f.catalogRepo.store[key(testShop, "retired")] = &models.Service{ID: "retired", ShopID: testShop, Name: "Nitrogen", PriceType: "flat"}

	base := func() models.CreateOrderRequest {
		return models.CreateOrderRequest{CustomerID: "c1", ScheduledDate: "2026-05-06"}
	}

	tests := []struct {
		name      string
		mutate    func(r *models.CreateOrderRequest)
		wantField string
	}{
		{"missing customer", func(r *models.CreateOrderRequest) { r.CustomerID = "" }, "customer_id"},
		{"unknown customer", func(r *models.CreateOrderRequest) { r.CustomerID = "ghost" }, "customer_id"},
		{"bad date", func(r *models.CreateOrderRequest) { r.ScheduledDate = "06/05/2026" }, "scheduled_date"},
		{"bad time", func(r *models.CreateOrderRequest) { r.ScheduledTime = "half past nine" }, "scheduled_time"},
		{"vehicle of another customer", func(r *models.CreateOrderRequest) { r.VehicleID = "v2" }, "vehicle_id"},
		{"unknown tire", func(r *models.CreateOrderRequest) { r.Tires = []models.TireSelection{{TireID: "nope", Quantity: 1}} }, "tires"},
		{"zero tires", func(r *models.CreateOrderRequest) { r.Tires = []models.TireSelection{{TireID: "t1"}} }, "tires"},
		{"inactive service", func(r *models.CreateOrderRequest) { r.Services = []models.ServiceSelection{{ServiceID: "retired"}} }, "services"},
		{"per unit without quantity", func(r *models.CreateOrderRequest) { r.Services = []models.ServiceSelection{{ServiceID: "valve"}} }, "services"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(&req)

			_, err := f.orders.Create(context.Background(), testShop, &req)

			var v *apperrors.ValidationError
			require.ErrorAs(t, err, &v)
			assert.Equal(t, tt.wantField, v.Field)
			assert.Empty(t, f.orderRepo.store)
		})
	}
}

func TestOrderService_DoubleBookingGate(t *testing.T) {
	tests := []struct {
		name          string
		existing      models.OrderStatus
		existingTime  string
		requestedTime string
		allow         bool
		wantBlocked   bool
	}{
		{"same slot blocks", models.OrderStatusPending, "09:30", "09:30", false, true},
		{"seconds are ignored", models.OrderStatusPending, "09:30", "09:30:00", false, true},
		{"cancelled orders still count", models.OrderStatusCancelled, "09:30", "09:30", false, true},
		{"override books anyway", models.OrderStatusPending, "09:30", "09:30", true, false},
		{"one minute apart is free", models.OrderStatusPending, "09:30", "09:31", false, false},
		{"no time never conflicts", models.OrderStatusPending, "09:30", "", false, false},
		{"existing without time", models.OrderStatusPending, "", "09:30", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := orderFixture()
			f.addOrder("o1", "2026-05-06", tt.existingTime, tt.existing)

			_, err := f.orders.Create(context.Background(), testShop, &models.CreateOrderRequest{
				CustomerID:         "c1",
				ScheduledDate:      "2026-05-06",
				ScheduledTime:      tt.requestedTime,
				Tires:              []models.TireSelection{{TireID: "t1", Quantity: 1}},
				AllowDoubleBooking: tt.allow,
			})

			if !tt.wantBlocked {
				require.NoError(t, err)
				assert.Len(t, f.orderRepo.store, 2)
				return
			}
			var db *apperrors.DoubleBookingError
			require.ErrorAs(t, err, &db)
			require.Len(t, db.Conflicts, 1)
			assert.Equal(t, "o1", db.Conflicts[0].ID)
			assert.Len(t, f.orderRepo.store, 1)
			assert.Equal(t, 4, f.tireRepo.quantity("t1"), "stock must not move when blocked")
		})
	}
}

func TestOrderService_Quote(t *testing.T) {
	f := orderFixture()

	quote, err := f.orders.Quote(context.Background(), testShop, &models.QuoteRequest{
		Tires:    []models.TireSelection{{TireID: "t1", Quantity: 1}, {TireID: "t1", Quantity: 1}},
		Services: []models.ServiceSelection{{ServiceID: "balance"}, {ServiceID: "disposal"}},
	})

	require.NoError(t, err)
	assert.Len(t, quote.Items, 3)
	assert.Equal(t, "287.50", quote.Totals.Total.StringFixed(2))
	assert.Equal(t, "17.50", quote.Totals.Tax.StringFixed(2))
	assert.Empty(t, f.orderRepo.store)
	assert.Equal(t, 4, f.tireRepo.quantity("t1"))
}

func TestOrderService_Conflicts(t *testing.T) {
	f := orderFixture()
	f.addOrder("o1", "2026-05-06", "09:30", models.OrderStatusPending)
	f.addOrder("o2", "2026-05-06", "09:30", models.OrderStatusCompleted)
	f.addOrder("o3", "2026-05-07", "09:30", models.OrderStatusPending)

	got, err := f.orders.Conflicts(context.Background(), testShop, &models.ConflictCheckRequest{
		ScheduledDate: "2026-05-06", ScheduledTime: "09:30", ExcludeOrderID: "o2",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "o1", got[0].ID)

	got, err = f.orders.Conflicts(context.Background(), testShop, &models.ConflictCheckRequest{ScheduledDate: "2026-05-06"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestOrderService_Reschedule(t *testing.T) {
	f := orderFixture()
	f.addOrder("o1", "2026-05-06", "09:30", models.OrderStatusPending)
	f.addOrder("o2", "2026-05-06", "11:00", models.OrderStatusPending)
	ctx := context.Background()

	moved, err := f.orders.Reschedule(ctx, testShop, "o1", &models.RescheduleRequest{ScheduledDate: "2026-05-06", ScheduledTime: "09:30"})
	require.NoError(t, err, "an order never conflicts with itself")
	assert.Equal(t, "09:30", moved.ScheduledTime)

	_, err = f.orders.Reschedule(ctx, testShop, "o1", &models.RescheduleRequest{ScheduledDate: "2026-05-06", ScheduledTime: "11:00"})
	var db *apperrors.DoubleBookingError
	require.ErrorAs(t, err, &db)

	moved, err = f.orders.Reschedule(ctx, testShop, "o1", &models.RescheduleRequest{ScheduledDate: "2026-05-06", ScheduledTime: "11:00", AllowDoubleBooking: true})
	require.NoError(t, err)
	assert.Equal(t, "11:00", moved.ScheduledTime)

	_, err = f.orders.Reschedule(ctx, testShop, "ghost", &models.RescheduleRequest{ScheduledDate: "2026-05-06"})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestOrderService_UpdateStatus(t *testing.T) {
	f := orderFixture()
	f.addOrder("o1", "2026-05-06", "09:30", models.OrderStatusCompleted)
	ctx := context.Background()

	order, err := f.orders.UpdateStatus(ctx, testShop, "o1", models.OrderStatusPending)
	require.NoError(t, err, "any status may follow any other")
	assert.Equal(t, models.OrderStatusPending, order.Status)

	_, err = f.orders.UpdateStatus(ctx, testShop, "o1", "archived")
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, []string{"orders:update"}, f.published())
}

func TestOrderService_DeleteKeepsStock(t *testing.T) {
	f := orderFixture()
	ctx := context.Background()
	order, err := f.orders.Create(ctx, testShop, &models.CreateOrderRequest{
		CustomerID: "c1", ScheduledDate: "2026-05-06",
		Tires: []models.TireSelection{{TireID: "t2", Quantity: 4}},
	})
	require.NoError(t, err)

	require.NoError(t, f.orders.Delete(ctx, testShop, order.ID))
	assert.Equal(t, 2, f.tireRepo.quantity("t2"))
	assert.True(t, errors.Is(f.orders.Delete(ctx, testShop, order.ID), apperrors.ErrNotFound))
}
