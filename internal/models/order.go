package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/pricing"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known status. Any valid status may follow any other.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type ItemType string

const (
	ItemTypeTire    ItemType = "tire"
	ItemTypeService ItemType = "service"
)

// Order is a work order. TotalAmount stays null until the order has a line.
type Order struct {
	ID            string              `json:"id"`
	ShopID        string              `json:"shop_id"`
	CustomerID    string              `json:"customer_id"`
	VehicleID     string              `json:"vehicle_id,omitempty"`
	ScheduledDate string              `json:"scheduled_date"`
	ScheduledTime string              `json:"scheduled_time,omitempty"`
	Status        OrderStatus         `json:"status"`
	TotalAmount   decimal.NullDecimal `json:"total_amount"`
	Notes         string              `json:"notes,omitempty"`
	Items         []OrderItem         `json:"items,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ItemType    ItemType        `json:"item_type"`
	RefID       string          `json:"ref_id"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	IsTaxable   bool            `json:"is_taxable"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// TireSelection picks a quantity of one inventory tire.
type TireSelection struct {
	TireID   string `json:"tire_id"`
	Quantity int    `json:"quantity"`
}

// ServiceSelection picks a catalog service. Quantity is only used by per_unit services.
type ServiceSelection struct {
	ServiceID string `json:"service_id"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerID         string             `json:"customer_id"`
	VehicleID          string             `json:"vehicle_id"`
	ScheduledDate      string             `json:"scheduled_date"`
	ScheduledTime      string             `json:"scheduled_time"`
	Notes              string             `json:"notes"`
	Tires              []TireSelection    `json:"tires"`
	Services           []ServiceSelection `json:"services"`
	AllowDoubleBooking bool               `json:"allow_double_booking"`
}

type QuoteRequest struct {
	Tires    []TireSelection    `json:"tires"`
	Services []ServiceSelection `json:"services"`
}

// Quote is the priced view of a set of selections; nothing is persisted.
type Quote struct {
	Items  []OrderItem    `json:"items"`
	Totals pricing.Totals `json:"totals"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

type RescheduleRequest struct {
	ScheduledDate      string `json:"scheduled_date"`
	ScheduledTime      string `json:"scheduled_time"`
	AllowDoubleBooking bool   `json:"allow_double_booking"`
}

// ConflictCheckRequest asks for orders booked at exactly this slot.
type ConflictCheckRequest struct {
	ScheduledDate  string `json:"scheduled_date"`
	ScheduledTime  string `json:"scheduled_time"`
	ExcludeOrderID string `json:"exclude_order_id"`
}

type OrderFilter struct {
	Status     OrderStatus `form:"status"`
	CustomerID string      `form:"customer_id"`
	From       string      `form:"from"`
	To         string      `form:"to"`
	Page
}
