// Package events carries row-level change notifications between service
// instances (over Kafka) and out to realtime subscribers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Table names match the Postgres tables.
const (
	TableShops     = "shops"
	TableCustomers = "customers"
	TableVehicles  = "vehicles"
	TableInventory = "inventory"
	TableServices  = "services"
	TableOrders    = "orders"
	TableTasks     = "tasks"
)

// ChangeEvent says that one row changed. It carries no row data: consumers
// decide whether to patch what they hold or refetch.
type ChangeEvent struct {
	ID            string    `json:"id"`
	Table         string    `json:"table"`
	Op            Op        `json:"op"`
	RecordID      string    `json:"record_id"`
	ShopID        string    `json:"shop_id"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

func NewChangeEvent(ctx context.Context, table string, op Op, shopID, recordID string) *ChangeEvent {
	return &ChangeEvent{
		ID:            uuid.NewString(),
		Table:         table,
		Op:            op,
		RecordID:      recordID,
		ShopID:        shopID,
		Timestamp:     time.Now().UTC(),
		CorrelationID: CorrelationID(ctx),
	}
}

// Publisher sends change events to other instances.
type Publisher interface {
	Publish(ctx context.Context, ev *ChangeEvent) error
	Close() error
}

// Handler reacts to a change event delivered by a consumer.
type Handler interface {
	HandleChange(ctx context.Context, ev *ChangeEvent) error
}

type HandlerFunc func(ctx context.Context, ev *ChangeEvent) error

func (f HandlerFunc) HandleChange(ctx context.Context, ev *ChangeEvent) error {
	return f(ctx, ev)
}

type correlationKey struct{}

// WithCorrelationID attaches a request id that events published under ctx will carry.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
