package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tire is one inventory SKU. Quantity is the live stock count.
type Tire struct {
	ID          string          `json:"id"`
	ShopID      string          `json:"shop_id"`
	Brand       string          `json:"brand"`
	Model       string          `json:"model"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Label is the human readable SKU name used on order lines.
func (t *Tire) Label() string {
	return t.Brand + " " + t.Model + " " + t.Size
}

type TireInput struct {
	Brand       string          `json:"brand"`
	Model       string          `json:"model"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

type TireFilter struct {
	Search string `form:"search"`
	Sort   string `form:"sort"`
	Desc   bool   `form:"desc"`
	// LowStock, when set, keeps tires with quantity <= the threshold.
	LowStock *int `form:"low_stock"`
	Page
}

type AdjustQuantityRequest struct {
	Delta int `json:"delta"`
}
