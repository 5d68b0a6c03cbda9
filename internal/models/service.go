package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/pricing"
)

// Service is an entry of the shop's labor catalog (mounting, alignment, ...).
type Service struct {
	ID          string            `json:"id"`
	ShopID      string            `json:"shop_id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Price       decimal.Decimal   `json:"price"`
	PriceType   pricing.PriceType `json:"price_type"`
	IsTaxable   bool              `json:"is_taxable"`
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type ServiceInput struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       decimal.Decimal   `json:"price"`
	PriceType   pricing.PriceType `json:"price_type"`
	IsTaxable   bool              `json:"is_taxable"`
	IsActive    *bool             `json:"is_active"`
}

type ServiceFilter struct {
	ActiveOnly bool `form:"active"`
}
