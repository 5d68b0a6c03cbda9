// Package models holds the persisted entities of a shop and the request
// types the API accepts for them.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shop is the tenant. Every other record carries its ID.
type Shop struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type UpdateShopRequest struct {
	Name     *string          `json:"name,omitempty"`
	TaxRate  *decimal.Decimal `json:"tax_rate,omitempty"`
	Currency *string          `json:"currency,omitempty"`
}

// Page is the offset pagination shared by list filters.
type Page struct {
	Limit  int `json:"limit" form:"limit"`
	Offset int `json:"offset" form:"offset"`
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize clamps the limit into [1, MaxPageLimit] and the offset to >= 0.
func (p *Page) Normalize() {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}
