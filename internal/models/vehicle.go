package models

import "time"

type Vehicle struct {
	ID           string    `json:"id"`
	ShopID       string    `json:"shop_id"`
	CustomerID   string    `json:"customer_id"`
	Year         *int      `json:"year,omitempty"`
	Make         string    `json:"make,omitempty"`
	Model        string    `json:"model,omitempty"`
	VIN          string    `json:"vin,omitempty"`
	LicensePlate string    `json:"license_plate,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type VehicleInput struct {
	CustomerID   string `json:"customer_id"`
	Year         *int   `json:"year"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	VIN          string `json:"vin"`
	LicensePlate string `json:"license_plate"`
}
