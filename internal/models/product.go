package models

import "time"

// LowStockThreshold is the stock count below which the storefront flags a
// product as running low.
const LowStockThreshold = 10

type Product struct {
	ID                string         `bson:"_id,omitempty" json:"id"`
	Name              string         `bson:"name" json:"name"`
	Category          string         `bson:"category" json:"category"`
	Description       string         `bson:"description,omitempty" json:"description,omitempty"`
	Price             float64        `bson:"price" json:"price"`
	Stock             int            `bson:"stock" json:"stock"`
	StockStatus       string         `bson:"-" json:"stock_status,omitempty"`
	ExpirationDate    string         `bson:"expiration_date,omitempty" json:"expiration_date,omitempty"`
	ActiveIngredients IngredientList `bson:"active_ingredient,omitempty" json:"active_ingredient,omitempty"`
	PackageSize       string         `bson:"package_size,omitempty" json:"package_size,omitempty"`
	CartonSize        string         `bson:"carton_size,omitempty" json:"carton_size,omitempty"`
	Origin            string         `bson:"origin,omitempty" json:"origin,omitempty"`
	UnitType          string         `bson:"unit_type,omitempty" json:"unit_type,omitempty"`
	ImageURL          string         `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CreatedAt         time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `bson:"updated_at" json:"updated_at"`
}

// StockLevel classifies the current stock count for display.
func (p Product) StockLevel() string {
	switch {
	case p.Stock <= 0:
		return "out"
	case p.Stock < LowStockThreshold:
		return "low"
	default:
		return "in"
	}
}

// Recency is the listing sort key: updated_at when set, created_at otherwise.
func (p Product) Recency() time.Time {
	if !p.UpdatedAt.IsZero() {
		return p.UpdatedAt
	}
	return p.CreatedAt
}
