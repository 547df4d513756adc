package entity

import (
	"time"

	"github.com/google/uuid"
)

// SupplierPrice is one supplier's price for a product.
type SupplierPrice struct {
	Supplier string   `json:"supplier"`
	Price    *float64 `json:"price,omitempty"` // nil when the supplier doesn't stock it
	SKU      string   `json:"sku,omitempty"`
}

// Product is a catalog entry materials can be matched against.
type Product struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Subcategory     *string         `json:"subcategory,omitempty"`
	ManufacturerSKU string          `json:"manufacturer_sku,omitempty"`
	Unit            string          `json:"unit"`
	Prices          []SupplierPrice `json:"prices,omitempty"`
	Active          bool            `json:"active"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SupplierConfig is an organization's relationship with one supplier.
type SupplierConfig struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Supplier       string    `json:"supplier"`
	Enabled        bool      `json:"enabled"`
	AccountNumber  *string   `json:"account_number,omitempty"`
}
