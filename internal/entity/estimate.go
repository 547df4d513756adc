package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/roofscope/roofscope/constants"
)

// PricedItem is a line item after catalog matching and supplier selection.
// When Matched is false the total price is the 60%-of-RCV fallback and the
// catalog fields stay nil.
type PricedItem struct {
	InsuranceLineItem
	IsLabor   bool       `json:"is_labor"`
	Matched   bool       `json:"matched"`
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	UnitPrice *float64   `json:"unit_price,omitempty"`
	TotalPrice float64   `json:"total_price"`
	Supplier  *string    `json:"supplier,omitempty"`
	SKU       *string    `json:"sku,omitempty"`
}

// SupplierTotals aggregates matched spend per supplier.
type SupplierTotals struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// EstimateResult is the calculator's output: priced items plus profitability
// rollups. It is immutable once persisted; only the estimate status moves.
type EstimateResult struct {
	Items           []PricedItem              `json:"items"`
	MaterialCost    float64                   `json:"material_cost"`
	LaborCost       float64                   `json:"labor_cost"`
	TotalRCV        float64                   `json:"total_rcv"`
	Profit          float64                   `json:"profit"`
	Margin          float64                   `json:"margin"` // profit / totalRCV, 0 when RCV is 0
	PrimarySupplier string                    `json:"primary_supplier"`
	BySupplier      map[string]SupplierTotals `json:"by_supplier"`
}

// Estimate is a persisted EstimateResult with lifecycle status.
type Estimate struct {
	ID             uuid.UUID                `json:"id"`
	OrganizationID uuid.UUID                `json:"organization_id"`
	JobID          *uuid.UUID               `json:"job_id,omitempty"`
	Status         constants.EstimateStatus `json:"status"`
	Result         EstimateResult           `json:"result"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// ExpectedQuantity is one material expectation derived from roof measurements.
type ExpectedQuantity struct {
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
	Unit     string  `json:"unit"`
	Basis    string  `json:"basis"` // human-readable derivation, e.g. "22.0 squares @ 3 bundles/sq"
}
