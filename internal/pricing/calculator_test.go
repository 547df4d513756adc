package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roofscope/roofscope/internal/entity"
)

type fakeCatalog struct {
	products  []entity.Product
	suppliers []string
}

func (f *fakeCatalog) UpsertProduct(context.Context, *entity.Product) error       { return nil }
func (f *fakeCatalog) UpsertSupplierConfig(context.Context, *entity.SupplierConfig) error {
	return nil
}

func (f *fakeCatalog) ListActiveProducts(context.Context) ([]entity.Product, error) {
	return f.products, nil
}

func (f *fakeCatalog) ListEnabledSuppliers(context.Context, uuid.UUID) ([]string, error) {
	return f.suppliers, nil
}

func fptr(v float64) *float64 { return &v }
func sptr(v string) *string   { return &v }

func materialItem(category, description string, qty, rcv float64) entity.InsuranceLineItem {
	return entity.InsuranceLineItem{
		MaterialItem: entity.MaterialItem{
			Category:    category,
			Description: description,
			Quantity:    qty,
			Unit:        "EA",
		},
		RCV: rcv,
	}
}

func pipeFlashingCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: []entity.Product{
			{
				ID:          uuid.New(),
				Name:        "4-inch Pipe Flashing",
				Category:    "pipe_jack",
				Subcategory: sptr("pf14_4"),
				Unit:        "EA",
				Active:      true,
				Prices: []entity.SupplierPrice{
					{Supplier: "beacon", Price: fptr(10), SKU: "BCN-PF4"},
					{Supplier: "abc", Price: fptr(8), SKU: "ABC-PF4"},
				},
			},
		},
		suppliers: []string{"abc", "beacon"},
	}
}

func TestMatchScore(t *testing.T) {
	product := &pipeFlashingCatalog().products[0]

	item := materialItem("pipe_jack", "4 inch pipe jack", 3, 120)
	item.Subcategory = sptr("pf14_4")
	// +2 category, +3 subcategory, +1 for "inch" and +1 for "pipe".
	assert.GreaterOrEqual(t, MatchScore(item, product), 6)

	categoryOnly := materialItem("pipe_jack", "zz qq", 1, 10)
	assert.Equal(t, 2, MatchScore(categoryOnly, product))
}

func TestCalculateEstimate_MatchAcceptAndReject(t *testing.T) {
	calc := NewCalculator(pipeFlashingCatalog(), Config{}, nil)
	orgID := uuid.New()

	matched := materialItem("pipe_jack", "4 inch pipe jack", 3, 120)
	matched.Subcategory = sptr("pf14_4")
	rejected := materialItem("pipe_jack", "zz qq", 1, 100) // score 2 < 3

	result, err := calc.CalculateEstimate(context.Background(), []entity.InsuranceLineItem{matched, rejected}, orgID, Options{})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)

	assert.True(t, result.Items[0].Matched)
	require.NotNil(t, result.Items[0].Supplier)
	assert.False(t, result.Items[1].Matched)
	// Unmatched falls back to 60% of RCV.
	assert.InDelta(t, 60.0, result.Items[1].TotalPrice, 0.001)
}

func TestCalculateEstimate_SupplierSelection(t *testing.T) {
	orgID := uuid.New()
	item := materialItem("pipe_jack", "4 inch pipe jack", 2, 120)
	item.Subcategory = sptr("pf14_4")

	t.Run("lowest picks the cheapest", func(t *testing.T) {
		calc := NewCalculator(pipeFlashingCatalog(), Config{}, nil)
		result, err := calc.CalculateEstimate(context.Background(), []entity.InsuranceLineItem{item}, orgID, Options{})
		require.NoError(t, err)
		require.NotNil(t, result.Items[0].Supplier)
		assert.Equal(t, "abc", *result.Items[0].Supplier)
		assert.InDelta(t, 16.0, result.Items[0].TotalPrice, 0.001)
	})

	t.Run("preferred wins over cheaper", func(t *testing.T) {
		calc := NewCalculator(pipeFlashingCatalog(), Config{}, nil)
		result, err := calc.CalculateEstimate(context.Background(), []entity.InsuranceLineItem{item}, orgID, Options{
			PreferredSupplier: "beacon",
		})
		require.NoError(t, err)
		require.NotNil(t, result.Items[0].Supplier)
		assert.Equal(t, "beacon", *result.Items[0].Supplier)
		assert.InDelta(t, 20.0, result.Items[0].TotalPrice, 0.001)
	})

	t.Run("disabled supplier is ineligible", func(t *testing.T) {
		catalog := pipeFlashingCatalog()
		catalog.suppliers = []string{"beacon"} // abc disabled
		calc := NewCalculator(catalog, Config{}, nil)
		result, err := calc.CalculateEstimate(context.Background(), []entity.InsuranceLineItem{item}, orgID, Options{})
		require.NoError(t, err)
		require.NotNil(t, result.Items[0].Supplier)
		assert.Equal(t, "beacon", *result.Items[0].Supplier)
	})

	t.Run("no eligible supplier leaves item unmatched", func(t *testing.T) {
		catalog := pipeFlashingCatalog()
		catalog.suppliers = nil
		calc := NewCalculator(catalog, Config{}, nil)
		result, err := calc.CalculateEstimate(context.Background(), []entity.InsuranceLineItem{item}, orgID, Options{})
		require.NoError(t, err)
		assert.False(t, result.Items[0].Matched)
		assert.Nil(t, result.Items[0].UnitPrice)
		assert.InDelta(t, 72.0, result.Items[0].TotalPrice, 0.001) // 60% of 120
	})
}

func TestCalculateEstimate_LaborPartition(t *testing.T) {
	calc := NewCalculator(&fakeCatalog{}, Config{}, nil)
	orgID := uuid.New()

	byKeyword := materialItem("shingles", "Remove & replace shingles", 30, 9000)
	byUnit := materialItem("other", "crew time", 16, 1600)
	byUnit.Unit = "HR"
	byCategory := materialItem("labor", "misc work", 1, 400)

	result, err := calc.CalculateEstimate(context.Background(),
		[]entity.InsuranceLineItem{byKeyword, byUnit, byCategory}, orgID, Options{})
	require.NoError(t, err)

	for i, item := range result.Items {
		assert.True(t, item.IsLabor, "item %d should be labor", i)
	}
	// Labor cost backs out the default 35% markup.
	assert.InDelta(t, (9000+1600+400)*0.65, result.LaborCost, 0.001)
	assert.Zero(t, result.MaterialCost)

	labor, ok := result.BySupplier["labor"]
	require.True(t, ok)
	assert.Equal(t, 3, labor.Count)
	assert.Equal(t, "labor", result.PrimarySupplier)
}

func TestCalculateEstimate_Totals(t *testing.T) {
	calc := NewCalculator(pipeFlashingCatalog(), Config{}, nil)
	orgID := uuid.New()

	matched := materialItem("pipe_jack", "4 inch pipe jack", 3, 120)
	matched.Subcategory = sptr("pf14_4")
	labor := materialItem("labor", "tear off", 1, 5000)

	result, err := calc.CalculateEstimate(context.Background(), []entity.InsuranceLineItem{matched, labor}, orgID, Options{})
	require.NoError(t, err)

	assert.InDelta(t, 5120.0, result.TotalRCV, 0.001)
	assert.InDelta(t, 24.0, result.MaterialCost, 0.001) // 3 x $8
	assert.InDelta(t, 3250.0, result.LaborCost, 0.001)  // 5000 x 0.65
	assert.InDelta(t, 5120-24-3250, result.Profit, 0.001)
	assert.InDelta(t, result.Profit/result.TotalRCV, result.Margin, 0.0001)
	assert.Equal(t, "labor", result.PrimarySupplier)
}

func TestCalculateEstimate_EmptyItems(t *testing.T) {
	calc := NewCalculator(&fakeCatalog{}, Config{}, nil)

	result, err := calc.CalculateEstimate(context.Background(), nil, uuid.New(), Options{})
	require.NoError(t, err)
	assert.Zero(t, result.TotalRCV)
	assert.Zero(t, result.Margin)
	assert.Equal(t, "none", result.PrimarySupplier)
}
