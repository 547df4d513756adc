package pricing

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/roofscope/roofscope/constants"
	"github.com/roofscope/roofscope/internal/entity"
	"github.com/roofscope/roofscope/internal/repository"
)

// PreferLowest selects the cheapest eligible supplier per item.
const PreferLowest = "lowest"

// MatchThreshold is the minimum score for a catalog match to be accepted.
const MatchThreshold = 3

// UnmatchedCostRatio estimates the cost of an unmatched material item as a
// fraction of its RCV.
const UnmatchedCostRatio = 0.60

// Options tune one estimate calculation. Zero values take the documented
// defaults in the constructor-applied config.
type Options struct {
	// PreferredSupplier names a supplier to use when it carries the matched
	// product. Empty or "lowest" means cheapest eligible.
	PreferredSupplier string
	// LaborMarkup backs the assumed cost out of labor RCV. Nil takes the
	// configured default.
	LaborMarkup *float64
	// MaterialMarkup is accepted and stored but not applied in any cost
	// formula. Reserved for a future pricing mode.
	MaterialMarkup *float64
	// Overhead is applied by callers over the final totals, not here.
	Overhead *float64
}

// Calculator prices insurance line items against the product catalog using a
// per-run read-only snapshot of products and enabled suppliers.
type Calculator struct {
	catalog repository.CatalogRepository
	cfg     Config
	logger  *slog.Logger
}

// Config carries the calculator defaults, normally sourced from
// common.PricingConfig.
type Config struct {
	LaborMarkup    float64
	MaterialMarkup float64
	Overhead       float64
}

func NewCalculator(catalog repository.CatalogRepository, cfg Config, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LaborMarkup == 0 {
		cfg.LaborMarkup = 0.35
	}
	if cfg.MaterialMarkup == 0 {
		cfg.MaterialMarkup = 0.25
	}
	if cfg.Overhead == 0 {
		cfg.Overhead = 0.10
	}
	return &Calculator{catalog: catalog, cfg: cfg, logger: logger}
}

// CalculateEstimate prices the given line items for one organization. Pure
// given the catalog/supplier snapshot it fetches up front.
func (c *Calculator) CalculateEstimate(ctx context.Context, lineItems []entity.InsuranceLineItem, orgID uuid.UUID, opts Options) (entity.EstimateResult, error) {
	laborMarkup := c.cfg.LaborMarkup
	if opts.LaborMarkup != nil {
		laborMarkup = *opts.LaborMarkup
	}
	preferred := opts.PreferredSupplier
	if preferred == "" {
		preferred = PreferLowest
	}

	products, err := c.catalog.ListActiveProducts(ctx)
	if err != nil {
		return entity.EstimateResult{}, err
	}
	suppliers, err := c.catalog.ListEnabledSuppliers(ctx, orgID)
	if err != nil {
		return entity.EstimateResult{}, err
	}
	enabled := make(map[string]bool, len(suppliers))
	for _, s := range suppliers {
		enabled[s] = true
	}

	result := entity.EstimateResult{
		Items:      make([]entity.PricedItem, 0, len(lineItems)),
		BySupplier: make(map[string]entity.SupplierTotals),
	}

	for _, item := range lineItems {
		result.TotalRCV += item.RCV
		if IsLaborItem(item) {
			priced := entity.PricedItem{
				InsuranceLineItem: item,
				IsLabor:           true,
				TotalPrice:        item.RCV * (1 - laborMarkup),
			}
			result.LaborCost += priced.TotalPrice
			addSupplierTotal(result.BySupplier, "labor", priced.TotalPrice)
			result.Items = append(result.Items, priced)
			continue
		}

		priced := c.priceMaterial(item, products, enabled, preferred)
		result.MaterialCost += priced.TotalPrice
		if priced.Supplier != nil {
			addSupplierTotal(result.BySupplier, *priced.Supplier, priced.TotalPrice)
		}
		result.Items = append(result.Items, priced)
	}

	result.Profit = result.TotalRCV - (result.MaterialCost + result.LaborCost)
	if result.TotalRCV > 0 {
		result.Margin = result.Profit / result.TotalRCV
	}
	result.PrimarySupplier = primarySupplier(result.BySupplier)

	c.logger.Info("pricing.estimate.calculated",
		"organization_id", orgID,
		"items", len(result.Items),
		"total_rcv", result.TotalRCV,
		"profit", result.Profit,
		"primary_supplier", result.PrimarySupplier,
	)
	return result, nil
}

// IsLaborItem reports whether a line item is labor rather than material.
// Triggered by a description keyword, a labor unit, or the labor category.
func IsLaborItem(item entity.InsuranceLineItem) bool {
	desc := strings.ToLower(item.Description)
	for _, kw := range constants.LaborKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	if constants.IsLaborUnit(item.Unit) {
		return true
	}
	return strings.EqualFold(item.Category, string(constants.CatLabor))
}

func (c *Calculator) priceMaterial(item entity.InsuranceLineItem, products []entity.Product, enabled map[string]bool, preferred string) entity.PricedItem {
	priced := entity.PricedItem{InsuranceLineItem: item}

	product, score := bestMatch(item, products)
	if product == nil || score < MatchThreshold {
		priced.TotalPrice = item.RCV * UnmatchedCostRatio
		return priced
	}

	candidate, ok := selectSupplier(product, enabled, preferred)
	if !ok {
		// Product matched but no enabled supplier stocks it. Treated the same
		// as no match for pricing purposes.
		priced.TotalPrice = item.RCV * UnmatchedCostRatio
		return priced
	}

	priced.Matched = true
	priced.ProductID = &product.ID
	price := *candidate.Price
	priced.UnitPrice = &price
	priced.TotalPrice = price * item.Quantity
	supplier := candidate.Supplier
	priced.Supplier = &supplier
	if candidate.SKU != "" {
		sku := candidate.SKU
		priced.SKU = &sku
	}
	return priced
}

// MatchScore scores a line item against one catalog product: +2 exact
// category, +3 exact subcategory, +1 per description word longer than two
// characters found in the product name, +5 when the manufacturer SKU appears
// verbatim in the description.
func MatchScore(item entity.InsuranceLineItem, p *entity.Product) int {
	score := 0
	if strings.EqualFold(item.Category, p.Category) {
		score += 2
	}
	if item.Subcategory != nil && p.Subcategory != nil && strings.EqualFold(*item.Subcategory, *p.Subcategory) {
		score += 3
	}
	name := strings.ToLower(p.Name)
	for _, word := range strings.Fields(strings.ToLower(item.Description)) {
		if len(word) > 2 && strings.Contains(name, word) {
			score++
		}
	}
	if p.ManufacturerSKU != "" && strings.Contains(item.Description, p.ManufacturerSKU) {
		score += 5
	}
	return score
}

func bestMatch(item entity.InsuranceLineItem, products []entity.Product) (*entity.Product, int) {
	var best *entity.Product
	bestScore := 0
	for i := range products {
		if score := MatchScore(item, &products[i]); score > bestScore {
			best = &products[i]
			bestScore = score
		}
	}
	return best, bestScore
}

func selectSupplier(p *entity.Product, enabled map[string]bool, preferred string) (entity.SupplierPrice, bool) {
	var candidates []entity.SupplierPrice
	for _, sp := range p.Prices {
		if sp.Price != nil && enabled[sp.Supplier] {
			candidates = append(candidates, sp)
		}
	}
	if len(candidates) == 0 {
		return entity.SupplierPrice{}, false
	}
	if preferred != PreferLowest {
		for _, sp := range candidates {
			if strings.EqualFold(sp.Supplier, preferred) {
				return sp, true
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return *candidates[i].Price < *candidates[j].Price
	})
	return candidates[0], true
}

func addSupplierTotal(m map[string]entity.SupplierTotals, supplier string, total float64) {
	t := m[supplier]
	t.Count++
	t.Total += total
	m[supplier] = t
}

func primarySupplier(m map[string]entity.SupplierTotals) string {
	primary := "none"
	best := -1.0
	// Deterministic tie-break on name so repeated runs agree.
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if t := m[name]; t.Total > best {
			primary = name
			best = t.Total
		}
	}
	return primary
}
