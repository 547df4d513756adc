package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roofscope/roofscope/internal/common"
	"github.com/roofscope/roofscope/internal/entity"
)

// CatalogRepository serves product and supplier data to the pricing
// calculator. The catalog is global; supplier enablement is per organization.
type CatalogRepository interface {
	UpsertProduct(ctx context.Context, p *entity.Product) error
	ListActiveProducts(ctx context.Context) ([]entity.Product, error)
	UpsertSupplierConfig(ctx context.Context, cfg *entity.SupplierConfig) error
	ListEnabledSuppliers(ctx context.Context, orgID uuid.UUID) ([]string, error)
}

type catalogRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewCatalogRepository(db *DB, logger *slog.Logger) CatalogRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &catalogRepo{db: db, logger: logger}
}

func (r *catalogRepo) UpsertProduct(ctx context.Context, p *entity.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.UpdatedAt = time.Now().UTC()
	prices, err := json.Marshal(p.Prices)
	if err != nil {
		return common.WrapError(err, "encode product prices")
	}
	var sub any
	if p.Subcategory != nil {
		sub = *p.Subcategory
	}
	_, err = r.db.ExecContext(ctx, r.db.rebind(
		`INSERT INTO products (id, name, category, subcategory, manufacturer_sku, unit, prices, active, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, category = excluded.category, subcategory = excluded.subcategory,
			manufacturer_sku = excluded.manufacturer_sku, unit = excluded.unit,
			prices = excluded.prices, active = excluded.active, updated_at = excluded.updated_at`),
		p.ID.String(), p.Name, p.Category, sub, p.ManufacturerSKU, p.Unit, string(prices), p.Active, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("catalog.upsert_product.failed", "product_id", p.ID, "error", err)
		return common.WrapError(err, "upsert product")
	}
	return nil
}

func (r *catalogRepo) ListActiveProducts(ctx context.Context) ([]entity.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, category, subcategory, manufacturer_sku, unit, prices, active, updated_at
		 FROM products WHERE active = TRUE ORDER BY category, name`)
	if err != nil {
		return nil, common.WrapError(err, "list products")
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		var (
			p      entity.Product
			idStr  string
			sub    sql.NullString
			sku    sql.NullString
			prices sql.NullString
		)
		if err := rows.Scan(&idStr, &p.Name, &p.Category, &sub, &sku, &p.Unit, &prices, &p.Active, &p.UpdatedAt); err != nil {
			return nil, common.WrapError(err, "scan product")
		}
		if p.ID, err = uuid.Parse(idStr); err != nil {
			return nil, err
		}
		if sub.Valid {
			p.Subcategory = &sub.String
		}
		if sku.Valid {
			p.ManufacturerSKU = sku.String
		}
		if prices.Valid && prices.String != "" {
			if err := json.Unmarshal([]byte(prices.String), &p.Prices); err != nil {
				return nil, common.WrapError(err, "decode product prices")
			}
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *catalogRepo) UpsertSupplierConfig(ctx context.Context, cfg *entity.SupplierConfig) error {
	var acct any
	if cfg.AccountNumber != nil {
		acct = *cfg.AccountNumber
	}
	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`INSERT INTO supplier_configs (organization_id, supplier, enabled, account_number)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (organization_id, supplier) DO UPDATE SET
			enabled = excluded.enabled, account_number = excluded.account_number`),
		cfg.OrganizationID.String(), cfg.Supplier, cfg.Enabled, acct,
	)
	if err != nil {
		r.logger.Error("catalog.upsert_supplier.failed", "supplier", cfg.Supplier, "error", err)
		return common.WrapError(err, "upsert supplier config")
	}
	return nil
}

func (r *catalogRepo) ListEnabledSuppliers(ctx context.Context, orgID uuid.UUID) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, r.db.rebind(
		`SELECT supplier FROM supplier_configs WHERE organization_id = ? AND enabled = TRUE ORDER BY supplier`),
		orgID.String(),
	)
	if err != nil {
		return nil, common.WrapError(err, "list suppliers")
	}
	defer rows.Close()

	var suppliers []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, common.WrapError(err, "scan supplier")
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}
