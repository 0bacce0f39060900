package productrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
	"github.com/minzf581/IPProxy-sub000/internal/infrastructure/database"
)

type productRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) IProductRepository {
	return &productRepository{
		db:     db.Db,
		logger: logger,
	}
}

func (r *productRepository) Upsert(ctx context.Context, product *domain.ProductInventory) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO product_inventory (
	id, product_no, proxy_type, region, country_code, city_code,
	cost_price, global_price, min_agent_price, stock, enabled,
	last_sync_time, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (product_no) DO UPDATE SET
	proxy_type = EXCLUDED.proxy_type,
	region = EXCLUDED.region,
	country_code = EXCLUDED.country_code,
	city_code = EXCLUDED.city_code,
	cost_price = EXCLUDED.cost_price,
	global_price = EXCLUDED.global_price,
	min_agent_price = EXCLUDED.min_agent_price,
	stock = EXCLUDED.stock,
	enabled = EXCLUDED.enabled,
	last_sync_time = EXCLUDED.last_sync_time,
	updated_at = EXCLUDED.updated_at`,
		product.ID, product.ProductNo, product.ProxyType, product.Region, product.CountryCode, product.CityCode,
		product.CostPrice, product.GlobalPrice, product.MinAgentPrice, product.Stock, product.Enabled,
		product.LastSyncTime, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_no", product.ProductNo).Msg("Failed to upsert product")
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.ProductInventory, error) {
	query := `
SELECT id, product_no, proxy_type, region, country_code, city_code,
	cost_price, global_price, min_agent_price, stock, enabled,
	last_sync_time, created_at, updated_at
FROM product_inventory
WHERE 1=1`
	var args []any

	if filter.ProxyType != nil {
		args = append(args, *filter.ProxyType)
		query += fmt.Sprintf(" AND proxy_type = $%d", len(args))
	}
	if filter.CountryCode != "" {
		args = append(args, filter.CountryCode)
		query += fmt.Sprintf(" AND country_code = $%d", len(args))
	}
	if filter.EnabledOnly {
		query += " AND enabled = true"
	}
	query += " ORDER BY product_no"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*domain.ProductInventory
	for rows.Next() {
		var p domain.ProductInventory
		if err := rows.Scan(
			&p.ID, &p.ProductNo, &p.ProxyType, &p.Region, &p.CountryCode, &p.CityCode,
			&p.CostPrice, &p.GlobalPrice, &p.MinAgentPrice, &p.Stock, &p.Enabled,
			&p.LastSyncTime, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

func (r *productRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM product_inventory`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

func (r *productRepository) LatestSyncTime(ctx context.Context) (*time.Time, error) {
	var t sql.NullTime
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(last_sync_time) FROM product_inventory`).Scan(&t); err != nil {
		return nil, fmt.Errorf("failed to read latest sync time: %w", err)
	}
	if !t.Valid {
		return nil, nil
	}
	return &t.Time, nil
}
