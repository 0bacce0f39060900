package orderrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sqlc-dev/pqtype"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
	"github.com/minzf581/IPProxy-sub000/internal/infrastructure/database"
)

type orderRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) IOrderRepository {
	return &orderRepository{
		db:     db.Db,
		logger: logger,
	}
}

const (
	insertOrder = `
INSERT INTO orders (
	id, app_order_no, vendor_order_no, user_id, agent_id, variant,
	product_no, pool_no, quantity, traffic_mb, unit_price, total_amount,
	status, vendor_payload, remark, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	selectOrder = `
SELECT id, app_order_no, vendor_order_no, user_id, agent_id, variant,
	product_no, pool_no, quantity, traffic_mb, unit_price, total_amount,
	status, vendor_payload, remark, created_at, updated_at
FROM orders`
)

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	_, err := r.db.ExecContext(ctx, insertOrder,
		order.ID, order.AppOrderNo, order.VendorOrderNo, order.UserID, order.AgentID, order.Variant,
		order.ProductNo, order.PoolNo, order.Quantity, order.TrafficMB, order.UnitPrice, order.TotalAmount,
		order.Status, pqtype.NullRawMessage{RawMessage: order.VendorPayload, Valid: order.VendorPayload != nil},
		order.Remark, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("app_order_no", order.AppOrderNo).Msg("Failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, selectOrder+` WHERE id = $1`, id)
}

func (r *orderRepository) GetByAppOrderNo(ctx context.Context, appOrderNo string) (*domain.Order, error) {
	return r.get(ctx, selectOrder+` WHERE app_order_no = $1`, appOrderNo)
}

func (r *orderRepository) get(ctx context.Context, query, key string) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", key, domain.ErrOrderNotFound)
		}
		r.logger.Error().Err(err).Str("key", key).Msg("Failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, remark string, payload json.RawMessage) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders
SET status = $2,
	remark = CASE WHEN $3 <> '' THEN $3 ELSE remark END,
	vendor_payload = CASE WHEN $4::jsonb IS NOT NULL THEN $4::jsonb ELSE vendor_payload END,
	updated_at = $5
WHERE id = $1`,
		id, status, remark, pqtype.NullRawMessage{RawMessage: payload, Valid: payload != nil}, time.Now(),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id).Str("status", string(status)).Msg("Failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("order %s: %w", id, domain.ErrOrderNotFound)
	}
	return nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, selectOrder+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var payload pqtype.NullRawMessage

	err := row.Scan(
		&o.ID, &o.AppOrderNo, &o.VendorOrderNo, &o.UserID, &o.AgentID, &o.Variant,
		&o.ProductNo, &o.PoolNo, &o.Quantity, &o.TrafficMB, &o.UnitPrice, &o.TotalAmount,
		&o.Status, &payload, &o.Remark, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if payload.Valid {
		o.VendorPayload = payload.RawMessage
	}
	return &o, nil
}
