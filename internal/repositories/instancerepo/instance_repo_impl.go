package instancerepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
	"github.com/minzf581/IPProxy-sub000/internal/infrastructure/database"
)

type instanceRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) IInstanceRepository {
	return &instanceRepository{
		db:     db.Db,
		logger: logger,
	}
}

func (r *instanceRepository) UpsertByInstanceNo(ctx context.Context, instance *domain.Instance) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO instances (
	id, instance_no, app_order_no, host, port, username, password,
	expire_at, status, ip_allow_list, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (instance_no) DO UPDATE SET
	host = EXCLUDED.host,
	port = EXCLUDED.port,
	username = EXCLUDED.username,
	password = EXCLUDED.password,
	expire_at = EXCLUDED.expire_at,
	status = EXCLUDED.status,
	updated_at = EXCLUDED.updated_at`,
		instance.ID, instance.InstanceNo, instance.AppOrderNo, instance.Host, instance.Port,
		instance.Username, instance.Password, instance.ExpireAt, instance.Status,
		pq.Array(instance.IPAllowList), instance.CreatedAt, instance.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("instance_no", instance.InstanceNo).Msg("Failed to upsert instance")
		return fmt.Errorf("failed to upsert instance: %w", err)
	}
	return nil
}

func (r *instanceRepository) ListByOrderNo(ctx context.Context, appOrderNo string) ([]*domain.Instance, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, instance_no, app_order_no, host, port, username, password,
	expire_at, status, ip_allow_list, created_at, updated_at
FROM instances
WHERE app_order_no = $1
ORDER BY created_at`, appOrderNo)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	defer rows.Close()

	var instances []*domain.Instance
	for rows.Next() {
		var i domain.Instance
		if err := rows.Scan(
			&i.ID, &i.InstanceNo, &i.AppOrderNo, &i.Host, &i.Port, &i.Username, &i.Password,
			&i.ExpireAt, &i.Status, pq.Array(&i.IPAllowList), &i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}
		instances = append(instances, &i)
	}
	return instances, rows.Err()
}

func (r *instanceRepository) UpdateStatusByOrderNo(ctx context.Context, appOrderNo string, status domain.InstanceStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE instances SET status = $2, updated_at = $3 WHERE app_order_no = $1`,
		appOrderNo, status, time.Now(),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("app_order_no", appOrderNo).Msg("Failed to update instance status")
		return fmt.Errorf("failed to update instance status: %w", err)
	}
	return nil
}
