package accountrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
	"github.com/minzf581/IPProxy-sub000/internal/infrastructure/database"
)

type accountRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) IAccountRepository {
	return &accountRepository{
		db:     db.Db,
		logger: logger,
	}
}

const selectAccount = `
SELECT id, username, role, parent_agent_id, balance, created_at, updated_at
FROM accounts
WHERE id = $1`

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var a domain.Account
	var parent sql.NullString

	err := r.db.QueryRowContext(ctx, selectAccount, id).Scan(
		&a.ID, &a.Username, &a.Role, &parent, &a.Balance, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", id, domain.ErrAccountNotFound)
		}
		r.logger.Error().Err(err).Str("account_id", id).Msg("Failed to get account")
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if parent.Valid {
		a.ParentAgentID = &parent.String
	}
	return &a, nil
}

func (r *accountRepository) GetParentAgent(ctx context.Context, id string) (*domain.Account, error) {
	account, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.ParentAgentID == nil {
		return nil, nil
	}
	return r.GetByID(ctx, *account.ParentAgentID)
}
