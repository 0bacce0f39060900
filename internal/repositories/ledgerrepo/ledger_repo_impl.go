package ledgerrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
	"github.com/minzf581/IPProxy-sub000/internal/infrastructure/database"
)

type ledgerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) ILedgerRepository {
	return &ledgerRepository{
		db:     db.Db,
		logger: logger,
	}
}

const (
	lockBalance = `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`

	updateBalance = `UPDATE accounts SET balance = $2, updated_at = $3 WHERE id = $1`

	insertEntry = `
INSERT INTO transactions (id, txn_no, user_id, agent_id, order_no, amount, balance, type, status, remark, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	selectEntry = `
SELECT id, txn_no, user_id, agent_id, order_no, amount, balance, type, status, remark, created_at
FROM transactions`
)

func (r *ledgerRepository) Charge(ctx context.Context, txnNo, userID, agentID, orderNo string, amount decimal.Decimal, remark string) (*domain.LedgerEntry, error) {
	return r.apply(ctx, txnNo, userID, agentID, orderNo, amount, remark, domain.LedgerEntryTypeConsume)
}

func (r *ledgerRepository) Refund(ctx context.Context, txnNo, userID, agentID, orderNo string, amount decimal.Decimal, remark string) (*domain.LedgerEntry, error) {
	return r.apply(ctx, txnNo, userID, agentID, orderNo, amount, remark, domain.LedgerEntryTypeRefund)
}

// apply runs one balance movement inside a single transaction so no caller
// ever observes the balance changed without the ledger row, or vice versa.
func (r *ledgerRepository) apply(ctx context.Context, txnNo, userID, agentID, orderNo string, amount decimal.Decimal, remark string, entryType domain.LedgerEntryType) (*domain.LedgerEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var balance decimal.Decimal
	if err := tx.QueryRowContext(ctx, lockBalance, userID).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", userID, domain.ErrAccountNotFound)
		}
		r.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to lock account balance")
		return nil, fmt.Errorf("failed to lock account balance: %w", err)
	}

	var newBalance decimal.Decimal
	switch entryType {
	case domain.LedgerEntryTypeRefund:
		newBalance = balance.Add(amount)
	default:
		if balance.LessThan(amount) {
			return nil, fmt.Errorf("balance %s < amount %s: %w", balance, amount, domain.ErrInsufficientBalance)
		}
		newBalance = balance.Sub(amount)
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, updateBalance, userID, newBalance, now); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to update account balance")
		return nil, fmt.Errorf("failed to update account balance: %w", err)
	}

	entry := &domain.LedgerEntry{
		ID:        uuid.NewString(),
		TxnNo:     txnNo,
		UserID:    userID,
		AgentID:   agentID,
		OrderNo:   orderNo,
		Amount:    amount,
		Balance:   newBalance,
		Type:      entryType,
		Status:    domain.LedgerEntryStatusCompleted,
		Remark:    remark,
		CreatedAt: now,
	}

	if _, err := tx.ExecContext(ctx, insertEntry,
		entry.ID, entry.TxnNo, entry.UserID, entry.AgentID, entry.OrderNo,
		entry.Amount, entry.Balance, entry.Type, entry.Status, entry.Remark, entry.CreatedAt,
	); err != nil {
		r.logger.Error().Err(err).Str("txn_no", txnNo).Msg("Failed to insert ledger entry")
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ledger entry: %w", err)
	}
	return entry, nil
}

func (r *ledgerRepository) GetByTxnNo(ctx context.Context, txnNo string) (*domain.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx, selectEntry+` WHERE txn_no = $1`, txnNo)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return entry, nil
}

func (r *ledgerRepository) ListByOrderNo(ctx context.Context, orderNo string) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, selectEntry+` WHERE order_no = $1 ORDER BY created_at`, orderNo)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := row.Scan(
		&e.ID, &e.TxnNo, &e.UserID, &e.AgentID, &e.OrderNo,
		&e.Amount, &e.Balance, &e.Type, &e.Status, &e.Remark, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
