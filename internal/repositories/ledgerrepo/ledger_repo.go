package ledgerrepo

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

// ILedgerRepository owns the atomic unit of work around balance movement:
// the account balance update and the ledger insert commit together or not
// at all.
type ILedgerRepository interface {
	// Charge decrements the account balance and appends a consume entry
	// carrying the post-charge balance snapshot.
	Charge(ctx context.Context, txnNo, userID, agentID, orderNo string, amount decimal.Decimal, remark string) (*domain.LedgerEntry, error)
	// Refund increments the balance and appends a refund entry.
	Refund(ctx context.Context, txnNo, userID, agentID, orderNo string, amount decimal.Decimal, remark string) (*domain.LedgerEntry, error)
	GetByTxnNo(ctx context.Context, txnNo string) (*domain.LedgerEntry, error)
	ListByOrderNo(ctx context.Context, orderNo string) ([]*domain.LedgerEntry, error)
}
