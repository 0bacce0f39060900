package paymentledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

// ILedgerService moves funds for orders. Charge/refund pairs are the
// compensation mechanism the order orchestrator relies on: any failure
// after a successful charge must be undone by an equal refund before the
// caller observes the error.
type ILedgerService interface {
	Charge(ctx context.Context, userID, agentID, orderNo string, amount decimal.Decimal) (*domain.LedgerEntry, error)
	Refund(ctx context.Context, userID, agentID, orderNo string, amount decimal.Decimal, remark string) (*domain.LedgerEntry, error)
	ListByOrderNo(ctx context.Context, orderNo string) ([]*domain.LedgerEntry, error)
}
