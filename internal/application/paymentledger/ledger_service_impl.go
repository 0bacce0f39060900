package paymentledger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
	"github.com/minzf581/IPProxy-sub000/internal/repositories/ledgerrepo"
	"github.com/minzf581/IPProxy-sub000/pkg/orderno"
)

type ledgerService struct {
	ledgerRepo ledgerrepo.ILedgerRepository
	logger     zerolog.Logger
}

func New(ledgerRepo ledgerrepo.ILedgerRepository, logger zerolog.Logger) ILedgerService {
	return &ledgerService{
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

func (s *ledgerService) Charge(ctx context.Context, userID, agentID, orderNo string, amount decimal.Decimal) (*domain.LedgerEntry, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("charge amount %s is negative: %w", amount, domain.ErrValidation)
	}

	entry, err := s.ledgerRepo.Charge(ctx, orderno.NewTxnNo(), userID, agentID, orderNo, amount, "order charge")
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("txn_no", entry.TxnNo).
		Str("user_id", userID).
		Str("order_no", orderNo).
		Str("amount", amount.String()).
		Str("balance", entry.Balance.String()).
		Msg("Charged account for order")
	return entry, nil
}

func (s *ledgerService) Refund(ctx context.Context, userID, agentID, orderNo string, amount decimal.Decimal, remark string) (*domain.LedgerEntry, error) {
	entry, err := s.ledgerRepo.Refund(ctx, orderno.NewTxnNo(), userID, agentID, orderNo, amount, remark)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("txn_no", entry.TxnNo).
		Str("user_id", userID).
		Str("order_no", orderNo).
		Str("amount", amount.String()).
		Str("balance", entry.Balance.String()).
		Str("remark", remark).
		Msg("Refunded account for order")
	return entry, nil
}

func (s *ledgerService) ListByOrderNo(ctx context.Context, orderNo string) ([]*domain.LedgerEntry, error) {
	return s.ledgerRepo.ListByOrderNo(ctx, orderNo)
}
