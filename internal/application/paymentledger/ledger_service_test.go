package paymentledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

// fakeLedgerRepo applies movements against a single in-memory balance with
// the same semantics as the SQL implementation.
type fakeLedgerRepo struct {
	balances map[string]decimal.Decimal
	entries  []*domain.LedgerEntry
}

func newFakeLedgerRepo(userID string, balance decimal.Decimal) *fakeLedgerRepo {
	return &fakeLedgerRepo{balances: map[string]decimal.Decimal{userID: balance}}
}

func (r *fakeLedgerRepo) apply(txnNo, userID, agentID, orderNo string, delta decimal.Decimal, entryType domain.LedgerEntryType, remark string) (*domain.LedgerEntry, error) {
	balance, ok := r.balances[userID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	next := balance.Add(delta)
	if next.IsNegative() {
		return nil, fmt.Errorf("balance %s cannot cover %s: %w", balance, delta.Neg(), domain.ErrInsufficientBalance)
	}
	r.balances[userID] = next

	entry := &domain.LedgerEntry{
		ID:        uuid.NewString(),
		TxnNo:     txnNo,
		UserID:    userID,
		AgentID:   agentID,
		OrderNo:   orderNo,
		Amount:    delta.Abs(),
		Balance:   next,
		Type:      entryType,
		Status:    domain.LedgerEntryStatusCompleted,
		Remark:    remark,
		CreatedAt: time.Now(),
	}
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *fakeLedgerRepo) Charge(ctx context.Context, txnNo, userID, agentID, orderNo string, amount decimal.Decimal, remark string) (*domain.LedgerEntry, error) {
	return r.apply(txnNo, userID, agentID, orderNo, amount.Neg(), domain.LedgerEntryTypeConsume, remark)
}

func (r *fakeLedgerRepo) Refund(ctx context.Context, txnNo, userID, agentID, orderNo string, amount decimal.Decimal, remark string) (*domain.LedgerEntry, error) {
	return r.apply(txnNo, userID, agentID, orderNo, amount, domain.LedgerEntryTypeRefund, remark)
}

func (r *fakeLedgerRepo) GetByTxnNo(ctx context.Context, txnNo string) (*domain.LedgerEntry, error) {
	for _, e := range r.entries {
		if e.TxnNo == txnNo {
			return e, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *fakeLedgerRepo) ListByOrderNo(ctx context.Context, orderNo string) ([]*domain.LedgerEntry, error) {
	var out []*domain.LedgerEntry
	for _, e := range r.entries {
		if e.OrderNo == orderNo {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestChargeAndRefundBalanceInvariant(t *testing.T) {
	repo := newFakeLedgerRepo("u-1", decimal.NewFromInt(1000))
	svc := New(repo, zerolog.Nop())
	ctx := context.Background()

	charges := []int64{100, 250, 40}
	for i, amount := range charges {
		entry, err := svc.Charge(ctx, "u-1", "a-1", fmt.Sprintf("ORD-%d", i), decimal.NewFromInt(amount))
		if err != nil {
			t.Fatalf("Charge %d: %v", i, err)
		}
		if entry.Type != domain.LedgerEntryTypeConsume {
			t.Fatalf("charge entry type = %s", entry.Type)
		}
		if entry.TxnNo == "" {
			t.Fatal("charge entry missing txn number")
		}
	}

	refund, err := svc.Refund(ctx, "u-1", "a-1", "ORD-1", decimal.NewFromInt(250), "order creation failed")
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if refund.Type != domain.LedgerEntryTypeRefund || refund.Remark != "order creation failed" {
		t.Fatalf("refund entry = %+v", refund)
	}

	// initial - charges + refunds
	want := decimal.NewFromInt(1000 - 100 - 250 - 40 + 250)
	if got := repo.balances["u-1"]; !got.Equal(want) {
		t.Fatalf("balance = %s, want %s", got, want)
	}

	// The latest entry's snapshot equals the current balance.
	last := repo.entries[len(repo.entries)-1]
	if !last.Balance.Equal(repo.balances["u-1"]) {
		t.Fatalf("latest snapshot %s != balance %s", last.Balance, repo.balances["u-1"])
	}
}

func TestChargeRejectsNegativeAmount(t *testing.T) {
	repo := newFakeLedgerRepo("u-1", decimal.NewFromInt(100))
	svc := New(repo, zerolog.Nop())

	_, err := svc.Charge(context.Background(), "u-1", "a-1", "ORD-1", decimal.NewFromInt(-5))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	if len(repo.entries) != 0 {
		t.Fatal("rejected charge must not record an entry")
	}
}

func TestChargeInsufficientBalance(t *testing.T) {
	repo := newFakeLedgerRepo("u-1", decimal.NewFromInt(30))
	svc := New(repo, zerolog.Nop())

	_, err := svc.Charge(context.Background(), "u-1", "a-1", "ORD-1", decimal.NewFromInt(31))
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("got %v, want ErrInsufficientBalance", err)
	}
	if got := repo.balances["u-1"]; !got.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("balance moved to %s on failed charge", got)
	}
}

func TestChargeUnknownAccount(t *testing.T) {
	repo := newFakeLedgerRepo("u-1", decimal.NewFromInt(30))
	svc := New(repo, zerolog.Nop())

	_, err := svc.Charge(context.Background(), "nobody", "a-1", "ORD-1", decimal.NewFromInt(1))
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("got %v, want ErrAccountNotFound", err)
	}
}

func TestListByOrderNo(t *testing.T) {
	repo := newFakeLedgerRepo("u-1", decimal.NewFromInt(1000))
	svc := New(repo, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Charge(ctx, "u-1", "a-1", "ORD-1", decimal.NewFromInt(100)); err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if _, err := svc.Refund(ctx, "u-1", "a-1", "ORD-1", decimal.NewFromInt(100), "order creation failed"); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if _, err := svc.Charge(ctx, "u-1", "a-1", "ORD-2", decimal.NewFromInt(50)); err != nil {
		t.Fatalf("Charge: %v", err)
	}

	entries, err := svc.ListByOrderNo(ctx, "ORD-1")
	if err != nil {
		t.Fatalf("ListByOrderNo: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries for ORD-1, want 2", len(entries))
	}
}
