package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LedgerEntryType string

const (
	LedgerEntryTypeReserve LedgerEntryType = "reserve"
	LedgerEntryTypeConsume LedgerEntryType = "consume"
	LedgerEntryTypeRefund  LedgerEntryType = "refund"
)

type LedgerEntryStatus string

const (
	LedgerEntryStatusCompleted LedgerEntryStatus = "completed"
	LedgerEntryStatusReversed  LedgerEntryStatus = "reversed"
)

// LedgerEntry is an immutable, append-only record of one balance movement.
// Balance carries the account balance after the movement was applied; the
// latest entry's snapshot always equals the account's current balance.
type LedgerEntry struct {
	ID        string            `json:"id" db:"id"`
	TxnNo     string            `json:"txn_no" db:"txn_no"`
	UserID    string            `json:"user_id" db:"user_id"`
	AgentID   string            `json:"agent_id" db:"agent_id"`
	OrderNo   string            `json:"order_no" db:"order_no"`
	Amount    decimal.Decimal   `json:"amount" db:"amount"`
	Balance   decimal.Decimal   `json:"balance" db:"balance"`
	Type      LedgerEntryType   `json:"type" db:"type"`
	Status    LedgerEntryStatus `json:"status" db:"status"`
	Remark    string            `json:"remark" db:"remark"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}
