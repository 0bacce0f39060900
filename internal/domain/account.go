package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountRole string

const (
	AccountRoleUser  AccountRole = "user"
	AccountRoleAgent AccountRole = "agent"
)

// Account is a billable party. Agents and users live in the same table but
// the relationship is an explicit parent id, resolved by lookup; an account
// with a nil ParentAgentID is a top-level agent.
type Account struct {
	ID            string          `json:"id" db:"id"`
	Username      string          `json:"username" db:"username"`
	Role          AccountRole     `json:"role" db:"role"`
	ParentAgentID *string         `json:"parent_agent_id" db:"parent_agent_id"`
	Balance       decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}
