package accountrepo

import (
	"context"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

type IAccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetParentAgent resolves the billing agent for an account via its
	// explicit parent_agent_id; nil when the account is a top-level agent.
	GetParentAgent(ctx context.Context, id string) (*domain.Account, error)
}
