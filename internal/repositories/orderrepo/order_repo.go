package orderrepo

import (
	"context"
	"encoding/json"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

type IOrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByAppOrderNo(ctx context.Context, appOrderNo string) (*domain.Order, error)
	// UpdateStatus moves an order to the given status; payload, when
	// non-nil, replaces the stored vendor payload in the same statement.
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, remark string, payload json.RawMessage) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
}
