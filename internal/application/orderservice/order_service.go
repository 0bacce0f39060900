package orderservice

import (
	"context"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

// OrderInfo is the collaborator-facing view of one order: the order row
// plus whatever instances the vendor has provisioned for it so far.
type OrderInfo struct {
	Order     *domain.Order      `json:"order"`
	Instances []*domain.Instance `json:"instances"`
}

type IOrderService interface {
	// CreateOrder validates the request, charges the owner, opens the
	// instance at the vendor and persists the order in its initial
	// non-terminal status. A vendor failure after the charge refunds the
	// full amount before the error is surfaced.
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error)
	GetOrderInfo(ctx context.Context, appOrderNo string) (*OrderInfo, error)
	UpdateOrderStatus(ctx context.Context, appOrderNo string, status domain.OrderStatus, remark string) error
	// ReleaseOrder returns the capacity to the vendor, closes the order and
	// disables its instances.
	ReleaseOrder(ctx context.Context, appOrderNo string) error
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	// DrawIPs extracts proxy endpoints out of an active dynamic pool order.
	DrawIPs(ctx context.Context, appOrderNo string, num int, protocol string) (*domain.DrawIPResult, error)
}
