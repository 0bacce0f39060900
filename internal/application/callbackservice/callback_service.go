package callbackservice

import (
	"context"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

// StatusNotifier pushes order state changes to live subscribers (the
// websocket hub in production, a recorder in tests).
type StatusNotifier interface {
	NotifyOrder(event domain.OrderEvent)
}

type ICallbackService interface {
	// Handle processes one vendor completion notification for the order with
	// the given internal id. Safe under at-least-once delivery: replaying a
	// notification for an already-terminal order is a no-op success.
	Handle(ctx context.Context, orderID string, cb domain.OrderCallback) error
	// Simulate builds and applies a synthetic callback, used in sandbox mode
	// where the vendor never calls back.
	Simulate(ctx context.Context, orderID, status string) error
}
