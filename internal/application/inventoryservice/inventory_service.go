package inventoryservice

import (
	"context"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

type IInventoryService interface {
	// ShouldSync reports whether the local cache needs a first fill: no
	// persisted sync timestamp, or an empty cache.
	ShouldSync(ctx context.Context) (bool, error)
	// Sync pulls the vendor catalog for every tracked proxy type and merges
	// it into the cache. Single-flight: a concurrent caller shares the
	// in-flight run's result. Throttled to the configured minimum interval.
	// Returns true iff at least one product was upserted.
	Sync(ctx context.Context) (bool, error)
	GetProductInventory(ctx context.Context, filter domain.ProductFilter) ([]*domain.ProductInventory, error)
	// Run periodically triggers Sync until the context is cancelled.
	Run(ctx context.Context) error
}
