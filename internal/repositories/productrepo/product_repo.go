package productrepo

import (
	"context"
	"time"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

type IProductRepository interface {
	// Upsert writes one vendor catalog entry by product number, refreshing
	// last_sync_time.
	Upsert(ctx context.Context, product *domain.ProductInventory) error
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.ProductInventory, error)
	Count(ctx context.Context) (int, error)
	// LatestSyncTime returns the most recent last_sync_time across the
	// cache, or nil when the cache has never been synced.
	LatestSyncTime(ctx context.Context) (*time.Time, error)
}
