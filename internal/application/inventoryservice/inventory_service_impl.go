package inventoryservice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
	"github.com/minzf581/IPProxy-sub000/internal/infrastructure/vendor"
	"github.com/minzf581/IPProxy-sub000/internal/repositories/productrepo"
	"github.com/minzf581/IPProxy-sub000/pkg/config"
)

const syncKey = "product-sync"

type inventoryService struct {
	productRepo  productrepo.IProductRepository
	vendorClient vendor.IVendorClient
	cfg          config.InventoryConfig
	limiter      *RateLimiter
	clock        Clock
	group        singleflight.Group
	logger       zerolog.Logger
}

func New(
	productRepo productrepo.IProductRepository,
	vendorClient vendor.IVendorClient,
	cfg config.InventoryConfig,
	limiter *RateLimiter,
	clock Clock,
	logger zerolog.Logger,
) IInventoryService {
	return &inventoryService{
		productRepo:  productRepo,
		vendorClient: vendorClient,
		cfg:          cfg,
		limiter:      limiter,
		clock:        clock,
		logger:       logger,
	}
}

func (s *inventoryService) ShouldSync(ctx context.Context) (bool, error) {
	last, err := s.productRepo.LatestSyncTime(ctx)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}
	count, err := s.productRepo.Count(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (s *inventoryService) Sync(ctx context.Context) (bool, error) {
	// One sync at a time; concurrent callers ride along on the in-flight
	// run instead of starting a second vendor-call storm.
	result, err, _ := s.group.Do(syncKey, func() (any, error) {
		return s.doSync(ctx)
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (s *inventoryService) doSync(ctx context.Context) (bool, error) {
	persisted, err := s.productRepo.LatestSyncTime(ctx)
	if err != nil {
		return false, err
	}
	if !s.limiter.Allow(persisted) {
		s.logger.Debug().Msg("Inventory sync throttled")
		return false, nil
	}

	now := s.clock.Now()
	upserted := 0

	for _, proxyType := range s.cfg.ProxyTypes {
		stock, err := s.vendorClient.QueryProductStock(ctx, domain.StockQueryParams{ProxyType: proxyType})
		if err != nil {
			// Partial failure: skip this type, keep syncing the rest.
			s.logger.Warn().Err(err).Int("proxy_type", proxyType).Msg("Stock query failed, skipping proxy type")
			continue
		}
		if stock.Empty {
			s.logger.Info().Int("proxy_type", proxyType).Msg("Vendor returned no stock for proxy type")
			continue
		}

		for _, p := range stock.Products {
			product := &domain.ProductInventory{
				ID:            uuid.NewString(),
				ProductNo:     p.ProductNo,
				ProxyType:     p.ProxyType,
				Region:        p.Region,
				CountryCode:   p.CountryCode,
				CityCode:      p.CityCode,
				CostPrice:     p.CostPrice,
				GlobalPrice:   p.GlobalPrice,
				MinAgentPrice: p.MinAgentPrice,
				Stock:         p.Inventory,
				Enabled:       p.Enable == 1,
				LastSyncTime:  now,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := s.productRepo.Upsert(ctx, product); err != nil {
				s.logger.Error().Err(err).Str("product_no", p.ProductNo).Msg("Failed to upsert product")
				continue
			}
			upserted++
		}
	}

	s.logger.Info().Int("upserted", upserted).Int("proxy_types", len(s.cfg.ProxyTypes)).Msg("Inventory sync finished")
	return upserted > 0, nil
}

func (s *inventoryService) GetProductInventory(ctx context.Context, filter domain.ProductFilter) ([]*domain.ProductInventory, error) {
	return s.productRepo.List(ctx, filter)
}

func (s *inventoryService) Run(ctx context.Context) error {
	interval := s.cfg.PollInterval
	if interval == 0 {
		interval = s.cfg.MinInterval
	}

	s.logger.Info().Dur("interval", interval).Msg("Starting inventory sync loop")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Inventory sync loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Scheduled inventory sync failed")
			}
		}
	}
}
