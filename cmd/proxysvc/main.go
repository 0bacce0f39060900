package main

import (
	"context"

	"github.com/minzf581/IPProxy-sub000/internal/application/callbackservice"
	"github.com/minzf581/IPProxy-sub000/internal/application/inventoryservice"
	"github.com/minzf581/IPProxy-sub000/internal/application/orderservice"
	"github.com/minzf581/IPProxy-sub000/internal/application/paymentledger"
	"github.com/minzf581/IPProxy-sub000/internal/infrastructure/crypto"
	"github.com/minzf581/IPProxy-sub000/internal/infrastructure/database"
	"github.com/minzf581/IPProxy-sub000/internal/infrastructure/vendor"
	"github.com/minzf581/IPProxy-sub000/internal/repositories/accountrepo"
	"github.com/minzf581/IPProxy-sub000/internal/repositories/instancerepo"
	"github.com/minzf581/IPProxy-sub000/internal/repositories/ledgerrepo"
	"github.com/minzf581/IPProxy-sub000/internal/repositories/orderrepo"
	"github.com/minzf581/IPProxy-sub000/internal/repositories/productrepo"
	"github.com/minzf581/IPProxy-sub000/internal/server"
	"github.com/minzf581/IPProxy-sub000/internal/server/websocket"
	"github.com/minzf581/IPProxy-sub000/pkg/config"
	"github.com/minzf581/IPProxy-sub000/pkg/logger"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithConfig(logger.Config(cfg.Logger))

	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.ShutDown()

	codec, err := crypto.NewCodec(cfg.Vendor.AppKey, cfg.Vendor.AppSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init vendor codec")
	}
	vendorClient := vendor.New(cfg.Vendor, codec, log)

	orderRepo := orderrepo.New(db, log)
	instanceRepo := instancerepo.New(db, log)
	accountRepo := accountrepo.New(db, log)
	ledgerRepo := ledgerrepo.New(db, log)
	productRepo := productrepo.New(db, log)

	wsHub := websocket.NewWsHub(log)
	go wsHub.Run()

	ledgerSvc := paymentledger.New(ledgerRepo, log)
	orderSvc := orderservice.New(orderRepo, instanceRepo, accountRepo, ledgerSvc, vendorClient, cfg.Vendor, log)
	callbackSvc := callbackservice.New(orderRepo, instanceRepo, wsHub, log)

	clock := inventoryservice.NewClock()
	limiter := inventoryservice.NewRateLimiter(cfg.Inventory.MinInterval, clock)
	inventorySvc := inventoryservice.New(productRepo, vendorClient, cfg.Inventory, limiter, clock, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if ok, err := inventorySvc.ShouldSync(ctx); err == nil && ok {
			if _, err := inventorySvc.Sync(ctx); err != nil {
				log.Error().Err(err).Msg("Initial inventory sync failed")
			}
		}
		_ = inventorySvc.Run(ctx)
	}()

	srv := server.New(cfg, orderSvc, callbackSvc, inventorySvc, wsHub, log)
	srv.Start()
}
