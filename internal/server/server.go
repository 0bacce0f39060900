package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/minzf581/IPProxy-sub000/internal/application/callbackservice"
	"github.com/minzf581/IPProxy-sub000/internal/application/inventoryservice"
	"github.com/minzf581/IPProxy-sub000/internal/application/orderservice"
	"github.com/minzf581/IPProxy-sub000/internal/server/handlers"
	"github.com/minzf581/IPProxy-sub000/internal/server/middleware"
	"github.com/minzf581/IPProxy-sub000/internal/server/websocket"
	"github.com/minzf581/IPProxy-sub000/pkg/config"
)

type Server struct {
	OrderSvc     orderservice.IOrderService
	CallbackSvc  callbackservice.ICallbackService
	InventorySvc inventoryservice.IInventoryService
	Cfg          *config.Config
	Logger       zerolog.Logger
	Router       *gin.Engine
	httpServer   *http.Server
	WsHub        *websocket.WsHub
}

func New(
	cfg *config.Config,
	orderSvc orderservice.IOrderService,
	callbackSvc callbackservice.ICallbackService,
	inventorySvc inventoryservice.IInventoryService,
	wsHub *websocket.WsHub,
	logger zerolog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	return &Server{
		Cfg:          cfg,
		OrderSvc:     orderSvc,
		CallbackSvc:  callbackSvc,
		InventorySvc: inventorySvc,
		Logger:       logger,
		Router:       gin.New(),
		WsHub:        wsHub,
	}
}

func (s *Server) SetupRouter() {
	middleware.NewMiddleware(s.Logger).SetupMiddleware(s.Router)

	handler := handlers.New(
		s.OrderSvc,
		s.CallbackSvc,
		s.InventorySvc,
		s.WsHub,
		s.Logger,
		s.Cfg,
	)
	handler.SetupHandlers(s.Router)
}

func (s *Server) Start() {
	s.SetupRouter()

	s.httpServer = &http.Server{
		Addr:         s.Cfg.Server.Host + ":" + s.Cfg.Server.Port,
		Handler:      s.Router,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	s.Logger.Info().Msgf("Starting server on %s", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-stopChan
	s.Logger.Info().Msg("Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.Logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	s.Logger.Info().Msg("Server exited gracefully")
}
