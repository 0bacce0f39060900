package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/minzf581/IPProxy-sub000/internal/application/callbackservice"
	"github.com/minzf581/IPProxy-sub000/internal/application/inventoryservice"
	"github.com/minzf581/IPProxy-sub000/internal/application/orderservice"
	"github.com/minzf581/IPProxy-sub000/internal/server/websocket"
	"github.com/minzf581/IPProxy-sub000/pkg/config"
)

type Handlers struct {
	OrderSvc     orderservice.IOrderService
	CallbackSvc  callbackservice.ICallbackService
	InventorySvc inventoryservice.IInventoryService
	WsHub        *websocket.WsHub
	Logger       zerolog.Logger
	Config       *config.Config
}

func New(
	orderSvc orderservice.IOrderService,
	callbackSvc callbackservice.ICallbackService,
	inventorySvc inventoryservice.IInventoryService,
	wsHub *websocket.WsHub,
	logger zerolog.Logger,
	config *config.Config,
) *Handlers {
	return &Handlers{
		OrderSvc:     orderSvc,
		CallbackSvc:  callbackSvc,
		InventorySvc: inventorySvc,
		WsHub:        wsHub,
		Logger:       logger,
		Config:       config,
	}
}

func (h *Handlers) SetupHandlers(router *gin.Engine) {
	orderHandler := NewOrderHandler(h.OrderSvc, h.Logger)
	callbackHandler := NewCallbackHandler(h.CallbackSvc, h.Config.Vendor.Sandbox, h.Logger)
	productHandler := NewProductHandler(h.InventorySvc, h.Logger)
	wsHandler := NewWebSocketHandler(h.WsHub, h.Config.WebSocket, h.Logger)
	healthHandler := NewHealthHandler()

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// Vendor-initiated completion notifications, keyed by internal order id.
	router.POST("/callback/order/:id", callbackHandler.HandleOrderCallback)

	router.GET("/status", wsHandler.HandleConnection)

	v1 := router.Group("/v1")
	{
		orders := v1.Group("/orders")
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:order_no", orderHandler.GetOrderInfo)
			orders.PUT("/:order_no/status", orderHandler.UpdateOrderStatus)
			orders.DELETE("/:order_no", orderHandler.ReleaseOrder)
			orders.POST("/:order_no/draw", orderHandler.DrawIPs)
		}

		products := v1.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.POST("/sync", productHandler.SyncProducts)
		}
	}
}
