package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/minzf581/IPProxy-sub000/internal/application/orderservice"
	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

type OrderHandler struct {
	orderSvc orderservice.IOrderService
	logger   zerolog.Logger
}

func NewOrderHandler(orderSvc orderservice.IOrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orderSvc: orderSvc,
		logger:   logger,
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req domain.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orderSvc.CreateOrder(c.Request.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to create order")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrderInfo(c *gin.Context) {
	info, err := h.orderSvc.GetOrderInfo(c.Request.Context(), c.Param("order_no"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
	Remark string             `json:"remark"`
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.orderSvc.UpdateOrderStatus(c.Request.Context(), c.Param("order_no"), req.Status, req.Remark); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *OrderHandler) ReleaseOrder(c *gin.Context) {
	if err := h.orderSvc.ReleaseOrder(c.Request.Context(), c.Param("order_no")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "released"})
}

type drawIPsRequest struct {
	Num      int    `json:"num" binding:"required"`
	Protocol string `json:"protocol"`
}

func (h *OrderHandler) DrawIPs(c *gin.Context) {
	var req drawIPsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.orderSvc.DrawIPs(c.Request.Context(), c.Param("order_no"), req.Num, req.Protocol)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
		return
	}

	orders, err := h.orderSvc.ListOrders(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}
