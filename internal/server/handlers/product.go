package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/minzf581/IPProxy-sub000/internal/application/inventoryservice"
	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

type ProductHandler struct {
	inventorySvc inventoryservice.IInventoryService
	logger       zerolog.Logger
}

func NewProductHandler(inventorySvc inventoryservice.IInventoryService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		inventorySvc: inventorySvc,
		logger:       logger,
	}
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	filter := domain.ProductFilter{
		CountryCode: c.Query("country_code"),
		EnabledOnly: c.Query("enabled") == "true",
	}
	if v := c.Query("proxy_type"); v != "" {
		proxyType, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "proxy_type must be an integer"})
			return
		}
		filter.ProxyType = &proxyType
	}

	products, err := h.inventorySvc.GetProductInventory(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) SyncProducts(c *gin.Context) {
	updated, err := h.inventorySvc.Sync(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Manual inventory sync failed")
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
