package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/minzf581/IPProxy-sub000/internal/application/callbackservice"
	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

type CallbackHandler struct {
	callbackSvc callbackservice.ICallbackService
	sandbox     bool
	logger      zerolog.Logger
}

func NewCallbackHandler(callbackSvc callbackservice.ICallbackService, sandbox bool, logger zerolog.Logger) *CallbackHandler {
	return &CallbackHandler{
		callbackSvc: callbackSvc,
		sandbox:     sandbox,
		logger:      logger,
	}
}

// HandleOrderCallback accepts the vendor's completion notification. In
// sandbox mode a `simulate=<status>` query triggers the self-simulated
// variant instead of reading a body.
func (h *CallbackHandler) HandleOrderCallback(c *gin.Context) {
	orderID := c.Param("id")

	if h.sandbox {
		if status := c.Query("simulate"); status != "" {
			if err := h.callbackSvc.Simulate(c.Request.Context(), orderID, status); err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "simulated"})
			return
		}
	}

	var cb domain.OrderCallback
	if err := c.ShouldBindJSON(&cb); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.callbackSvc.Handle(c.Request.Context(), orderID, cb); err != nil {
		h.logger.Error().Err(err).Str("order_id", orderID).Msg("Callback handling failed")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
