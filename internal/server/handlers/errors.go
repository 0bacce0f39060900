package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

// writeError is the single place the error taxonomy meets HTTP status
// codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrInstanceNotFound),
		errors.Is(err, domain.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrVendorUnavailable),
		errors.Is(err, domain.ErrVendorRejected),
		errors.Is(err, domain.ErrDecryptFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
