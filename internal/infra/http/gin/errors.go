package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"gearshare/internal/app/policies"
	domainbooking "gearshare/internal/domain/booking"
	"gearshare/internal/domain/item"
	"gearshare/internal/domain/shared/daterange"
	domainuser "gearshare/internal/domain/user"
	domainwallet "gearshare/internal/domain/wallet"
)

// writeError maps domain errors onto HTTP statuses. Anything unmapped is a 500
// with a generic body so internals never leak to clients.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domainwallet.ErrNotFound),
		errors.Is(err, domainwallet.ErrTransactionNotFound),
		errors.Is(err, item.ErrNotFound),
		errors.Is(err, domainuser.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, policies.ErrPaymentDeclined):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrDatesUnavailable),
		errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, domainwallet.ErrInvalidState),
		errors.Is(err, domainwallet.ErrAlreadyEscrowed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrStartInPast),
		errors.Is(err, domainbooking.ErrOwnItem),
		errors.Is(err, daterange.ErrEmptyRange),
		errors.Is(err, daterange.ErrZeroDate),
		errors.Is(err, domainwallet.ErrAmountInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
