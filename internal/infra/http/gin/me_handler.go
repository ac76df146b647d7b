package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"gearshare/internal/app/commands"
	bookingapp "gearshare/internal/app/handlers/booking"
	walletapp "gearshare/internal/app/handlers/wallet"
	"gearshare/internal/app/queries"
)

type MeHTTP interface {
	ListBookings(c *gin.Context)
	Wallet(c *gin.Context)
	ExportStatement(c *gin.Context)
}

type MeHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Currency string
	Logger   *slog.Logger
}

func (h MeHandler) ListBookings(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	query := bookingapp.ListBookingsQuery{UserID: user.ID, Role: c.Query("role")}
	result, err := queries.Ask[bookingapp.ListBookingsQuery, *bookingapp.ListBookingsResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("bookings query failed", "error", err, "user_id", user.ID)
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) Wallet(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	query := walletapp.GetWalletQuery{OwnerID: user.ID, Currency: h.Currency}
	result, err := queries.Ask[walletapp.GetWalletQuery, *walletapp.GetWalletResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("wallet query failed", "error", err, "user_id", user.ID)
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) ExportStatement(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := walletapp.ExportStatementCommand{OwnerID: user.ID, Currency: h.Currency}
	result, err := commands.Dispatch[walletapp.ExportStatementCommand, *walletapp.ExportStatementResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("statement export failed", "error", err, "user_id", user.ID)
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ MeHTTP = (*MeHandler)(nil)
