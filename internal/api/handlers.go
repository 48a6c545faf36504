package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"coin-heist/internal/middleware"
	"coin-heist/internal/service"
	"coin-heist/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Economy service.EconomyService
	Logger  pkg.Logger
}

func (h *Handlers) GetBalance(c *gin.Context) {
	target := c.Query("user")
	if target == "" {
		target = callerID(c)
	}
	balance, err := h.Economy.GetBalance(c.Request.Context(), target)
	if err != nil {
		h.fail(c, "balance", err)
		return
	}
	c.JSON(http.StatusOK, BalanceResponse{User: target, Balance: balance})
}

func (h *Handlers) GetInfo(c *gin.Context) {
	info, err := h.Economy.Info(c.Request.Context(), callerID(c))
	if err != nil {
		h.fail(c, "info", err)
		return
	}
	c.JSON(http.StatusOK, InfoResponse{
		User:              info.UserID,
		Balance:           info.Balance,
		Inventory:         info.Inventory,
		JailUntil:         info.JailUntil,
		LastSteal:         info.LastSteal,
		JailSeconds:       int64(info.JailRemaining.Seconds()),
		CooldownSeconds:   int64(info.CooldownRemaining.Seconds()),
		RecentTransaction: info.History,
	})
}

func (h *Handlers) PostGive(c *gin.Context) {
	var req GiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	res, err := h.Economy.Transfer(c.Request.Context(), callerID(c), req.ToUser, req.Amount)
	if err != nil {
		h.fail(c, "give", err)
		return
	}
	c.JSON(http.StatusOK, GiveResponse(res))
}

func (h *Handlers) PostBuy(c *gin.Context) {
	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	quantity := int64(1)
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	res, err := h.Economy.Purchase(c.Request.Context(), callerID(c), req.Item, quantity)
	if err != nil {
		h.fail(c, "buy", err)
		return
	}
	c.JSON(http.StatusOK, BuyResponse(res))
}

func (h *Handlers) PostSteal(c *gin.Context) {
	var req StealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	res, err := h.Economy.Steal(c.Request.Context(), callerID(c), req.Victim)
	if err != nil {
		h.fail(c, "steal", err)
		return
	}
	c.JSON(http.StatusOK, StealResponse{
		Outcome:       string(res.Outcome),
		Amount:        res.Amount,
		AttackerArmed: res.AttackerArmed,
		VictimArmed:   res.VictimArmed,
		AmmoUsed:      res.AmmoUsed,
		Balance:       res.Balance,
		ReleaseAt:     res.ReleaseAt,
	})
}

func (h *Handlers) PostGenCoins(c *gin.Context) {
	h.admin(c, "gencoins", h.Economy.AdminGrant)
}

func (h *Handlers) PostTakeCoins(c *gin.Context) {
	h.admin(c, "takecoins", h.Economy.AdminRevoke)
}

func (h *Handlers) PostSetCoins(c *gin.Context) {
	h.admin(c, "setcoins", h.Economy.AdminSet)
}

func (h *Handlers) GetHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		badRequest(c, "limit must be a positive integer")
		return
	}
	txs, err := h.Economy.History(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, "history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

func (h *Handlers) admin(c *gin.Context, op string, call func(ctx context.Context, targetID string, amount int64) (service.AdminResult, error)) {
	var req AdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	res, err := call(c.Request.Context(), req.User, req.Amount)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.Logger.Info("Admin command applied",
		zap.String("op", op),
		zap.String("adminID", callerID(c)),
		zap.String("userID", req.User),
		zap.Int64("amount", res.Amount))
	c.JSON(http.StatusOK, AdminResponse(res))
}

func (h *Handlers) fail(c *gin.Context, op string, err error) {
	status, code := classify(err)
	resp := ErrorResponse{
		Error:     code,
		Message:   err.Error(),
		Ephemeral: service.Ephemeral(err),
	}
	if rem, ok := service.Remaining(err); ok {
		secs := int64(rem.Seconds())
		resp.RemainingSeconds = &secs
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error("failed to "+op, zap.String("userID", callerID(c)), zap.Error(err))
		resp.Message = "Internal server error"
		if status == http.StatusServiceUnavailable {
			resp.Message = err.Error()
		}
	}
	c.JSON(status, resp)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, service.ErrNegativeBalance):
		return http.StatusBadRequest, "negative_balance"
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusBadRequest, "insufficient_funds"
	case errors.Is(err, service.ErrJailed):
		return http.StatusBadRequest, "jailed"
	case errors.Is(err, service.ErrCooldown):
		return http.StatusBadRequest, "cooldown"
	case errors.Is(err, service.ErrSelfTarget):
		return http.StatusBadRequest, "self_target"
	case errors.Is(err, service.ErrUnknownItem):
		return http.StatusBadRequest, "unknown_item"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, service.ErrClosed):
		return http.StatusServiceUnavailable, "shutting_down"
	case errors.Is(err, service.ErrPersistence):
		return http.StatusInternalServerError, "persistence"
	}
	return http.StatusInternalServerError, "internal"
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: msg, Ephemeral: true})
}

func callerID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}
