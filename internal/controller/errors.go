package controller

import (
	"errors"
	"net/http"

	"github.com/Evgen-Mutagen/wager-custody/internal/gateway"
	"github.com/Evgen-Mutagen/wager-custody/internal/middlewareinternal"
	"github.com/Evgen-Mutagen/wager-custody/internal/model"
	"github.com/Evgen-Mutagen/wager-custody/internal/service"
	"go.uber.org/zap"
)

type amountRequest struct {
	Amount *uint64 `json:"amount"`
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden, "Caller is not the game authority"
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "Insufficient funds"
	case errors.Is(err, service.ErrArithmeticOverflow), errors.Is(err, gateway.ErrSupplyOverflow):
		return http.StatusUnprocessableEntity, "Balance arithmetic out of range"
	case errors.Is(err, service.ErrTransferRejected):
		return http.StatusConflict, "Token transfer rejected"
	case errors.Is(err, service.ErrAccountNotFound):
		return http.StatusNotFound, "Account not found"
	case errors.Is(err, service.ErrAccountExists):
		return http.StatusConflict, "Account already exists"
	case errors.Is(err, service.ErrNotInitialized):
		return http.StatusConflict, "Game is not initialized"
	case errors.Is(err, service.ErrAlreadyInitialized):
		return http.StatusConflict, "Game is already initialized"
	case errors.Is(err, gateway.ErrUnavailable):
		return http.StatusServiceUnavailable, "Transfer gateway unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, msg string, caller model.Identity, err error) {
	status, text := statusFor(err)
	fields := []zap.Field{
		zap.String("identity", string(caller)),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error(msg, fields...)
	} else {
		logger.Warn(msg, fields...)
	}
	http.Error(w, text, status)
}

func callerFrom(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (model.Identity, bool) {
	identity, ok := middlewareinternal.GetUserIDFromContext(r.Context())
	if !ok {
		logger.Error("User identity not found in context")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return identity, ok
}
