package controller

import (
	"net/http"

	"github.com/Evgen-Mutagen/wager-custody/internal/core"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// AdminController moves funds between a caller's token account and the house treasury.
type AdminController struct {
	engine core.SettlementEngine
	logger *zap.Logger
}

func NewAdminController(engine core.SettlementEngine, logger *zap.Logger) *AdminController {
	return &AdminController{
		engine: engine,
		logger: logger,
	}
}

func (c *AdminController) Deposit(w http.ResponseWriter, r *http.Request) {
	admin, ok := callerFrom(w, r, c.logger)
	if !ok {
		return
	}

	var request amountRequest
	if err := render.DecodeJSON(r.Body, &request); err != nil || request.Amount == nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	house, err := c.engine.AdminDeposit(r.Context(), admin, *request.Amount)
	if err != nil {
		writeError(w, c.logger, "Treasury deposit failed", admin, err)
		return
	}

	render.JSON(w, r, house)
}

func (c *AdminController) Withdraw(w http.ResponseWriter, r *http.Request) {
	admin, ok := callerFrom(w, r, c.logger)
	if !ok {
		return
	}

	var request amountRequest
	if err := render.DecodeJSON(r.Body, &request); err != nil || request.Amount == nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	house, err := c.engine.AdminWithdraw(r.Context(), admin, *request.Amount)
	if err != nil {
		writeError(w, c.logger, "Treasury withdrawal failed", admin, err)
		return
	}

	render.JSON(w, r, house)
}
