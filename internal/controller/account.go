package controller

import (
	"net/http"

	"github.com/Evgen-Mutagen/wager-custody/internal/core"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

type AccountController struct {
	engine core.SettlementEngine
	logger *zap.Logger
}

func NewAccountController(engine core.SettlementEngine, logger *zap.Logger) *AccountController {
	return &AccountController{
		engine: engine,
		logger: logger,
	}
}

func (c *AccountController) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := callerFrom(w, r, c.logger)
	if !ok {
		return
	}

	account, err := c.engine.CreateUserAccount(r.Context(), user)
	if err != nil {
		writeError(w, c.logger, "Account creation failed", user, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, account)
}

func (c *AccountController) GetBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := callerFrom(w, r, c.logger)
	if !ok {
		return
	}

	account, err := c.engine.GetBalance(r.Context(), user)
	if err != nil {
		writeError(w, c.logger, "Failed to get balance", user, err)
		return
	}

	render.JSON(w, r, account)
}

func (c *AccountController) GetEntries(w http.ResponseWriter, r *http.Request) {
	user, ok := callerFrom(w, r, c.logger)
	if !ok {
		return
	}

	entries, err := c.engine.ListEntries(r.Context(), user)
	if err != nil {
		writeError(w, c.logger, "Failed to list ledger entries", user, err)
		return
	}

	if len(entries) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	render.JSON(w, r, entries)
}

func (c *AccountController) Deposit(w http.ResponseWriter, r *http.Request) {
	user, ok := callerFrom(w, r, c.logger)
	if !ok {
		return
	}

	var request amountRequest
	if err := render.DecodeJSON(r.Body, &request); err != nil || request.Amount == nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	account, err := c.engine.Deposit(r.Context(), user, *request.Amount)
	if err != nil {
		writeError(w, c.logger, "Deposit failed", user, err)
		return
	}

	render.JSON(w, r, account)
}

func (c *AccountController) Withdraw(w http.ResponseWriter, r *http.Request) {
	user, ok := callerFrom(w, r, c.logger)
	if !ok {
		return
	}

	var request amountRequest
	if err := render.DecodeJSON(r.Body, &request); err != nil || request.Amount == nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	account, err := c.engine.Withdraw(r.Context(), user, *request.Amount)
	if err != nil {
		writeError(w, c.logger, "Withdrawal failed", user, err)
		return
	}

	render.JSON(w, r, account)
}
