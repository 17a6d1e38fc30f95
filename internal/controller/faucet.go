package controller

import (
	"net/http"

	"github.com/Evgen-Mutagen/wager-custody/internal/core"
	"github.com/Evgen-Mutagen/wager-custody/internal/gateway"
	"github.com/Evgen-Mutagen/wager-custody/internal/model"
	"github.com/Evgen-Mutagen/wager-custody/internal/service"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// FaucetController funds in-memory token accounts. It is only routed when no
// external custody service is configured.
type FaucetController struct {
	engine core.SettlementEngine
	tokens *gateway.Memory
	mint   string
	logger *zap.Logger
}

type tokenBalance struct {
	Owner   model.Identity `json:"owner"`
	Mint    string         `json:"mint"`
	Balance uint64         `json:"balance"`
}

func NewFaucetController(engine core.SettlementEngine, tokens *gateway.Memory, mint string, logger *zap.Logger) *FaucetController {
	return &FaucetController{
		engine: engine,
		tokens: tokens,
		mint:   mint,
		logger: logger,
	}
}

// Mint credits tokens to owner, or to the caller when owner is omitted.
// Only the game authority may mint.
func (c *FaucetController) Mint(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, c.logger)
	if !ok {
		return
	}

	var request struct {
		Owner  model.Identity `json:"owner"`
		Amount *uint64        `json:"amount"`
	}
	if err := render.DecodeJSON(r.Body, &request); err != nil || request.Amount == nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	state, err := c.engine.GetGameState(r.Context())
	if err != nil {
		writeError(w, c.logger, "Mint failed", caller, err)
		return
	}
	if caller != state.Authority {
		writeError(w, c.logger, "Mint failed", caller, service.ErrUnauthorized)
		return
	}

	owner := request.Owner
	if owner == "" {
		owner = caller
	}
	account := model.TokenAccount{Owner: owner, Mint: c.mint}
	if err := c.tokens.Mint(account, *request.Amount); err != nil {
		writeError(w, c.logger, "Mint failed", caller, err)
		return
	}

	balance := c.tokens.BalanceOf(account)
	c.logger.Info("Tokens minted",
		zap.String("owner", string(owner)),
		zap.String("mint", c.mint),
		zap.Uint64("amount", *request.Amount),
		zap.Uint64("balance", balance))

	render.JSON(w, r, tokenBalance{Owner: owner, Mint: c.mint, Balance: balance})
}
