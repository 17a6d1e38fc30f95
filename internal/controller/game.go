package controller

import (
	"net/http"

	"github.com/Evgen-Mutagen/wager-custody/internal/core"
	"github.com/Evgen-Mutagen/wager-custody/internal/model"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

type GameController struct {
	engine core.SettlementEngine
	logger *zap.Logger
}

func NewGameController(engine core.SettlementEngine, logger *zap.Logger) *GameController {
	return &GameController{
		engine: engine,
		logger: logger,
	}
}

// Initialize makes the caller the game authority.
func (c *GameController) Initialize(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, c.logger)
	if !ok {
		return
	}

	var request struct {
		Bump *uint8 `json:"bump"`
	}
	if err := render.DecodeJSON(r.Body, &request); err != nil || request.Bump == nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	state, err := c.engine.Initialize(r.Context(), caller, *request.Bump)
	if err != nil {
		writeError(w, c.logger, "Initialization failed", caller, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, state)
}

func (c *GameController) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := c.engine.GetGameState(r.Context())
	if err != nil {
		writeError(w, c.logger, "Failed to get game state", "", err)
		return
	}

	render.JSON(w, r, state)
}

func (c *GameController) AttestOutcome(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r, c.logger)
	if !ok {
		return
	}

	var outcome model.Outcome
	if err := render.DecodeJSON(r.Body, &outcome); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	settlement, err := c.engine.AttestOutcome(r.Context(), caller, outcome)
	if err != nil {
		writeError(w, c.logger, "Outcome attestation failed", caller, err)
		return
	}

	render.JSON(w, r, settlement)
}
