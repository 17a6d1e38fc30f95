package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Evgen-Mutagen/wager-custody/internal/controller"
	"github.com/Evgen-Mutagen/wager-custody/internal/core"
	"github.com/Evgen-Mutagen/wager-custody/internal/gateway"
	"github.com/Evgen-Mutagen/wager-custody/internal/middlewareinternal"
	"github.com/Evgen-Mutagen/wager-custody/internal/repository"
	"github.com/Evgen-Mutagen/wager-custody/internal/service"
	"github.com/Evgen-Mutagen/wager-custody/internal/treasury"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrMemoryLedgerWithRemoteGateway is returned when an in-memory ledger is
// paired with an external custody service. The memory store serialises every
// transaction, so remote transfer latency would block all reads.
var ErrMemoryLedgerWithRemoteGateway = errors.New("in-memory ledger requires the in-memory transfer gateway; set DATABASE_URI or clear TRANSFER_GATEWAY_ADDRESS")

type App struct {
	cfg    *Config
	Router *chi.Mux
	db     *repository.Database
	Logger *zap.Logger
	Server *http.Server
	Engine core.SettlementEngine

	// Tokens is set when no external custody service is configured.
	Tokens *gateway.Memory
}

func New(cfg *Config) (*App, error) {
	if cfg.DatabaseURI == "" && cfg.TransferGatewayAddress != "" {
		return nil, ErrMemoryLedgerWithRemoteGateway
	}

	app := &App{
		cfg:    cfg,
		Router: chi.NewRouter(),
		Logger: zap.L(),
	}

	ledgerStore, userRepo, err := app.initStorage()
	if err != nil {
		return nil, err
	}

	gw := app.initGateway()
	app.Engine = service.NewSettlementEngine(ledgerStore, gw, treasury.New(cfg.TreasurySeed), cfg.TokenMint, app.Logger)
	authService := service.NewAuthService(userRepo, cfg.JWTSecretKey)

	app.initRouter(authService)
	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	a.Server = &http.Server{
		Addr:    a.cfg.RunAddress,
		Handler: a.Router,
	}

	go func() {
		a.Logger.Info("Starting HTTP server", zap.String("address", a.cfg.RunAddress))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	return a.shutdown()
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) initStorage() (repository.LedgerStore, repository.UserRepository, error) {
	if a.cfg.DatabaseURI == "" {
		a.Logger.Warn("DATABASE_URI is empty, ledger is kept in memory")
		return repository.NewMemoryLedgerStore(), repository.NewMemoryUserRepository(), nil
	}

	if err := a.initDB(); err != nil {
		return nil, nil, err
	}
	return repository.NewLedgerStore(a.db), repository.NewUserRepository(a.db), nil
}

func (a *App) initDB() error {
	dbConfig := repository.DatabaseConfig{
		DSN:            a.cfg.DatabaseURI,
		MigrationsPath: a.cfg.MigrationsPath,
	}

	db, err := repository.NewDatabase(dbConfig)
	if err != nil {
		a.Logger.Error("Database initialization failed",
			zap.String("dsn", a.cfg.MaskDBPassword()),
			zap.Error(err))
		return fmt.Errorf("database initialization failed: %w", err)
	}

	a.db = db
	a.Logger.Info("Database initialized successfully",
		zap.String("migrations_path", a.cfg.MigrationsPath))

	return nil
}

func (a *App) initGateway() gateway.TransferGateway {
	if a.cfg.TransferGatewayAddress == "" {
		a.Logger.Warn("TRANSFER_GATEWAY_ADDRESS is empty, using in-memory token accounts",
			zap.String("mint", a.cfg.TokenMint))
		a.Tokens = gateway.NewMemory(a.Logger)
		return a.Tokens
	}

	a.Logger.Info("Using external custody service",
		zap.String("address", a.cfg.TransferGatewayAddress),
		zap.Duration("timeout", a.cfg.GatewayTimeout))
	return gateway.NewHTTP(gateway.HTTPConfig{
		Address: a.cfg.TransferGatewayAddress,
		Timeout: a.cfg.GatewayTimeout,
	}, a.Logger)
}

func (a *App) initRouter(authService core.AuthService) {
	a.Router.Use(middleware.RequestID)
	a.Router.Use(middleware.RealIP)
	a.Router.Use(middleware.Logger)
	a.Router.Use(middleware.Recoverer)
	a.Router.Use(middleware.Compress(5))

	logger := a.Logger
	// Controllers
	authController := controller.NewAuthController(authService, logger)
	gameController := controller.NewGameController(a.Engine, logger)
	accountController := controller.NewAccountController(a.Engine, logger)
	adminController := controller.NewAdminController(a.Engine, logger)

	// Public routes
	a.Router.Post("/api/user/register", authController.Register)
	a.Router.Post("/api/user/login", authController.Login)

	// Protected routes
	a.Router.Group(func(r chi.Router) {
		r.Use(middlewareinternal.JWTAuthMiddleware(authService))

		r.Post("/api/game/initialize", gameController.Initialize)
		r.Get("/api/game", gameController.GetState)
		r.Post("/api/game/outcome", gameController.AttestOutcome)

		r.Post("/api/account", accountController.Create)
		r.Get("/api/account/balance", accountController.GetBalance)
		r.Get("/api/account/entries", accountController.GetEntries)
		r.Post("/api/account/deposit", accountController.Deposit)
		r.Post("/api/account/withdraw", accountController.Withdraw)

		r.Post("/api/admin/deposit", adminController.Deposit)
		r.Post("/api/admin/withdraw", adminController.Withdraw)

		if a.Tokens != nil {
			faucetController := controller.NewFaucetController(a.Engine, a.Tokens, a.cfg.TokenMint, logger)
			r.Post("/api/admin/mint", faucetController.Mint)
		}
	})
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.Server.Shutdown(ctx)
}
