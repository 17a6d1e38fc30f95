package app

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	RunAddress             string        `env:"RUN_ADDRESS"`
	DatabaseURI            string        `env:"DATABASE_URI"`
	LogLevel               string        `env:"LOG_LEVEL"`
	JWTSecretKey           string        `env:"JWT_SECRET_KEY"`
	MigrationsPath         string        `env:"MIGRATIONS_PATH"`
	TransferGatewayAddress string        `env:"TRANSFER_GATEWAY_ADDRESS"`
	GatewayTimeout         time.Duration `env:"GATEWAY_TIMEOUT"`
	TokenMint              string        `env:"TOKEN_MINT"`
	TreasurySeed           string        `env:"TREASURY_SEED"`
}

func NewConfigFromFlags() *Config {
	cfg, err := ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// ParseConfig reads flags first; environment variables override them.
func ParseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}

	fs.StringVar(&cfg.RunAddress, "a", "localhost:8080", "Server address (env: RUN_ADDRESS)")
	fs.StringVar(&cfg.DatabaseURI, "d", "", "Database URI, empty keeps the ledger in memory (env: DATABASE_URI)")
	fs.StringVar(&cfg.LogLevel, "l", "debug", "Log level (debug|info|warn|error) (env: LOG_LEVEL)")
	fs.StringVar(&cfg.JWTSecretKey, "jwt-secret", "", "JWT secret key (env: JWT_SECRET_KEY)")
	fs.StringVar(&cfg.MigrationsPath, "migrations", "./migrations", "Path to migrations folder (env: MIGRATIONS_PATH)")
	fs.StringVar(&cfg.TransferGatewayAddress, "g", "", "Custody service address, empty uses the in-memory gateway (env: TRANSFER_GATEWAY_ADDRESS)")
	fs.DurationVar(&cfg.GatewayTimeout, "gateway-timeout", 10*time.Second, "Timeout of a single transfer call (env: GATEWAY_TIMEOUT)")
	fs.StringVar(&cfg.TokenMint, "mint", "WAGER", "Token mint settled by this deployment (env: TOKEN_MINT)")
	fs.StringVar(&cfg.TreasurySeed, "seed", "game", "Seed the house identity is derived from (env: TREASURY_SEED)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecretKey == "" {
		return errors.New("JWT secret key is required (use -jwt-secret flag or JWT_SECRET_KEY env)")
	}
	if c.TokenMint == "" {
		return errors.New("token mint must not be empty")
	}
	return nil
}

func (c *Config) MaskDBPassword() string {
	u, err := url.Parse(c.DatabaseURI)
	if err != nil {
		return c.DatabaseURI
	}

	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}
	return u.String()
}
