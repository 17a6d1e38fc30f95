package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Evgen-Mutagen/wager-custody/internal/model"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type HTTPConfig struct {
	Address string
	Timeout time.Duration
}

// HTTP forwards transfers to an external custody service. Calls go through a
// circuit breaker; rejections by the service do not count as failures.
type HTTP struct {
	address string
	timeout time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewHTTP(cfg HTTPConfig, logger *zap.Logger) *HTTP {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	g := &HTTP{
		address: strings.TrimRight(cfg.Address, "/"),
		timeout: timeout,
		client:  &http.Client{},
		logger:  logger,
	}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "transfer-gateway",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return g
}

func (g *HTTP) Transfer(ctx context.Context, req model.TransferRequest) error {
	var rejected error
	_, err := g.breaker.Execute(func() (interface{}, error) {
		rejected = nil
		err := g.post(ctx, req)
		if errors.Is(err, ErrTransferRejected) {
			rejected = err
			return nil, nil
		}
		return nil, err
	})
	if rejected != nil {
		return rejected
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}
	return nil
}

func (g *HTTP) post(ctx context.Context, req model.TransferRequest) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode transfer: %w", err)
	}

	url := fmt.Sprintf("%s/api/transfers", g.address)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusPaymentRequired, http.StatusForbidden, http.StatusConflict, http.StatusUnprocessableEntity:
		reason, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		g.logger.Warn("Transfer rejected by custody service",
			zap.Int("status", resp.StatusCode),
			zap.String("from", string(req.From.Owner)),
			zap.String("to", string(req.To.Owner)),
			zap.Uint64("amount", req.Amount))
		return fmt.Errorf("%w: %s", ErrTransferRejected, strings.TrimSpace(string(reason)))
	default:
		return fmt.Errorf("%w: unexpected status code: %d", ErrUnavailable, resp.StatusCode)
	}
}
