package gateway

import (
	"context"
	"errors"

	"github.com/Evgen-Mutagen/wager-custody/internal/model"
)

var (
	ErrTransferRejected = errors.New("transfer rejected")
	ErrUnavailable      = errors.New("transfer gateway unavailable")
	ErrSupplyOverflow   = errors.New("token supply overflow")
)

// TransferGateway moves custodial token value between two token accounts.
// A call either moves the full amount or returns an error having moved nothing.
type TransferGateway interface {
	Transfer(ctx context.Context, req model.TransferRequest) error
}
