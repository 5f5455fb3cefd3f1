package item

import (
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/rentalhub/internal/config"
	"github.com/Additional-Code/rentalhub/internal/database"
	itemrepo "github.com/Additional-Code/rentalhub/internal/repository/item"
	orderrepo "github.com/Additional-Code/rentalhub/internal/repository/order"
	"github.com/Additional-Code/rentalhub/pkg/errorbank"
	"github.com/Additional-Code/rentalhub/pkg/retry"
)

// Module provides the item service to Fx.
var Module = fx.Provide(New)

// Params defines dependencies for constructing the item Service.
type Params struct {
	fx.In

	Items  *itemrepo.Repository
	Orders *orderrepo.Repository
	Config config.Config
	Logger *zap.Logger
}

// New wires the item service against the bun-backed repositories.
func New(p Params) *Service {
	rc := p.Config.Booking.Retry
	policies := Policies{
		Read:                retry.Policy{Attempts: rc.Attempts, Delay: rc.ReadDelay, RetryIf: storageRetryable},
		Write:               retry.Policy{Attempts: rc.Attempts, Delay: rc.WriteDelay, RetryIf: storageRetryable},
		Delete:              retry.Policy{Attempts: rc.Attempts, Delay: rc.DeleteDelay, RetryIf: storageRetryable},
		CodeConflictRetries: rc.CodeConflictRetries,
	}
	return NewService(p.Items, p.Orders, p.Config.Booking.BaseURL, policies, p.Logger)
}

func storageRetryable(err error) bool {
	if errorbank.Permanent(err) {
		return false
	}
	if errors.Is(err, itemrepo.ErrNotFound) || errors.Is(err, itemrepo.ErrCodeConflict) {
		return false
	}
	return database.IsRetryable(err)
}
