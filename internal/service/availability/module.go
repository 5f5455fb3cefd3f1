package availability

import (
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/rentalhub/internal/cache"
	"github.com/Additional-Code/rentalhub/internal/config"
	"github.com/Additional-Code/rentalhub/internal/database"
	orderrepo "github.com/Additional-Code/rentalhub/internal/repository/order"
	"github.com/Additional-Code/rentalhub/pkg/errorbank"
	"github.com/Additional-Code/rentalhub/pkg/retry"
)

// Module provides the availability engine to Fx.
var Module = fx.Provide(New)

// Params defines dependencies for constructing the engine.
type Params struct {
	fx.In

	Repository *orderrepo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// New wires the engine against the bun-backed order repository.
func New(p Params) *Service {
	policy := retry.Policy{
		Attempts: p.Config.Booking.Retry.Attempts,
		Delay:    p.Config.Booking.Retry.ReadDelay,
		RetryIf:  storageRetryable,
	}
	return NewService(p.Repository, p.Cache, p.Config.Cache.DefaultTTL, policy, p.Logger)
}

func storageRetryable(err error) bool {
	if errorbank.Permanent(err) {
		return false
	}
	if errors.Is(err, orderrepo.ErrNotFound) {
		return false
	}
	return database.IsRetryable(err)
}
