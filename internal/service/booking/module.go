package booking

import (
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/rentalhub/internal/cache"
	"github.com/Additional-Code/rentalhub/internal/config"
	"github.com/Additional-Code/rentalhub/internal/database"
	"github.com/Additional-Code/rentalhub/internal/messaging"
	orderrepo "github.com/Additional-Code/rentalhub/internal/repository/order"
	"github.com/Additional-Code/rentalhub/internal/service/availability"
	"github.com/Additional-Code/rentalhub/pkg/errorbank"
	"github.com/Additional-Code/rentalhub/pkg/retry"
)

// Module provides the booking workflow to Fx.
var Module = fx.Provide(New)

// Params defines dependencies for constructing the booking Service.
type Params struct {
	fx.In

	Repository   *orderrepo.Repository
	Availability *availability.Service
	Invalidator  *cache.Invalidator
	Cache        cache.Store
	Config       config.Config
	Logger       *zap.Logger
	Publisher    messaging.Client
}

// New wires the booking workflow against the bun-backed order repository.
func New(p Params) *Service {
	rc := p.Config.Booking.Retry
	policies := Policies{
		Read:   retry.Policy{Attempts: rc.Attempts, Delay: rc.ReadDelay, RetryIf: storageRetryable},
		Write:  retry.Policy{Attempts: rc.Attempts, Delay: rc.WriteDelay, RetryIf: storageRetryable},
		Delete: retry.Policy{Attempts: rc.Attempts, Delay: rc.DeleteDelay, RetryIf: storageRetryable},
	}
	opts := Options{
		Checker:        p.Availability,
		Invalidator:    p.Invalidator,
		Cache:          p.Cache,
		CacheTTL:       p.Config.Cache.DefaultTTL,
		Publisher:      p.Publisher,
		PublishEnabled: p.Config.Messaging.Enabled,
		PublishTopic:   p.Config.Messaging.Kafka.Topic,
		EnforceOverlap: p.Config.Booking.EnforceOverlapOnCreate,
	}
	return NewService(p.Repository, policies, opts, p.Logger)
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
