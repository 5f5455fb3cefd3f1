package availability

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/rentalhub/internal/booking"
	"github.com/Additional-Code/rentalhub/internal/cache"
	"github.com/Additional-Code/rentalhub/internal/entity"
	"github.com/Additional-Code/rentalhub/pkg/errorbank"
	"github.com/Additional-Code/rentalhub/pkg/retry"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/rentalhub/service/availability")

// OrderStore is the slice of order storage the engine reads from.
type OrderStore interface {
	ListByItem(ctx context.Context, itemID int64) ([]entity.Order, error)
}

// Service answers availability questions for one item at a time. It is
// read-only; results reflect storage at or after the call started, and an
// interval is only ever reported if some order actually held it.
type Service struct {
	orders     OrderStore
	cache      cache.Store
	cacheTTL   time.Duration
	readPolicy retry.Policy
	logger     *zap.Logger
}

// NewService builds the availability engine.
func NewService(orders OrderStore, store cache.Store, cacheTTL time.Duration, readPolicy retry.Policy, logger *zap.Logger) *Service {
	return &Service{
		orders:     orders,
		cache:      store,
		cacheTTL:   cacheTTL,
		readPolicy: readPolicy,
		logger:     logger,
	}
}

// IsAvailable reports whether [from, to] is free for the item. Only orders
// of that item are scanned; bookings of other items never conflict.
// excludeOrderID lets an order being edited ignore itself; 0 excludes
// nothing (0 is never a real order id).
func (s *Service) IsAvailable(ctx context.Context, itemID int64, from, to time.Time, excludeOrderID int64) (bool, error) {
	ctx, span := serviceTracer.Start(ctx, "AvailabilityService.IsAvailable", trace.WithAttributes(
		attribute.Int64("item.id", itemID),
		attribute.Int64("order.exclude_id", excludeOrderID),
	))
	defer span.End()

	from = booking.DateOnly(from)
	to = booking.DateOnly(to)

	orders, err := retry.Do(ctx, s.readPolicy, func(ctx context.Context) ([]entity.Order, error) {
		return s.orders.ListByItem(ctx, itemID)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage error")
		return false, err
	}

	for _, order := range orders {
		if excludeOrderID != 0 && order.ID == excludeOrderID {
			continue
		}
		if booking.Overlaps(from, to, booking.DateOnly(order.FromDate), booking.DateOnly(order.ToDate)) {
			return false, nil
		}
	}
	return true, nil
}

// UnavailableRanges returns every booked interval for the item, past and
// future, in no particular order. Results are cached per item and dropped
// whenever a booking mutation touches the item.
func (s *Service) UnavailableRanges(ctx context.Context, itemID int64) ([]booking.Range, error) {
	ctx, span := serviceTracer.Start(ctx, "AvailabilityService.UnavailableRanges", trace.WithAttributes(attribute.Int64("item.id", itemID)))
	defer span.End()

	if itemID <= 0 {
		return nil, errorbank.BadRequest("invalid item id")
	}

	if ranges, ok := s.rangesFromCache(ctx, itemID); ok {
		return ranges, nil
	}

	orders, err := retry.Do(ctx, s.readPolicy, func(ctx context.Context) ([]entity.Order, error) {
		return s.orders.ListByItem(ctx, itemID)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage error")
		return nil, err
	}

	ranges := make([]booking.Range, 0, len(orders))
	for _, order := range orders {
		ranges = append(ranges, booking.Range{
			From: booking.DateOnly(order.FromDate),
			To:   booking.DateOnly(order.ToDate),
		})
	}

	s.storeRangesInCache(ctx, itemID, ranges)
	return ranges, nil
}

func (s *Service) rangesFromCache(ctx context.Context, itemID int64) ([]booking.Range, bool) {
	if s.cache == nil {
		return nil, false
	}
	bytes, err := s.cache.Get(ctx, cache.AvailabilityKey(itemID))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) && s.logger != nil {
			s.logger.Warn("availability cache read failed", zap.Int64("item_id", itemID), zap.Error(err))
		}
		return nil, false
	}
	var ranges []booking.Range
	if err := json.Unmarshal(bytes, &ranges); err != nil {
		return nil, false
	}
	return ranges, true
}

func (s *Service) storeRangesInCache(ctx context.Context, itemID int64, ranges []booking.Range) {
	if s.cache == nil {
		return
	}
	bytes, err := json.Marshal(ranges)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.AvailabilityKey(itemID), bytes, s.cacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("availability cache write failed", zap.Int64("item_id", itemID), zap.Error(err))
	}
}
