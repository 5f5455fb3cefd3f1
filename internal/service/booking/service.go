package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	booking "github.com/Additional-Code/rentalhub/internal/booking"
	"github.com/Additional-Code/rentalhub/internal/cache"
	"github.com/Additional-Code/rentalhub/internal/database"
	"github.com/Additional-Code/rentalhub/internal/dto"
	"github.com/Additional-Code/rentalhub/internal/entity"
	"github.com/Additional-Code/rentalhub/internal/messaging"
	orderrepo "github.com/Additional-Code/rentalhub/internal/repository/order"
	"github.com/Additional-Code/rentalhub/pkg/errorbank"
	"github.com/Additional-Code/rentalhub/pkg/retry"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/rentalhub/service/booking")

// OrderStore is the order storage surface the workflow writes through.
type OrderStore interface {
	FindByID(ctx context.Context, id int64) (*entity.Order, error)
	ListAll(ctx context.Context) ([]entity.Order, error)
	ListByMonth(ctx context.Context, year int, month time.Month) ([]entity.Order, error)
	Insert(ctx context.Context, order *entity.Order) error
	Update(ctx context.Context, order *entity.Order) error
	Delete(ctx context.Context, id int64) error
}

// AvailabilityChecker answers whether a range is free, used when overlap
// enforcement on create/update is switched on.
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context, itemID int64, from, to time.Time, excludeOrderID int64) (bool, error)
}

// Invalidator drops the cache entries a booking mutation makes stale. It is
// only called after the write commits so a stale read cannot repopulate the
// cache with pre-write data.
type Invalidator interface {
	InvalidateItemAvailability(ctx context.Context, itemID int64)
	InvalidateRangeMonths(ctx context.Context, from, to time.Time)
}

// Policies groups the per-criticality retry policies for order operations.
type Policies struct {
	Read   retry.Policy
	Write  retry.Policy
	Delete retry.Policy
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Service orchestrates the booking lifecycle: create, full-replace update,
// and hard delete, each independently retried against transient storage
// faults.
type Service struct {
	orders         OrderStore
	checker        AvailabilityChecker
	invalidator    Invalidator
	cache          cache.Store
	cacheTTL       time.Duration
	publisher      messaging.Client
	messaging      messagingConfig
	enforceOverlap bool
	policies       Policies
	logger         *zap.Logger
}

// Options carries the optional collaborators and knobs for NewService.
type Options struct {
	Checker        AvailabilityChecker
	Invalidator    Invalidator
	Cache          cache.Store
	CacheTTL       time.Duration
	Publisher      messaging.Client
	PublishEnabled bool
	PublishTopic   string
	EnforceOverlap bool
}

// NewService wires a new booking Service.
func NewService(orders OrderStore, policies Policies, opts Options, logger *zap.Logger) *Service {
	return &Service{
		orders:         orders,
		checker:        opts.Checker,
		invalidator:    opts.Invalidator,
		cache:          opts.Cache,
		cacheTTL:       opts.CacheTTL,
		publisher:      opts.Publisher,
		messaging:      messagingConfig{enabled: opts.PublishEnabled, topic: opts.PublishTopic},
		enforceOverlap: opts.EnforceOverlap,
		policies:       policies,
		logger:         logger,
	}
}

// Create books an item for the requested range. Remaining is derived from
// rent and advance, never taken from the request.
func (s *Service) Create(ctx context.Context, req dto.OrderRequest) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "BookingService.Create", trace.WithAttributes(attribute.Int64("item.id", req.ItemID)))
	defer span.End()

	from, to, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	if s.enforceOverlap && s.checker != nil {
		available, err := s.checker.IsAvailable(ctx, req.ItemID, from, to, 0)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "availability check failed")
			return nil, err
		}
		if !available {
			return nil, errorbank.Conflict("item is already booked for the selected dates")
		}
	}

	order := &entity.Order{
		ItemID:           req.ItemID,
		ClientName:       req.ClientName,
		Village:          req.Village,
		FromDate:         from,
		ToDate:           to,
		Rent:             req.Rent,
		Advance:          req.Advance,
		Remaining:        req.Rent - req.Advance,
		AdvanceTakenBy:   req.AdvanceTakenBy,
		RemainingTakenBy: req.RemainingTakenBy,
		RemainingAmount:  req.RemainingAmount,
		Remark:           req.Remark,
		MobileNumber:     req.MobileNumber,
		CreatedAt:        time.Now().UTC(),
	}

	err = retry.Run(ctx, s.policies.Write, func(ctx context.Context) error {
		return s.orders.Insert(ctx, order)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, mapStorageErr(err)
	}

	s.invalidate(ctx, order.ItemID, from, to)
	s.publishBookingCreated(ctx, order)
	return order, nil
}

// Update replaces every mutable field of an existing order from the
// request and recomputes Remaining. Month buckets of both the pre-edit and
// post-edit ranges are invalidated.
func (s *Service) Update(ctx context.Context, id int64, req dto.OrderRequest) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "BookingService.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	existing, err := retry.Do(ctx, s.policies.Read, func(ctx context.Context) (*entity.Order, error) {
		return s.orders.FindByID(ctx, id)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, mapStorageErr(err)
	}

	from, to, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	if s.enforceOverlap && s.checker != nil {
		available, err := s.checker.IsAvailable(ctx, req.ItemID, from, to, id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "availability check failed")
			return nil, err
		}
		if !available {
			return nil, errorbank.Conflict("item is already booked for the selected dates")
		}
	}

	oldItemID := existing.ItemID
	oldFrom := existing.FromDate
	oldTo := existing.ToDate

	existing.ItemID = req.ItemID
	existing.ClientName = req.ClientName
	existing.Village = req.Village
	existing.FromDate = from
	existing.ToDate = to
	existing.Rent = req.Rent
	existing.Advance = req.Advance
	existing.Remaining = req.Rent - req.Advance
	existing.AdvanceTakenBy = req.AdvanceTakenBy
	existing.RemainingTakenBy = req.RemainingTakenBy
	existing.RemainingAmount = req.RemainingAmount
	existing.Remark = req.Remark
	existing.MobileNumber = req.MobileNumber

	err = retry.Run(ctx, s.policies.Write, func(ctx context.Context) error {
		return s.orders.Update(ctx, existing)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, mapStorageErr(err)
	}

	s.invalidate(ctx, oldItemID, oldFrom, oldTo)
	s.invalidate(ctx, existing.ItemID, from, to)
	return existing, nil
}

// Delete removes an order permanently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "BookingService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	existing, err := retry.Do(ctx, s.policies.Read, func(ctx context.Context) (*entity.Order, error) {
		return s.orders.FindByID(ctx, id)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return mapStorageErr(err)
	}

	err = retry.Run(ctx, s.policies.Delete, func(ctx context.Context) error {
		return s.orders.Delete(ctx, id)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return mapStorageErr(err)
	}

	s.invalidate(ctx, existing.ItemID, existing.FromDate, existing.ToDate)
	return nil
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "BookingService.List")
	defer span.End()

	orders, err := retry.Do(ctx, s.policies.Read, func(ctx context.Context) ([]entity.Order, error) {
		return s.orders.ListAll(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage error")
		return nil, err
	}
	return orders, nil
}

// MonthOrders returns the orders starting in the given month, sorted by
// FromDate. The unfiltered month bucket is cached; the optional item filter
// applies after the cache so one bucket serves every item.
func (s *Service) MonthOrders(ctx context.Context, year int, month time.Month, itemID int64) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "BookingService.MonthOrders", trace.WithAttributes(
		attribute.Int("month.year", year),
		attribute.Int("month.month", int(month)),
	))
	defer span.End()

	if month < time.January || month > time.December {
		return nil, errorbank.BadRequest("invalid month")
	}

	if orders, ok := s.monthFromCache(ctx, year, month); ok {
		return filterByItem(orders, itemID), nil
	}

	orders, err := retry.Do(ctx, s.policies.Read, func(ctx context.Context) ([]entity.Order, error) {
		return s.orders.ListByMonth(ctx, year, month)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage error")
		return nil, err
	}

	s.storeMonthInCache(ctx, year, month, orders)
	return filterByItem(orders, itemID), nil
}

func (s *Service) invalidate(ctx context.Context, itemID int64, from, to time.Time) {
	if s.invalidator == nil {
		return
	}
	s.invalidator.InvalidateItemAvailability(ctx, itemID)
	s.invalidator.InvalidateRangeMonths(ctx, from, to)
}

func (s *Service) monthFromCache(ctx context.Context, year int, month time.Month) ([]entity.Order, bool) {
	if s.cache == nil {
		return nil, false
	}
	bytes, err := s.cache.Get(ctx, cache.MonthKey(year, month))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) && s.logger != nil {
			s.logger.Warn("month cache read failed", zap.Int("year", year), zap.Error(err))
		}
		return nil, false
	}
	var orders []entity.Order
	if err := json.Unmarshal(bytes, &orders); err != nil {
		return nil, false
	}
	return orders, true
}

func (s *Service) storeMonthInCache(ctx context.Context, year int, month time.Month, orders []entity.Order) {
	if s.cache == nil {
		return
	}
	bytes, err := json.Marshal(orders)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.MonthKey(year, month), bytes, s.cacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("month cache write failed", zap.Int("year", year), zap.Error(err))
	}
}

func (s *Service) publishBookingCreated(ctx context.Context, order *entity.Order) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := BookingCreatedEvent{
		OrderID:    order.ID,
		ItemID:     order.ItemID,
		ClientName: order.ClientName,
		FromDate:   order.FromDate,
		ToDate:     order.ToDate,
		CreatedAt:  order.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal booking created", zap.Error(err))
		}
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("booking-%d", order.ID)), payload); err != nil {
		if s.logger != nil {
			s.logger.Error("publish booking created", zap.Error(err))
		}
	}
}

func validateRequest(req dto.OrderRequest) (time.Time, time.Time, error) {
	if req.ItemID <= 0 {
		return time.Time{}, time.Time{}, errorbank.BadRequest("invalid item id")
	}
	if strings.TrimSpace(req.ClientName) == "" {
		return time.Time{}, time.Time{}, errorbank.BadRequest("client name is required")
	}
	from := booking.DateOnly(req.FromDate)
	to := booking.DateOnly(req.ToDate)
	if from.After(to) {
		return time.Time{}, time.Time{}, errorbank.BadRequest("from_date is after to_date")
	}
	return from, to, nil
}

func filterByItem(orders []entity.Order, itemID int64) []entity.Order {
	if itemID == 0 {
		return orders
	}
	filtered := make([]entity.Order, 0, len(orders))
	for _, order := range orders {
		if order.ItemID == itemID {
			filtered = append(filtered, order)
		}
	}
	return filtered
}

func mapStorageErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, orderrepo.ErrNotFound):
		return errorbank.NotFound("order not found")
	case database.IsConflict(err):
		return errorbank.Conflict("order conflicts with existing data", errorbank.WithCause(err))
	default:
		return err
	}
}

// BookingCreatedEvent is emitted when a new order is persisted.
type BookingCreatedEvent struct {
	OrderID    int64     `json:"order_id"`
	ItemID     int64     `json:"item_id"`
	ClientName string    `json:"client_name"`
	FromDate   time.Time `json:"from_date"`
	ToDate     time.Time `json:"to_date"`
	CreatedAt  time.Time `json:"created_at"`
}
