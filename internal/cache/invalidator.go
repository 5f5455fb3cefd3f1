package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Additional-Code/rentalhub/internal/booking"
)

// AvailabilityKey names the per-item unavailable-dates cache entry.
func AvailabilityKey(itemID int64) string {
	return fmt.Sprintf("availability:item:%d", itemID)
}

// MonthKey names the month-bucketed order list cache entry.
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("orders:month:%d-%02d", year, int(month))
}

// Invalidator drops cache entries made stale by booking mutations. It must
// run after the corresponding write commits, never before; a failed delete
// is logged and swallowed since TTLs bound the staleness window.
type Invalidator struct {
	store  Store
	logger *zap.Logger
}

// NewInvalidator builds an Invalidator over the configured cache store.
func NewInvalidator(store Store, logger *zap.Logger) *Invalidator {
	return &Invalidator{store: store, logger: logger}
}

// InvalidateItemAvailability drops the unavailable-dates entry for an item.
func (i *Invalidator) InvalidateItemAvailability(ctx context.Context, itemID int64) {
	i.remove(ctx, AvailabilityKey(itemID))
}

// InvalidateMonth drops a single month-bucket entry.
func (i *Invalidator) InvalidateMonth(ctx context.Context, year int, month time.Month) {
	i.remove(ctx, MonthKey(year, month))
}

// InvalidateRangeMonths drops every month bucket a booked range touches,
// including the months between FromDate and ToDate.
func (i *Invalidator) InvalidateRangeMonths(ctx context.Context, from, to time.Time) {
	for _, m := range booking.MonthsSpanned(from, to) {
		i.remove(ctx, MonthKey(m.Year, m.Month))
	}
}

func (i *Invalidator) remove(ctx context.Context, key string) {
	if i.store == nil {
		return
	}
	if err := i.store.Delete(ctx, key); err != nil && i.logger != nil {
		i.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
