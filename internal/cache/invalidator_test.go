package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingStore struct {
	deleted []string
	err     error
}

func (r *recordingStore) Get(context.Context, string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (r *recordingStore) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (r *recordingStore) Delete(_ context.Context, key string) error {
	r.deleted = append(r.deleted, key)
	return r.err
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "availability:item:42", AvailabilityKey(42))
	assert.Equal(t, "orders:month:2026-01", MonthKey(2026, time.January))
	assert.Equal(t, "orders:month:2025-11", MonthKey(2025, time.November))
}

func TestInvalidateRangeMonthsSpansBuckets(t *testing.T) {
	store := &recordingStore{}
	inv := NewInvalidator(store, nil)

	from := time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	inv.InvalidateRangeMonths(context.Background(), from, to)

	assert.Equal(t, []string{
		"orders:month:2025-11",
		"orders:month:2025-12",
		"orders:month:2026-01",
	}, store.deleted)
}

func TestInvalidateSwallowsStoreFailures(t *testing.T) {
	store := &recordingStore{err: errors.New("redis down")}
	inv := NewInvalidator(store, nil)

	inv.InvalidateItemAvailability(context.Background(), 4)
	inv.InvalidateMonth(context.Background(), 2026, time.March)

	assert.Equal(t, []string{"availability:item:4", "orders:month:2026-03"}, store.deleted)
}
