package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/rentalhub/internal/booking"
	"github.com/Additional-Code/rentalhub/internal/cache"
	"github.com/Additional-Code/rentalhub/internal/entity"
	"github.com/Additional-Code/rentalhub/pkg/errorbank"
	"github.com/Additional-Code/rentalhub/pkg/retry"
)

type fakeOrderStore struct {
	orders  []entity.Order
	errs    []error
	calls   int
	itemIDs []int64
}

func (f *fakeOrderStore) ListByItem(_ context.Context, itemID int64) ([]entity.Order, error) {
	f.calls++
	f.itemIDs = append(f.itemIDs, itemID)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.orders, nil
}

type memCache struct {
	values map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{values: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := m.values[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return value, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func day(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

func testPolicy(attempts int) retry.Policy {
	return retry.Policy{Attempts: attempts, Delay: time.Millisecond}
}

func TestIsAvailable(t *testing.T) {
	store := &fakeOrderStore{orders: []entity.Order{
		{ID: 1, ItemID: 4, FromDate: day(10), ToDate: day(15)},
	}}
	svc := NewService(store, nil, 0, testPolicy(1), nil)

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want bool
	}{
		{"inside existing booking", day(12), day(20), false},
		{"after existing booking", day(16), day(20), true},
		{"before existing booking", day(1), day(9), true},
		{"touching end boundary", day(15), day(20), false},
		{"touching start boundary", day(5), day(10), false},
		{"exact same range", day(10), day(15), false},
		{"enclosing existing booking", day(8), day(18), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.IsAvailable(context.Background(), 4, tt.from, tt.to, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsAvailableExcludesOwnOrder(t *testing.T) {
	store := &fakeOrderStore{orders: []entity.Order{
		{ID: 7, ItemID: 4, FromDate: day(10), ToDate: day(15)},
	}}
	svc := NewService(store, nil, 0, testPolicy(1), nil)

	available, err := svc.IsAvailable(context.Background(), 4, day(10), day(15), 7)
	require.NoError(t, err)
	assert.True(t, available, "an order being edited must not conflict with itself")

	available, err = svc.IsAvailable(context.Background(), 4, day(10), day(15), 99)
	require.NoError(t, err)
	assert.False(t, available)
}

func TestIsAvailableNormalizesTimestamps(t *testing.T) {
	store := &fakeOrderStore{orders: []entity.Order{
		{ID: 1, ItemID: 4, FromDate: day(10).Add(14 * time.Hour), ToDate: day(15).Add(9 * time.Hour)},
	}}
	svc := NewService(store, nil, 0, testPolicy(1), nil)

	available, err := svc.IsAvailable(context.Background(), 4, day(15).Add(23*time.Hour), day(20), 0)
	require.NoError(t, err)
	assert.False(t, available, "time-of-day must not mask a same-day conflict")
}

func TestIsAvailableRetriesTransientFailures(t *testing.T) {
	store := &fakeOrderStore{
		errs: []error{errors.New("connection reset"), errors.New("connection reset")},
	}
	svc := NewService(store, nil, 0, testPolicy(3), nil)

	available, err := svc.IsAvailable(context.Background(), 4, day(1), day(2), 0)
	require.NoError(t, err)
	assert.True(t, available)
	assert.Equal(t, 3, store.calls)
}

func TestIsAvailableExhaustsRetries(t *testing.T) {
	store := &fakeOrderStore{
		errs: []error{errors.New("down"), errors.New("down"), errors.New("down")},
	}
	svc := NewService(store, nil, 0, testPolicy(3), nil)

	_, err := svc.IsAvailable(context.Background(), 4, day(1), day(2), 0)
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindTransient))
	assert.Equal(t, 3, store.calls)
}

func TestUnavailableRangesRejectsInvalidItem(t *testing.T) {
	svc := NewService(&fakeOrderStore{}, nil, 0, testPolicy(1), nil)

	_, err := svc.UnavailableRanges(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
}

func TestUnavailableRangesCachesPerItem(t *testing.T) {
	store := &fakeOrderStore{orders: []entity.Order{
		{ID: 1, ItemID: 4, FromDate: day(10).Add(8 * time.Hour), ToDate: day(15)},
		{ID: 2, ItemID: 4, FromDate: day(20), ToDate: day(25)},
	}}
	cacheStore := newMemCache()
	svc := NewService(store, cacheStore, time.Minute, testPolicy(1), nil)

	ranges, err := svc.UnavailableRanges(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, booking.Range{From: day(10), To: day(15)}, ranges[0])
	assert.Equal(t, 1, store.calls)

	again, err := svc.UnavailableRanges(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, ranges, again)
	assert.Equal(t, 1, store.calls, "second read must be served from cache")

	require.NoError(t, cacheStore.Delete(context.Background(), cache.AvailabilityKey(4)))
	_, err = svc.UnavailableRanges(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls, "invalidated key must fall through to storage")
}
