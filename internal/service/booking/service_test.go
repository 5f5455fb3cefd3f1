package booking

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	booking "github.com/Additional-Code/rentalhub/internal/booking"
	"github.com/Additional-Code/rentalhub/internal/cache"
	"github.com/Additional-Code/rentalhub/internal/dto"
	"github.com/Additional-Code/rentalhub/internal/entity"
	"github.com/Additional-Code/rentalhub/internal/messaging"
	orderrepo "github.com/Additional-Code/rentalhub/internal/repository/order"
	"github.com/Additional-Code/rentalhub/pkg/errorbank"
	"github.com/Additional-Code/rentalhub/pkg/retry"
)

type fakeOrderStore struct {
	byID       map[int64]*entity.Order
	monthRows  []entity.Order
	monthCalls int
	inserted   []*entity.Order
	updated    []*entity.Order
	deleted    []int64
	nextID     int64
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{byID: make(map[int64]*entity.Order), nextID: 100}
}

func (f *fakeOrderStore) FindByID(_ context.Context, id int64) (*entity.Order, error) {
	order, ok := f.byID[id]
	if !ok {
		return nil, orderrepo.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeOrderStore) ListAll(context.Context) ([]entity.Order, error) {
	out := make([]entity.Order, 0, len(f.byID))
	for _, order := range f.byID {
		out = append(out, *order)
	}
	return out, nil
}

func (f *fakeOrderStore) ListByMonth(context.Context, int, time.Month) ([]entity.Order, error) {
	f.monthCalls++
	return f.monthRows, nil
}

func (f *fakeOrderStore) Insert(_ context.Context, order *entity.Order) error {
	f.nextID++
	order.ID = f.nextID
	clone := *order
	f.byID[order.ID] = &clone
	f.inserted = append(f.inserted, &clone)
	return nil
}

func (f *fakeOrderStore) Update(_ context.Context, order *entity.Order) error {
	if _, ok := f.byID[order.ID]; !ok {
		return orderrepo.ErrNotFound
	}
	clone := *order
	f.byID[order.ID] = &clone
	f.updated = append(f.updated, &clone)
	return nil
}

func (f *fakeOrderStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return orderrepo.ErrNotFound
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type invalidation struct {
	itemID int64
	from   time.Time
	to     time.Time
}

type fakeInvalidator struct {
	items  []int64
	ranges []invalidation
}

func (f *fakeInvalidator) InvalidateItemAvailability(_ context.Context, itemID int64) {
	f.items = append(f.items, itemID)
}

func (f *fakeInvalidator) InvalidateRangeMonths(_ context.Context, from, to time.Time) {
	f.ranges = append(f.ranges, invalidation{from: from, to: to})
}

type fakeChecker struct {
	available bool
	calls     int
	excludes  []int64
}

func (f *fakeChecker) IsAvailable(_ context.Context, _ int64, _, _ time.Time, excludeOrderID int64) (bool, error) {
	f.calls++
	f.excludes = append(f.excludes, excludeOrderID)
	return f.available, nil
}

type fakePublisher struct {
	keys     [][]byte
	payloads [][]byte
}

func (f *fakePublisher) Publish(_ context.Context, key, value []byte) error {
	f.keys = append(f.keys, key)
	f.payloads = append(f.payloads, value)
	return nil
}

func (f *fakePublisher) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakePublisher) Topic() string { return "bookings.events" }

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

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func testPolicies() Policies {
	classify := func(err error) bool {
		return !errorbank.Permanent(err) && !errors.Is(err, orderrepo.ErrNotFound)
	}
	policy := retry.Policy{Attempts: 1, Delay: time.Millisecond, RetryIf: classify}
	return Policies{Read: policy, Write: policy, Delete: policy}
}

func validRequest() dto.OrderRequest {
	return dto.OrderRequest{
		ItemID:       4,
		ClientName:   "Ravi Patel",
		Village:      "Khedbrahma",
		FromDate:     day(2026, time.January, 10).Add(11 * time.Hour),
		ToDate:       day(2026, time.January, 15),
		Rent:         5000,
		Advance:      2000,
		MobileNumber: "9800000001",
	}
}

func TestCreateComputesRemaining(t *testing.T) {
	store := newFakeOrderStore()
	inv := &fakeInvalidator{}
	svc := NewService(store, testPolicies(), Options{Invalidator: inv}, nil)

	order, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, float64(3000), order.Remaining)
	assert.Equal(t, day(2026, time.January, 10), order.FromDate, "stored dates are calendar days")
	require.Len(t, store.inserted, 1)

	assert.Equal(t, []int64{4}, inv.items)
	require.Len(t, inv.ranges, 1)
	assert.Equal(t, day(2026, time.January, 10), inv.ranges[0].from)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeOrderStore(), testPolicies(), Options{}, nil)

	tests := []struct {
		name   string
		mutate func(*dto.OrderRequest)
	}{
		{"missing item", func(r *dto.OrderRequest) { r.ItemID = 0 }},
		{"blank client name", func(r *dto.OrderRequest) { r.ClientName = "  " }},
		{"inverted range", func(r *dto.OrderRequest) {
			r.FromDate = day(2026, time.January, 20)
			r.ToDate = day(2026, time.January, 10)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
		})
	}
}

func TestCreateOverlapEnforcement(t *testing.T) {
	t.Run("enforced and busy", func(t *testing.T) {
		checker := &fakeChecker{available: false}
		svc := NewService(newFakeOrderStore(), testPolicies(), Options{Checker: checker, EnforceOverlap: true}, nil)

		_, err := svc.Create(context.Background(), validRequest())
		require.Error(t, err)
		assert.True(t, errorbank.IsKind(err, errorbank.KindConflict))
		assert.Equal(t, 1, checker.calls)
	})

	t.Run("disabled skips the check", func(t *testing.T) {
		checker := &fakeChecker{available: false}
		svc := NewService(newFakeOrderStore(), testPolicies(), Options{Checker: checker, EnforceOverlap: false}, nil)

		_, err := svc.Create(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Zero(t, checker.calls)
	})
}

func TestCreatePublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewService(newFakeOrderStore(), testPolicies(), Options{
		Publisher:      pub,
		PublishEnabled: true,
		PublishTopic:   "bookings.events",
	}, nil)

	order, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	require.Len(t, pub.payloads, 1)

	var event BookingCreatedEvent
	require.NoError(t, json.Unmarshal(pub.payloads[0], &event))
	assert.Equal(t, order.ID, event.OrderID)
	assert.Equal(t, order.ItemID, event.ItemID)
}

func TestUpdateReplacesFieldsAndInvalidatesBothRanges(t *testing.T) {
	store := newFakeOrderStore()
	store.byID[7] = &entity.Order{
		ID: 7, ItemID: 4, ClientName: "Ravi Patel",
		FromDate: day(2026, time.January, 10), ToDate: day(2026, time.January, 15),
		Rent: 5000, Advance: 2000, Remaining: 3000,
	}
	inv := &fakeInvalidator{}
	svc := NewService(store, testPolicies(), Options{Invalidator: inv}, nil)

	req := validRequest()
	req.ItemID = 9
	req.FromDate = day(2026, time.February, 1)
	req.ToDate = day(2026, time.February, 3)
	req.Rent = 8000
	req.Advance = 1000

	order, err := svc.Update(context.Background(), 7, req)
	require.NoError(t, err)
	assert.Equal(t, int64(9), order.ItemID)
	assert.Equal(t, float64(7000), order.Remaining, "remaining is recomputed, never trusted")
	require.Len(t, store.updated, 1)

	assert.Equal(t, []int64{4, 9}, inv.items, "both the old and new item lose their availability cache")
	require.Len(t, inv.ranges, 2)
	assert.Equal(t, day(2026, time.January, 10), inv.ranges[0].from)
	assert.Equal(t, day(2026, time.February, 1), inv.ranges[1].from)
}

func TestUpdateUnknownOrder(t *testing.T) {
	svc := NewService(newFakeOrderStore(), testPolicies(), Options{}, nil)

	_, err := svc.Update(context.Background(), 404, validRequest())
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}

func TestUpdateExcludesSelfFromOverlapCheck(t *testing.T) {
	store := newFakeOrderStore()
	store.byID[7] = &entity.Order{ID: 7, ItemID: 4, ClientName: "Ravi Patel",
		FromDate: day(2026, time.January, 10), ToDate: day(2026, time.January, 15)}
	checker := &fakeChecker{available: true}
	svc := NewService(store, testPolicies(), Options{Checker: checker, EnforceOverlap: true}, nil)

	_, err := svc.Update(context.Background(), 7, validRequest())
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, checker.excludes)
}

func TestDeleteInvalidatesCaches(t *testing.T) {
	store := newFakeOrderStore()
	store.byID[7] = &entity.Order{ID: 7, ItemID: 4,
		FromDate: day(2026, time.January, 10), ToDate: day(2026, time.January, 15)}
	inv := &fakeInvalidator{}
	svc := NewService(store, testPolicies(), Options{Invalidator: inv}, nil)

	require.NoError(t, svc.Delete(context.Background(), 7))
	assert.Equal(t, []int64{7}, store.deleted)
	assert.Equal(t, []int64{4}, inv.items)
	require.Len(t, inv.ranges, 1)
}

func TestDeleteUnknownOrder(t *testing.T) {
	svc := NewService(newFakeOrderStore(), testPolicies(), Options{}, nil)

	err := svc.Delete(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}

func TestMonthOrdersValidatesMonth(t *testing.T) {
	svc := NewService(newFakeOrderStore(), testPolicies(), Options{}, nil)

	_, err := svc.MonthOrders(context.Background(), 2026, time.Month(13), 0)
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
}

func TestMonthOrdersCachesUnfilteredBucket(t *testing.T) {
	store := newFakeOrderStore()
	store.monthRows = []entity.Order{
		{ID: 1, ItemID: 4, FromDate: day(2026, time.January, 5), ToDate: day(2026, time.January, 7)},
		{ID: 2, ItemID: 9, FromDate: day(2026, time.January, 12), ToDate: day(2026, time.January, 14)},
	}
	svc := NewService(store, testPolicies(), Options{Cache: newMemCache(), CacheTTL: time.Minute}, nil)

	orders, err := svc.MonthOrders(context.Background(), 2026, time.January, 0)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, 1, store.monthCalls)

	filtered, err := svc.MonthOrders(context.Background(), 2026, time.January, 9)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, int64(2), filtered[0].ID)
	assert.Equal(t, 1, store.monthCalls, "item filter is applied after the shared cache")
}

func TestMonthOrdersInvalidatedByCreate(t *testing.T) {
	store := newFakeOrderStore()
	cacheStore := newMemCache()
	inv := &fakeInvalidator{}
	svc := NewService(store, testPolicies(), Options{Cache: cacheStore, CacheTTL: time.Minute, Invalidator: inv}, nil)

	_, err := svc.MonthOrders(context.Background(), 2026, time.January, 0)
	require.NoError(t, err)
	assert.Contains(t, cacheStore.values, cache.MonthKey(2026, time.January))

	_, err = svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	require.Len(t, inv.ranges, 1)
	assert.True(t, booking.MonthOf(inv.ranges[0].from) == booking.Month{Year: 2026, Month: time.January})
}
