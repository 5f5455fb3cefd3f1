package item

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/rentalhub/internal/entity"
	itemrepo "github.com/Additional-Code/rentalhub/internal/repository/item"
	"github.com/Additional-Code/rentalhub/pkg/errorbank"
	"github.com/Additional-Code/rentalhub/pkg/retry"
)

type fakeItemStore struct {
	codes       []string
	codesErr    error
	items       []entity.Item
	inserted    []entity.Item
	insertErrs  []error
	updated     map[int64][2]string
	deactivated []int64
	notFound    bool
	codeInUse   bool
}

func (f *fakeItemStore) ListAllCodes(context.Context) ([]string, error) {
	if f.codesErr != nil {
		return nil, f.codesErr
	}
	return f.codes, nil
}

func (f *fakeItemStore) GetByID(_ context.Context, id int64) (*entity.Item, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			return &f.items[i], nil
		}
	}
	return nil, itemrepo.ErrNotFound
}

func (f *fakeItemStore) ListActive(context.Context) ([]entity.Item, error) {
	return f.items, nil
}

func (f *fakeItemStore) Insert(_ context.Context, item *entity.Item) error {
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	item.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, *item)
	f.codes = append(f.codes, item.Code)
	return nil
}

func (f *fakeItemStore) UpdateDetails(_ context.Context, id int64, name, photoURL string) error {
	if f.notFound {
		return itemrepo.ErrNotFound
	}
	if f.updated == nil {
		f.updated = make(map[int64][2]string)
	}
	f.updated[id] = [2]string{name, photoURL}
	return nil
}

func (f *fakeItemStore) SetActive(_ context.Context, id int64, active bool) error {
	if f.notFound {
		return itemrepo.ErrNotFound
	}
	if !active {
		f.deactivated = append(f.deactivated, id)
	}
	return nil
}

func (f *fakeItemStore) CodeExists(context.Context, string, int64) (bool, error) {
	return f.codeInUse, nil
}

type fakeOrderStore struct {
	hasOrders bool
}

func (f *fakeOrderStore) ExistsForItem(context.Context, int64) (bool, error) {
	return f.hasOrders, nil
}

func testPolicies() Policies {
	classify := func(err error) bool {
		return !errorbank.Permanent(err) &&
			!errors.Is(err, itemrepo.ErrNotFound) &&
			!errors.Is(err, itemrepo.ErrCodeConflict)
	}
	policy := retry.Policy{Attempts: 1, Delay: time.Millisecond, RetryIf: classify}
	return Policies{Read: policy, Write: policy, Delete: policy, CodeConflictRetries: 3}
}

func newTestService(items *fakeItemStore, orders *fakeOrderStore) *Service {
	return NewService(items, orders, "https://cdn.example.test/", testPolicies(), nil)
}

func TestNextCode(t *testing.T) {
	tests := []struct {
		name  string
		codes []string
		want  string
	}{
		{"empty catalogue starts the sequence", nil, "001"},
		{"gap in sequence is not reused", []string{"001", "002", "005"}, "006"},
		{"max wins regardless of order", []string{"010", "003", "007"}, "011"},
		{"short stored code still pads", []string{"12"}, "013"},
		{"grows past three digits", []string{"999"}, "1000"},
		{"four digit codes keep counting", []string{"1000"}, "1001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeItemStore{codes: tt.codes}, &fakeOrderStore{})
			code, err := svc.NextCode(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestNextCodeMalformedStoredCode(t *testing.T) {
	svc := newTestService(&fakeItemStore{codes: []string{"001", "A17"}}, &fakeOrderStore{})

	_, err := svc.NextCode(context.Background())
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindMalformed))
}

func TestCreateAssignsSequentialCode(t *testing.T) {
	store := &fakeItemStore{codes: []string{"001", "002"}}
	svc := newTestService(store, &fakeOrderStore{})

	item, err := svc.Create(context.Background(), "Canopy 20x20", "")
	require.NoError(t, err)
	assert.Equal(t, "003", item.Code)
	assert.True(t, item.Active)
	require.Len(t, store.inserted, 1)
}

func TestCreateRequiresName(t *testing.T) {
	svc := newTestService(&fakeItemStore{}, &fakeOrderStore{})

	_, err := svc.Create(context.Background(), "   ", "")
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
}

func TestCreateReassignsCodeAfterRace(t *testing.T) {
	store := &fakeItemStore{
		codes:      []string{"004"},
		insertErrs: []error{fmt.Errorf("%w: duplicate", itemrepo.ErrCodeConflict)},
	}
	svc := newTestService(store, &fakeOrderStore{})

	item, err := svc.Create(context.Background(), "Sound system", "")
	require.NoError(t, err)
	assert.Equal(t, "005", item.Code)
	require.Len(t, store.inserted, 1)
}

func TestCreateGivesUpAfterRepeatedConflicts(t *testing.T) {
	conflict := fmt.Errorf("%w: duplicate", itemrepo.ErrCodeConflict)
	store := &fakeItemStore{
		codes:      []string{"001"},
		insertErrs: []error{conflict, conflict, conflict},
	}
	svc := newTestService(store, &fakeOrderStore{})

	_, err := svc.Create(context.Background(), "Generator", "")
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindConflict))
	assert.Empty(t, store.inserted)
}

func TestListActivePadsCodesAndFillsPlaceholder(t *testing.T) {
	store := &fakeItemStore{items: []entity.Item{
		{ID: 1, Code: "7", Name: "Chairs", PhotoURL: "  "},
		{ID: 2, Code: "012", Name: "Tables", PhotoURL: "https://cdn.example.test/tables.jpg"},
	}}
	svc := newTestService(store, &fakeOrderStore{})

	items, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "007", items[0].Code)
	assert.Equal(t, "https://cdn.example.test/item-images/no-image.svg", items[0].PhotoURL)
	assert.Equal(t, "012", items[1].Code)
	assert.Equal(t, "https://cdn.example.test/tables.jpg", items[1].PhotoURL)
}

func TestUpdateDetailsNotFound(t *testing.T) {
	svc := newTestService(&fakeItemStore{notFound: true}, &fakeOrderStore{})

	err := svc.UpdateDetails(context.Background(), 42, "New name", "")
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}

func TestDeactivateRefusedWhileOrdersExist(t *testing.T) {
	store := &fakeItemStore{}
	svc := newTestService(store, &fakeOrderStore{hasOrders: true})

	err := svc.Deactivate(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindConflict))
	assert.Empty(t, store.deactivated)
}

func TestDeactivateSoftDeletes(t *testing.T) {
	store := &fakeItemStore{}
	svc := newTestService(store, &fakeOrderStore{})

	require.NoError(t, svc.Deactivate(context.Background(), 3))
	assert.Equal(t, []int64{3}, store.deactivated)
}

func TestCodeExistsFormatsNumericCode(t *testing.T) {
	store := &fakeItemStore{codeInUse: true}
	svc := newTestService(store, &fakeOrderStore{})

	exists, err := svc.CodeExists(context.Background(), 7, 0)
	require.NoError(t, err)
	assert.True(t, exists)
}
