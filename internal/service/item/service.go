package item

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/rentalhub/internal/entity"
	itemrepo "github.com/Additional-Code/rentalhub/internal/repository/item"
	"github.com/Additional-Code/rentalhub/pkg/errorbank"
	"github.com/Additional-Code/rentalhub/pkg/retry"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/rentalhub/service/item")

const placeholderImagePath = "item-images/no-image.svg"

// codeWidth is the minimum rendered width of an item code.
const codeWidth = 3

// ItemStore is the item storage surface the service depends on.
type ItemStore interface {
	CodeStore
	GetByID(ctx context.Context, id int64) (*entity.Item, error)
	ListActive(ctx context.Context) ([]entity.Item, error)
	Insert(ctx context.Context, item *entity.Item) error
	UpdateDetails(ctx context.Context, id int64, name, photoURL string) error
	SetActive(ctx context.Context, id int64, active bool) error
	CodeExists(ctx context.Context, code string, excludeItemID int64) (bool, error)
}

// OrderStore is the order-side check needed before deactivating an item.
type OrderStore interface {
	ExistsForItem(ctx context.Context, itemID int64) (bool, error)
}

// Policies groups the per-criticality retry policies for item operations.
type Policies struct {
	Read   retry.Policy
	Write  retry.Policy
	Delete retry.Policy
	// CodeConflictRetries bounds how often a create re-derives the next
	// code after losing the uniqueness race. Separate from the transient
	// retry budget above.
	CodeConflictRetries int
}

// Service manages the rentable item catalogue.
type Service struct {
	items    ItemStore
	orders   OrderStore
	assigner *CodeAssigner
	baseURL  string
	policies Policies
	logger   *zap.Logger
}

// NewService wires a new item Service.
func NewService(items ItemStore, orders OrderStore, baseURL string, policies Policies, logger *zap.Logger) *Service {
	if policies.CodeConflictRetries <= 0 {
		policies.CodeConflictRetries = 1
	}
	return &Service{
		items:    items,
		orders:   orders,
		assigner: NewCodeAssigner(items, policies.Read),
		baseURL:  baseURL,
		policies: policies,
		logger:   logger,
	}
}

// ListActive returns the active catalogue, newest first. Codes come back
// left-padded and a missing photo is replaced with the placeholder URL so
// clients never render an empty image.
func (s *Service) ListActive(ctx context.Context) ([]entity.Item, error) {
	ctx, span := serviceTracer.Start(ctx, "ItemService.ListActive")
	defer span.End()

	items, err := retry.Do(ctx, s.policies.Read, func(ctx context.Context) ([]entity.Item, error) {
		return s.items.ListActive(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage error")
		return nil, err
	}

	for i := range items {
		items[i].Code = padCode(items[i].Code)
		if strings.TrimSpace(items[i].PhotoURL) == "" {
			items[i].PhotoURL = s.baseURL + placeholderImagePath
		}
	}
	return items, nil
}

// Create lists a new item under the next sequential code. Losing the code
// uniqueness race re-derives the code and retries the insert as one unit, a
// bounded number of times, before surfacing the conflict.
func (s *Service) Create(ctx context.Context, name, photoURL string) (*entity.Item, error) {
	ctx, span := serviceTracer.Start(ctx, "ItemService.Create", trace.WithAttributes(attribute.String("item.name", name)))
	defer span.End()

	if strings.TrimSpace(name) == "" {
		return nil, errorbank.BadRequest("item name is required")
	}

	var lastErr error
	for attempt := 0; attempt < s.policies.CodeConflictRetries; attempt++ {
		code, err := s.assigner.NextCode(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "code assignment failed")
			return nil, err
		}

		item := &entity.Item{
			Code:      code,
			Name:      name,
			PhotoURL:  photoURL,
			Active:    true,
			CreatedAt: time.Now().UTC(),
		}

		err = retry.Run(ctx, s.policies.Write, func(ctx context.Context) error {
			return s.items.Insert(ctx, item)
		})
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, itemrepo.ErrCodeConflict) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "insert failed")
			return nil, err
		}

		lastErr = err
		if s.logger != nil {
			s.logger.Warn("item code race lost; reassigning",
				zap.String("code", code),
				zap.Int("attempt", attempt+1),
			)
		}
	}

	span.SetStatus(codes.Error, "code conflict retries exhausted")
	return nil, errorbank.Conflict("item code already exists", errorbank.WithCause(lastErr))
}

// UpdateDetails edits an item's name and photo.
func (s *Service) UpdateDetails(ctx context.Context, id int64, name, photoURL string) error {
	ctx, span := serviceTracer.Start(ctx, "ItemService.UpdateDetails", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	if strings.TrimSpace(name) == "" {
		return errorbank.BadRequest("item name is required")
	}

	err := retry.Run(ctx, s.policies.Write, func(ctx context.Context) error {
		return s.items.UpdateDetails(ctx, id, name, photoURL)
	})
	if errors.Is(err, itemrepo.ErrNotFound) {
		return errorbank.NotFound("item not found")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	return nil
}

// Deactivate soft-deletes an item. Items with order history are kept for
// the historical records those orders point at, so the flag is refused
// while any order references the item.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "ItemService.Deactivate", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	hasOrders, err := retry.Do(ctx, s.policies.Read, func(ctx context.Context) (bool, error) {
		return s.orders.ExistsForItem(ctx, id)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage error")
		return err
	}
	if hasOrders {
		return errorbank.Conflict("item cannot be deleted because orders exist")
	}

	err = retry.Run(ctx, s.policies.Delete, func(ctx context.Context) error {
		return s.items.SetActive(ctx, id, false)
	})
	if errors.Is(err, itemrepo.ErrNotFound) {
		return errorbank.NotFound("item not found")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "deactivate failed")
		return err
	}
	return nil
}

// HasOrders reports whether the item is referenced by any order.
func (s *Service) HasOrders(ctx context.Context, id int64) (bool, error) {
	ctx, span := serviceTracer.Start(ctx, "ItemService.HasOrders", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	return retry.Do(ctx, s.policies.Read, func(ctx context.Context) (bool, error) {
		return s.orders.ExistsForItem(ctx, id)
	})
}

// CodeExists checks whether an active item other than excludeItemID already
// uses the numeric code.
func (s *Service) CodeExists(ctx context.Context, code int, excludeItemID int64) (bool, error) {
	ctx, span := serviceTracer.Start(ctx, "ItemService.CodeExists", trace.WithAttributes(attribute.Int("item.code", code)))
	defer span.End()

	formatted := fmt.Sprintf("%0*d", codeWidth, code)
	return retry.Do(ctx, s.policies.Read, func(ctx context.Context) (bool, error) {
		return s.items.CodeExists(ctx, formatted, excludeItemID)
	})
}

// NextCode exposes the assigner for clients that preview the code.
func (s *Service) NextCode(ctx context.Context) (string, error) {
	ctx, span := serviceTracer.Start(ctx, "ItemService.NextCode")
	defer span.End()

	return s.assigner.NextCode(ctx)
}

func padCode(code string) string {
	if len(code) >= codeWidth {
		return code
	}
	return strings.Repeat("0", codeWidth-len(code)) + code
}
