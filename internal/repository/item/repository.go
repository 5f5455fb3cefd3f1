package item

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/rentalhub/internal/database"
	"github.com/Additional-Code/rentalhub/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/rentalhub/repository/item")

// ErrNotFound is returned when an item is missing.
var ErrNotFound = errors.New("item not found")

// ErrCodeConflict is returned when an insert collides with the unique
// itemcode index. Callers re-derive the next code and try again.
var ErrCodeConflict = errors.New("item code already exists")

// Repository encapsulates read/write access for items.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// GetByID fetches an item by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Item, error) {
	ctx, span := repoTracer.Start(ctx, "ItemRepository.GetByID", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	item := new(entity.Item)
	err := r.reader.NewSelect().Model(item).Where("itemid = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return item, nil
}

// ListActive returns active items, newest first. Soft-deleted items never
// appear here but stay queryable through ListAllCodes.
func (r *Repository) ListActive(ctx context.Context) ([]entity.Item, error) {
	ctx, span := repoTracer.Start(ctx, "ItemRepository.ListActive")
	defer span.End()

	var items []entity.Item
	err := r.reader.NewSelect().Model(&items).
		Where("isactive = ?", true).
		Order("createddate DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return items, nil
}

// ListAllCodes returns the code of every item, active or not. Code
// assignment scans the full sequence so retired codes are never reissued.
func (r *Repository) ListAllCodes(ctx context.Context) ([]string, error) {
	ctx, span := repoTracer.Start(ctx, "ItemRepository.ListAllCodes")
	defer span.End()

	var itemCodes []string
	err := r.reader.NewSelect().Model((*entity.Item)(nil)).Column("itemcode").Scan(ctx, &itemCodes)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return itemCodes, nil
}

// Insert persists a new item. A duplicate code surfaces as ErrCodeConflict.
func (r *Repository) Insert(ctx context.Context, item *entity.Item) error {
	if item == nil {
		return errors.New("nil item")
	}
	ctx, span := repoTracer.Start(ctx, "ItemRepository.Insert", trace.WithAttributes(attribute.String("item.code", item.Code)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(item).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		if database.IsConflict(err) {
			return errors.Join(ErrCodeConflict, err)
		}
		return err
	}
	return nil
}

// UpdateDetails edits the descriptive fields only; code and active flag
// have their own paths.
func (r *Repository) UpdateDetails(ctx context.Context, id int64, name, photoURL string) error {
	ctx, span := repoTracer.Start(ctx, "ItemRepository.UpdateDetails", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Item)(nil)).
		Set("itemname = ?", name).
		Set("photourl = ?", photoURL).
		Where("itemid = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if rows, raErr := res.RowsAffected(); raErr == nil && rows == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}

// SetActive flips the soft-delete flag.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	ctx, span := repoTracer.Start(ctx, "ItemRepository.SetActive", trace.WithAttributes(
		attribute.Int64("item.id", id),
		attribute.Bool("item.active", active),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Item)(nil)).
		Set("isactive = ?", active).
		Where("itemid = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if rows, raErr := res.RowsAffected(); raErr == nil && rows == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}

// CodeExists reports whether an active item other than excludeItemID
// already carries the code. excludeItemID = 0 excludes nothing.
func (r *Repository) CodeExists(ctx context.Context, code string, excludeItemID int64) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "ItemRepository.CodeExists", trace.WithAttributes(attribute.String("item.code", code)))
	defer span.End()

	q := r.reader.NewSelect().Model((*entity.Item)(nil)).
		Where("isactive = ?", true).
		Where("itemcode = ?", code)
	if excludeItemID != 0 {
		q = q.Where("itemid != ?", excludeItemID)
	}

	exists, err := q.Exists(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exists failed")
		return false, err
	}
	return exists, nil
}
