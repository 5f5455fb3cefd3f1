package seeder

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/rentalhub/internal/database"
	"github.com/Additional-Code/rentalhub/internal/entity"
)

// Module provides the Seeder.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Items seeds a small starter catalogue if the codes are free.
func (s *Seeder) Items(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Item{
		{Code: "001", Name: "Canopy 20x20", Active: true, CreatedAt: now},
		{Code: "002", Name: "Folding chairs (50)", Active: true, CreatedAt: now},
		{Code: "003", Name: "Sound system", Active: true, CreatedAt: now},
	}

	for _, sample := range samples {
		item := sample
		_, err := s.db.NewInsert().Model(&item).
			On("CONFLICT (itemcode) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded items", zap.Int("count", len(samples)))
	}
	return nil
}

// Orders seeds example bookings against the first seeded item.
func (s *Seeder) Orders(ctx context.Context) error {
	var item entity.Item
	err := s.db.NewSelect().Model(&item).Where("itemcode = ?", "001").Limit(1).Scan(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 10, 0, 0, 0, 0, time.UTC)
	samples := []entity.Order{
		{
			ItemID: item.ID, ClientName: "Ravi Patel", Village: "Khedbrahma",
			FromDate: from, ToDate: from.AddDate(0, 0, 3),
			Rent: 5000, Advance: 2000, Remaining: 3000,
			MobileNumber: "9800000001", CreatedAt: now,
		},
		{
			ItemID: item.ID, ClientName: "Meena Shah", Village: "Idar",
			FromDate: from.AddDate(0, 0, 7), ToDate: from.AddDate(0, 0, 9),
			Rent: 3500, Advance: 500, Remaining: 3000,
			MobileNumber: "9800000002", CreatedAt: now,
		},
	}

	for _, sample := range samples {
		order := sample
		exists, err := s.db.NewSelect().Model((*entity.Order)(nil)).
			Where("itemid = ? AND fromdate = ?", order.ItemID, order.FromDate).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := s.db.NewInsert().Model(&order).Exec(ctx); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded orders", zap.Int("count", len(samples)))
	}
	return nil
}
