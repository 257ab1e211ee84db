// Package storage persists harvest results: a sqlite table keyed by
// center code, plus a spreadsheet-friendly CSV export.
package storage

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"regharvest/pkg/model"
)

// CenterRow is the persisted form of one harvested center.
type CenterRow struct {
	Code      string `gorm:"primaryKey"`
	Name      string
	Email     string
	RunID     string `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName implements gorm's naming override.
func (CenterRow) TableName() string { return "centers" }

// Store is the sqlite-backed result sink.
type Store struct {
	db *gorm.DB
}

// Open opens (and migrates) the sqlite database at dsn.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&CenterRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Save upserts the run's centers; a rerun refreshes name and email of
// codes already present. Returns the number of rows written.
func (s *Store) Save(runID string, centers []model.Center) (int, error) {
	if len(centers) == 0 {
		return 0, nil
	}
	rows := make([]CenterRow, 0, len(centers))
	for _, c := range centers {
		rows = append(rows, CenterRow{Code: c.Code, Name: c.Name, Email: c.Email, RunID: runID})
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "run_id", "updated_at"}),
	}).CreateInBatches(rows, 200)
	if res.Error != nil {
		return 0, fmt.Errorf("save centers: %w", res.Error)
	}
	return len(rows), nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
