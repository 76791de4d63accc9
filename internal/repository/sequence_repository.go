package repository

import (
	"context"

	"gorm.io/gorm"
)

// SequenceRepositoryInterface issues per-year document numbers.
type SequenceRepositoryInterface interface {
	Next(ctx context.Context, entity string, year int) (int, error)
}

// SequenceRepository increments counters in sequence_counters atomically.
type SequenceRepository struct {
	db *gorm.DB
}

var _ SequenceRepositoryInterface = (*SequenceRepository)(nil)

// NewSequenceRepository creates a new SequenceRepository
func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next returns the next value for (entity, year), starting at 1.
func (r *SequenceRepository) Next(ctx context.Context, entity string, year int) (int, error) {
	var value int
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO sequence_counters (entity, year, value)
		VALUES (?, ?, 1)
		ON CONFLICT (entity, year) DO UPDATE SET value = sequence_counters.value + 1
		RETURNING value`, entity, year).
		Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}
