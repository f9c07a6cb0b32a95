package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Generation records a completed music generation: the references it was
// built from and the size and duration of the resulting audio.
type Generation struct {
	ID             string    `gorm:"primarykey" csv:"id"`
	CreatedAt      time.Time `csv:"created_at"`
	UpdatedAt      time.Time `csv:"-"`
	VoiceID        string    `csv:"voice_id"`
	InstrumentalID string    `csv:"instrumental_id"`
	Lyrics         string    `csv:"lyrics"`
	Model          string    `csv:"model"`
	Format         string    `csv:"format"`
	Size           int       `csv:"size"`
	Duration       float64   `csv:"duration"`
}

func (s *Store) GetGeneration(ctx context.Context, id string) (*Generation, error) {
	var v Generation
	if err := s.db.First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: failed to get generation %s: %w", id, err)
	}
	return &v, nil
}

func (s *Store) SetGeneration(ctx context.Context, v *Generation) error {
	if err := s.db.Save(v).Error; err != nil {
		return fmt.Errorf("storage: failed to set generation %s: %w", v.ID, err)
	}
	return nil
}

func (s *Store) ListGenerations(ctx context.Context, page, size int, order string, filters ...Filter) ([]*Generation, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * size
	vs := []*Generation{}

	q := s.db.Offset(offset).Limit(size)
	if order != "" {
		q = q.Order(order)
	}
	for _, f := range filters {
		q = q.Where(f.Query, f.Args...)
	}
	if err := q.Find(&vs).Error; err != nil {
		return nil, fmt.Errorf("storage: failed to list generations: %w", err)
	}
	return vs, nil
}
