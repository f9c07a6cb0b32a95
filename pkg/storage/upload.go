package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Upload records a completed upload to the remote endpoint: the purpose it
// was uploaded under and the identifier the server assigned.
type Upload struct {
	ID         string    `gorm:"primarykey" csv:"id"`
	CreatedAt  time.Time `csv:"created_at"`
	UpdatedAt  time.Time `csv:"-"`
	Purpose    string    `csv:"purpose"`
	File       string    `csv:"file"`
	AssignedID string    `csv:"assigned_id"`
}

func (s *Store) GetUpload(ctx context.Context, id string) (*Upload, error) {
	var v Upload
	if err := s.db.First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: failed to get upload %s: %w", id, err)
	}
	return &v, nil
}

func (s *Store) SetUpload(ctx context.Context, v *Upload) error {
	if err := s.db.Save(v).Error; err != nil {
		return fmt.Errorf("storage: failed to set upload %s: %w", v.ID, err)
	}
	return nil
}

func (s *Store) ListUploads(ctx context.Context, page, size int, order string, filters ...Filter) ([]*Upload, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * size
	vs := []*Upload{}

	q := s.db.Offset(offset).Limit(size)
	if order != "" {
		q = q.Order(order)
	}
	for _, f := range filters {
		q = q.Where(f.Query, f.Args...)
	}
	if err := q.Find(&vs).Error; err != nil {
		return nil, fmt.Errorf("storage: failed to list uploads: %w", err)
	}
	return vs, nil
}
