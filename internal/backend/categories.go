package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rentsnap/internal/domain"
)

func (b *Backend) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return b.store.Categories().List(ctx)
}

// CreateCategory answers domain.ErrConflict when the name exists in any case.
func (b *Backend) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, required("name")
	}
	c := &domain.Category{Name: name}
	if err := b.store.Categories().Create(ctx, c); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("category with this name already exists: %w", err)
		}
		return nil, err
	}
	return c, nil
}
