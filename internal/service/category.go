package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rentsnap/internal/client"
	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
	"rentsnap/internal/repository"
)

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

// Resolve maps a free-text category name onto its id, creating the category
// on first use. Names match case-insensitively after trimming. When another
// client creates the same name concurrently the backend answers 409 and the
// existing category is reused.
func (s *categoryService) Resolve(ctx context.Context, name string) (int32, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, &domain.ValidationError{Field: "category", Message: "category is required"}
	}

	if id, ok, err := s.lookup(ctx, name); err != nil || ok {
		return id, err
	}

	created, err := s.categoryRepo.Create(ctx, name)
	if err == nil {
		return created.ID, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return 0, fmt.Errorf("create category %q: %w", name, err)
	}

	logger.InfoContext(ctx, "category created concurrently, reusing it", "name", name)
	id, ok, lerr := s.lookup(client.FreshRead(ctx), name)
	if lerr != nil {
		return 0, lerr
	}
	if !ok {
		return 0, fmt.Errorf("category %q reported as existing but not listed: %w", name, err)
	}
	return id, nil
}

func (s *categoryService) lookup(ctx context.Context, name string) (int32, bool, error) {
	cats, err := s.categoryRepo.List(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range cats {
		if strings.EqualFold(strings.TrimSpace(c.Name), name) {
			return c.ID, true, nil
		}
	}
	return 0, false, nil
}
