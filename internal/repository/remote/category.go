package remote

import (
	"context"
	"net/http"

	"rentsnap/internal/client"
	"rentsnap/internal/domain"
	"rentsnap/internal/repository"
)

type categoryRepository struct {
	c *client.Client
}

func NewCategoryRepository(c *client.Client) repository.CategoryRepository {
	return &categoryRepository{c: c}
}

func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	var out client.List[*domain.Category]
	if err := r.c.Get(ctx, "/categories/", nil, &out); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *categoryRepository) Create(ctx context.Context, name string) (*domain.Category, error) {
	var out domain.Category
	if err := r.c.Mutate(ctx, http.MethodPost, "/categories/", domain.Category{Name: name}, &out); err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}
