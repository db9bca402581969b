package postgres

import (
	"context"

	"rentsnap/internal/domain"
)

type categoryRepository struct {
	db DBTX
}

func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY LOWER(name)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Category
	for rows.Next() {
		c := &domain.Category{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *categoryRepository) GetByID(ctx context.Context, id int32) (*domain.Category, error) {
	c := &domain.Category{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, mapError(err, "category", id)
	}
	return c, nil
}

// Create relies on the unique index over LOWER(name).
func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	err := r.db.QueryRowContext(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	return mapError(err, "category", c.Name)
}
