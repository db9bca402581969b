package postgres

import (
	"context"
	"fmt"
	"strings"

	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
	"rentsnap/internal/repository"
)

type itemRepository struct {
	db DBTX
}

const itemSelect = `SELECT i.id, i.name, i.description, i.category_id, c.name, i.price_per_day_cents, i.deposit_cents,
       i.image_url, i.availability_status, i.available_from_date, i.owner_id,
       COALESCE(NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), u.username),
       i.location, i.rating, i.reviews_count, i.delivery_method, i.created_at, i.updated_at
  FROM items i
  JOIN categories c ON c.id = i.category_id
  JOIN users u ON u.id = i.owner_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	i := &domain.Item{}
	var from domain.Date
	err := row.Scan(&i.ID, &i.Name, &i.Description, &i.CategoryID, &i.CategoryName, &i.PricePerDay, &i.SecurityDeposit,
		&i.ImageURL, &i.AvailabilityStatus, &from, &i.OwnerID, &i.OwnerName,
		&i.Location, &i.Rating, &i.ReviewsCount, &i.DeliveryMethod, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if !from.IsZero() {
		i.AvailableFromDate = &from
	}
	return i, nil
}

func (r *itemRepository) List(ctx context.Context, f repository.ItemFilter) ([]*domain.Item, error) {
	var where []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CategoryID != 0 {
		add("i.category_id = $%d", f.CategoryID)
	}
	if f.OwnerID != 0 {
		add("i.owner_id = $%d", f.OwnerID)
	}
	if f.MinPrice != nil {
		add("i.price_per_day_cents >= $%d", int64(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		add("i.price_per_day_cents <= $%d", int64(*f.MaxPrice))
	}
	if f.Available != nil {
		if *f.Available {
			add("i.availability_status = $%d", string(domain.AvailabilityAvailable))
		} else {
			add("i.availability_status <> $%d", string(domain.AvailabilityAvailable))
		}
	}
	if f.Search != "" {
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(LOWER(i.name) LIKE $%d OR LOWER(i.description) LIKE $%d)", n, n))
	}

	query := itemSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY i.created_at DESC, i.id DESC"

	logger.DatabaseCall("itemRepository.List", query)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("itemRepository.List", 0, err)
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	logger.DatabaseResult("itemRepository.List", int64(len(items)), rows.Err())
	return items, rows.Err()
}

func (r *itemRepository) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	i, err := scanItem(r.db.QueryRowContext(ctx, itemSelect+` WHERE i.id = $1`, id))
	if err != nil {
		return nil, mapError(err, "item", id)
	}
	return i, nil
}

func (r *itemRepository) Create(ctx context.Context, i *domain.Item) error {
	query := `INSERT INTO items (name, description, category_id, price_per_day_cents, deposit_cents, image_url,
	                             availability_status, available_from_date, owner_id, location, delivery_method)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, i.Name, i.Description, i.CategoryID, i.PricePerDay, i.SecurityDeposit, i.ImageURL,
		i.AvailabilityStatus, i.AvailableFromDate, i.OwnerID, i.Location, i.DeliveryMethod).
		Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	return mapError(err, "item", i.Name)
}

func (r *itemRepository) Update(ctx context.Context, i *domain.Item) error {
	query := `UPDATE items SET name=$1, description=$2, category_id=$3, price_per_day_cents=$4, deposit_cents=$5,
	                 image_url=$6, availability_status=$7, available_from_date=$8, location=$9, rating=$10,
	                 reviews_count=$11, delivery_method=$12, updated_at=NOW()
	          WHERE id=$13`
	return exec(ctx, r.db, "itemRepository.Update", "item", i.ID, query,
		i.Name, i.Description, i.CategoryID, i.PricePerDay, i.SecurityDeposit, i.ImageURL, i.AvailabilityStatus,
		i.AvailableFromDate, i.Location, i.Rating, i.ReviewsCount, i.DeliveryMethod, i.ID)
}

func (r *itemRepository) Lock(ctx context.Context, id int32) error {
	var locked int32
	err := r.db.QueryRowContext(ctx, `SELECT id FROM items WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	return mapError(err, "item", id)
}

func (r *itemRepository) Delete(ctx context.Context, id int32) error {
	return exec(ctx, r.db, "itemRepository.Delete", "item", id, `DELETE FROM items WHERE id = $1`, id)
}
