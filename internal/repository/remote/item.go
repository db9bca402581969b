package remote

import (
	"context"
	"io"
	"net/http"

	"rentsnap/internal/client"
	"rentsnap/internal/domain"
	"rentsnap/internal/repository"
)

type itemRepository struct {
	c *client.Client
}

func NewItemRepository(c *client.Client) repository.ItemRepository {
	return &itemRepository{c: c}
}

func (r *itemRepository) List(ctx context.Context, filter repository.ItemFilter) ([]*domain.Item, error) {
	var items client.List[*domain.Item]
	if err := r.c.Get(ctx, "/items/", filter.Values(), &items); err != nil {
		return nil, mapError(err)
	}
	return items, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	var item domain.Item
	if err := r.c.Get(ctx, idPath("items", id), nil, &item); err != nil {
		return nil, mapError(err)
	}
	return &item, nil
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	var out domain.Item
	if err := r.c.Mutate(ctx, http.MethodPost, "/items/", item, &out); err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

func (r *itemRepository) Update(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	var out domain.Item
	if err := r.c.Mutate(ctx, http.MethodPatch, idPath("items", item.ID), item, &out); err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

func (r *itemRepository) SetAvailability(ctx context.Context, id int32, patch domain.AvailabilityPatch) (*domain.Item, error) {
	var out domain.Item
	if err := r.c.Mutate(ctx, http.MethodPatch, idPath("items", id), patch, &out); err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

func (r *itemRepository) Delete(ctx context.Context, id int32) error {
	return mapError(r.c.Mutate(ctx, http.MethodDelete, idPath("items", id), nil, nil))
}

func (r *itemRepository) UploadImage(ctx context.Context, id int32, filename string, img io.Reader) (*domain.Item, error) {
	var out domain.Item
	if err := r.c.Upload(ctx, idPath("items", id, "upload-image"), "image", filename, img, &out); err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}
