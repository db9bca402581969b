package service

import (
	"context"
	"fmt"
	"io"

	"rentsnap/internal/availability"
	"rentsnap/internal/client"
	"rentsnap/internal/domain"
	"rentsnap/internal/repository"
)

type itemService struct {
	itemRepo    repository.ItemRepository
	requestRepo repository.RequestRepository
	categories  CategoryService
}

func NewItemService(itemRepo repository.ItemRepository, requestRepo repository.RequestRepository, categories CategoryService) ItemService {
	return &itemService{itemRepo: itemRepo, requestRepo: requestRepo, categories: categories}
}

func (s *itemService) ListItems(ctx context.Context, filter repository.ItemFilter) ([]*domain.Item, error) {
	return s.itemRepo.List(ctx, filter)
}

func (s *itemService) GetItem(ctx context.Context, id int32) (*domain.Item, error) {
	return s.itemRepo.GetByID(ctx, id)
}

func (s *itemService) CreateItem(ctx context.Context, ownerID int32, item *domain.Item, categoryName string) (*domain.Item, error) {
	item.OwnerID = ownerID
	if item.AvailabilityStatus == "" {
		item.AvailabilityStatus = domain.AvailabilityAvailable
	}
	if item.DeliveryMethod == "" {
		item.DeliveryMethod = domain.DeliveryPickUp
	}
	if item.AvailabilityStatus == domain.AvailabilityRented {
		return nil, &domain.ValidationError{Field: "availability_status", Message: "a new item cannot start out rented"}
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := s.resolveCategory(ctx, item, categoryName); err != nil {
		return nil, err
	}
	return s.itemRepo.Create(ctx, item)
}

func (s *itemService) UpdateItem(ctx context.Context, ownerID int32, item *domain.Item, categoryName string) (*domain.Item, error) {
	current, err := s.itemRepo.GetByID(client.FreshRead(ctx), item.ID)
	if err != nil {
		return nil, err
	}
	if current.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	// Occupancy belongs to the rental lifecycle.
	item.AvailabilityStatus = ""
	item.AvailableFromDate = nil
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := s.resolveCategory(ctx, item, categoryName); err != nil {
		return nil, err
	}
	return s.itemRepo.Update(ctx, item)
}

func (s *itemService) resolveCategory(ctx context.Context, item *domain.Item, name string) error {
	if name == "" {
		if item.CategoryID == 0 {
			return &domain.ValidationError{Field: "category", Message: "category is required"}
		}
		return nil
	}
	id, err := s.categories.Resolve(ctx, name)
	if err != nil {
		return err
	}
	item.CategoryID = id
	return nil
}

// DeleteItem refuses while any request for the item is still in progress.
func (s *itemService) DeleteItem(ctx context.Context, ownerID, itemID int32) error {
	fresh := client.FreshRead(ctx)
	item, err := s.itemRepo.GetByID(fresh, itemID)
	if err != nil {
		return err
	}
	if item.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	reqs, err := s.requestRepo.List(fresh, repository.RequestFilter{ItemID: itemID})
	if err != nil {
		return err
	}
	for _, r := range reqs {
		if !r.Phase().Terminal() {
			return fmt.Errorf("request %d is %s: %w", r.ID, r.Status, domain.ErrItemInUse)
		}
	}
	return s.itemRepo.Delete(ctx, itemID)
}

func (s *itemService) UploadImage(ctx context.Context, ownerID, itemID int32, filename string, r io.Reader) (*domain.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return s.itemRepo.UploadImage(ctx, itemID, filename, r)
}

func (s *itemService) BookedRanges(ctx context.Context, itemID int32) ([]domain.DateRange, error) {
	reqs, err := s.requestRepo.List(ctx, repository.RequestFilter{ItemID: itemID})
	if err != nil {
		return nil, err
	}
	return availability.Booked(reqs), nil
}
