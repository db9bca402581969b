package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
	"rentsnap/internal/repository"
	"rentsnap/internal/storage"
)

// OptionalDate tells an absent JSON field apart from an explicit null.
type OptionalDate struct {
	Set   bool
	Value *domain.Date
}

func (o *OptionalDate) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var d domain.Date
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	o.Value = &d
	return nil
}

// ItemPatch is the body of PATCH /items/{id}/. Absent fields are left alone.
type ItemPatch struct {
	Name               *string                    `json:"name"`
	Description        *string                    `json:"description"`
	CategoryID         *int32                     `json:"category"`
	PricePerDay        *domain.Money              `json:"price_per_day"`
	SecurityDeposit    *domain.Money              `json:"security_deposit"`
	AvailabilityStatus *domain.AvailabilityStatus `json:"availability_status"`
	AvailableFromDate  OptionalDate               `json:"available_from_date"`
	Location           *string                    `json:"location"`
	DeliveryMethod     *domain.DeliveryMethod     `json:"delivery_method"`
}

func (p ItemPatch) apply(i *domain.Item) {
	if p.Name != nil {
		i.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		i.Description = *p.Description
	}
	if p.CategoryID != nil {
		i.CategoryID = *p.CategoryID
	}
	if p.PricePerDay != nil {
		i.PricePerDay = *p.PricePerDay
	}
	if p.SecurityDeposit != nil {
		i.SecurityDeposit = *p.SecurityDeposit
	}
	if p.AvailabilityStatus != nil {
		i.AvailabilityStatus = *p.AvailabilityStatus
	}
	if p.AvailableFromDate.Set {
		i.AvailableFromDate = p.AvailableFromDate.Value
	}
	if p.Location != nil {
		i.Location = *p.Location
	}
	if p.DeliveryMethod != nil {
		i.DeliveryMethod = *p.DeliveryMethod
	}
}

func (b *Backend) ListItems(ctx context.Context, filter repository.ItemFilter) ([]*domain.Item, error) {
	return b.store.Items().List(ctx, filter)
}

func (b *Backend) GetItem(ctx context.Context, id int32) (*domain.Item, error) {
	return b.store.Items().GetByID(ctx, id)
}

func (b *Backend) CreateItem(ctx context.Context, userID int32, item *domain.Item) (*domain.Item, error) {
	logger.EnterMethod("Backend.CreateItem", "userID", userID, "name", item.Name)
	item.Name = strings.TrimSpace(item.Name)
	item.ID = 0
	item.OwnerID = userID
	item.ImageURL = ""
	item.Rating, item.ReviewsCount = 0, 0
	if item.AvailabilityStatus == "" {
		item.AvailabilityStatus = domain.AvailabilityAvailable
	}
	if item.DeliveryMethod == "" {
		item.DeliveryMethod = domain.DeliveryPickUp
	}
	if item.AvailabilityStatus == domain.AvailabilityRented {
		err := &domain.ValidationError{Field: "availability_status", Message: "Only a handed over rental can mark the item rented."}
		logger.ExitMethodWithError("Backend.CreateItem", err)
		return nil, err
	}
	item.AvailableFromDate = nil
	if err := validateItem(item); err != nil {
		logger.ExitMethodWithError("Backend.CreateItem", err)
		return nil, err
	}
	if err := b.store.Items().Create(ctx, item); err != nil {
		logger.ExitMethodWithError("Backend.CreateItem", err)
		return nil, err
	}
	logger.ExitMethod("Backend.CreateItem", "itemID", item.ID)
	return b.store.Items().GetByID(ctx, item.ID)
}

func validateItem(item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if item.CategoryID == 0 {
		return required("category")
	}
	return nil
}

// PatchItem applies an owner's edit. Rented is set only while one of the
// item's requests is handed over, and then nothing else may be set.
func (b *Backend) PatchItem(ctx context.Context, userID, itemID int32, patch ItemPatch) (*domain.Item, error) {
	logger.EnterMethod("Backend.PatchItem", "userID", userID, "itemID", itemID)
	err := b.tx(ctx, func(tx repository.Store) error {
		item, err := tx.Items().GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item.OwnerID != userID {
			return fmt.Errorf("item %d belongs to another user: %w", itemID, domain.ErrForbidden)
		}
		reqs, err := tx.Requests().List(ctx, repository.RequestFilter{ItemID: itemID})
		if err != nil {
			return err
		}
		occupancy, _ := domain.Occupancy(item, reqs)
		out := occupancy.AvailabilityStatus == domain.AvailabilityRented
		if p := patch.AvailabilityStatus; p != nil && (*p == domain.AvailabilityRented) != out {
			msg := "Only a handed over rental can mark the item rented."
			if out {
				msg = fmt.Sprintf("The item is rented out until %s.", occupancy.AvailableFromDate)
			}
			return &domain.ValidationError{Field: "availability_status", Message: msg}
		}
		patch.apply(item)
		if out {
			item.AvailabilityStatus = domain.AvailabilityRented
			item.AvailableFromDate = occupancy.AvailableFromDate
		} else if item.AvailabilityStatus == domain.AvailabilityRented {
			item.AvailabilityStatus = domain.AvailabilityAvailable
		}
		if item.AvailabilityStatus != domain.AvailabilityRented {
			item.AvailableFromDate = nil
		}
		if err := validateItem(item); err != nil {
			return err
		}
		return tx.Items().Update(ctx, item)
	})
	if err != nil {
		logger.ExitMethodWithError("Backend.PatchItem", err)
		return nil, err
	}
	logger.ExitMethod("Backend.PatchItem", "itemID", itemID)
	return b.store.Items().GetByID(ctx, itemID)
}

// DeleteItem refuses while any request for the item is still live.
func (b *Backend) DeleteItem(ctx context.Context, userID, itemID int32) error {
	logger.EnterMethod("Backend.DeleteItem", "userID", userID, "itemID", itemID)
	var imageURL string
	err := b.tx(ctx, func(tx repository.Store) error {
		item, err := tx.Items().GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item.OwnerID != userID {
			return fmt.Errorf("item %d belongs to another user: %w", itemID, domain.ErrForbidden)
		}
		reqs, err := tx.Requests().List(ctx, repository.RequestFilter{ItemID: itemID})
		if err != nil {
			return err
		}
		for _, r := range reqs {
			if !r.Phase().Terminal() {
				return fmt.Errorf("request %d is %s: %w", r.ID, r.Phase(), domain.ErrItemInUse)
			}
		}
		imageURL = item.ImageURL
		return tx.Items().Delete(ctx, itemID)
	})
	if err != nil {
		logger.ExitMethodWithError("Backend.DeleteItem", err)
		return err
	}
	b.removeImage(ctx, imageURL)
	logger.ExitMethod("Backend.DeleteItem", "itemID", itemID)
	return nil
}

// UploadImage stores a downscaled JPEG copy of the upload and points the item at it.
func (b *Backend) UploadImage(ctx context.Context, userID, itemID int32, r io.Reader) (*domain.Item, error) {
	logger.EnterMethod("Backend.UploadImage", "userID", userID, "itemID", itemID)
	if b.storage == nil || b.images == nil {
		return nil, fmt.Errorf("image uploads are not configured")
	}
	item, err := b.store.Items().GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != userID {
		return nil, fmt.Errorf("item %d belongs to another user: %w", itemID, domain.ErrForbidden)
	}
	data, err := b.images.Process(r)
	if err != nil {
		logger.ExitMethodWithError("Backend.UploadImage", err)
		return nil, &domain.ValidationError{Field: "image", Message: err.Error()}
	}
	url, err := b.storage.Put(ctx, storage.ItemImageKey(itemID, ".jpg"), "image/jpeg", data)
	if err != nil {
		logger.ExitMethodWithError("Backend.UploadImage", err)
		return nil, err
	}

	var previous string
	err = b.tx(ctx, func(tx repository.Store) error {
		cur, err := tx.Items().GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		previous = cur.ImageURL
		cur.ImageURL = url
		return tx.Items().Update(ctx, cur)
	})
	if err != nil {
		b.removeImage(ctx, url)
		logger.ExitMethodWithError("Backend.UploadImage", err)
		return nil, err
	}
	b.removeImage(ctx, previous)
	logger.ExitMethod("Backend.UploadImage", "itemID", itemID, "url", url)
	return b.store.Items().GetByID(ctx, itemID)
}

func (b *Backend) removeImage(ctx context.Context, url string) {
	if url == "" || b.storage == nil {
		return
	}
	key, ok := b.storage.KeyFromURL(url)
	if !ok {
		return
	}
	if err := b.storage.Delete(ctx, key); err != nil {
		logger.WarnContext(ctx, "removing stored image failed", "key", key, "error", err)
	}
}
