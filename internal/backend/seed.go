package backend

import (
	"context"
	"errors"

	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
	"rentsnap/internal/repository"
)

// DefaultCategories are created by Seed.
var DefaultCategories = []string{"Electronics", "Tools", "Camping Gear", "Party Supplies", "Sports Equipment", "Vehicles"}

type seedItem struct {
	owner    string
	name     string
	desc     string
	price    domain.Money
	category string
	location string
	delivery domain.DeliveryMethod
}

var demoUsers = []string{"john_doe", "jane_smith", "mike_renter", "alice_lender", "bob_builder"}

var demoItems = []seedItem{
	{"john_doe", "Canon EOS R5 Camera", "Professional mirrorless camera with a 24-70mm lens.", 8500, "Electronics", "Downtown Metro", domain.DeliveryPickUp},
	{"jane_smith", "Bosch Hammer Drill", "Heavy duty drill for concrete and masonry. Comes with bit set.", 2500, "Tools", "Westside Suburbs", domain.DeliveryBoth},
	{"alice_lender", "4-Person Tent", "Spacious waterproof tent, easy setup.", 1500, "Camping Gear", "North Hills", domain.DeliveryDelivery},
	{"john_doe", "DJ Speaker Set", "Pair of 1000W active speakers with stands and cables.", 12000, "Party Supplies", "Downtown Metro", domain.DeliveryPickUp},
	{"mike_renter", "Mountain Bike", "Full suspension trail bike, size L.", 4500, "Sports Equipment", "East Riverside", domain.DeliveryBoth},
}

// Seed creates the default categories and, when demo is set, a handful of
// users (password "password123") with listed items. Existing rows are kept,
// so running it twice is harmless.
func (b *Backend) Seed(ctx context.Context, demo bool) error {
	logger.EnterMethod("Backend.Seed", "demo", demo)
	existing, err := b.store.Categories().List(ctx)
	if err != nil {
		logger.ExitMethodWithError("Backend.Seed", err)
		return err
	}
	byName := map[string]int32{}
	for _, c := range existing {
		byName[c.Name] = c.ID
	}
	for _, name := range DefaultCategories {
		if _, ok := byName[name]; ok {
			continue
		}
		c := &domain.Category{Name: name}
		if err := b.store.Categories().Create(ctx, c); err != nil {
			logger.ExitMethodWithError("Backend.Seed", err)
			return err
		}
		byName[name] = c.ID
	}
	if !demo {
		logger.ExitMethod("Backend.Seed", "categories", len(byName))
		return nil
	}

	owners := map[string]int32{}
	for _, name := range demoUsers {
		u, _, err := b.store.Users().GetByUsername(ctx, name)
		if errors.Is(err, domain.ErrNotFound) {
			res, regErr := b.Register(ctx, domain.Registration{Username: name, Email: name + "@example.com", Password: "password123"})
			if regErr != nil {
				logger.ExitMethodWithError("Backend.Seed", regErr)
				return regErr
			}
			u = &res.User
		} else if err != nil {
			logger.ExitMethodWithError("Backend.Seed", err)
			return err
		}
		owners[name] = u.ID
	}

	created := 0
	for _, s := range demoItems {
		listed, err := b.store.Items().List(ctx, repository.ItemFilter{OwnerID: owners[s.owner], Search: s.name})
		if err != nil {
			logger.ExitMethodWithError("Backend.Seed", err)
			return err
		}
		if len(listed) > 0 {
			continue
		}
		item := &domain.Item{
			Name:            s.name,
			Description:     s.desc,
			CategoryID:      byName[s.category],
			PricePerDay:     s.price,
			SecurityDeposit: s.price * 2,
			Location:        s.location,
			DeliveryMethod:  s.delivery,
		}
		if _, err := b.CreateItem(ctx, owners[s.owner], item); err != nil {
			logger.ExitMethodWithError("Backend.Seed", err)
			return err
		}
		created++
	}
	logger.ExitMethod("Backend.Seed", "categories", len(byName), "items", created)
	return nil
}
