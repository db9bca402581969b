package domain

import "time"

type AvailabilityStatus string

const (
	AvailabilityAvailable   AvailabilityStatus = "Available"
	AvailabilityRented      AvailabilityStatus = "Rented"
	AvailabilityUnavailable AvailabilityStatus = "Unavailable"
)

func (s AvailabilityStatus) Valid() bool {
	switch s {
	case AvailabilityAvailable, AvailabilityRented, AvailabilityUnavailable:
		return true
	}
	return false
}

type DeliveryMethod string

const (
	DeliveryPickUp   DeliveryMethod = "Pick Up"
	DeliveryDelivery DeliveryMethod = "Delivery"
	DeliveryBoth     DeliveryMethod = "Both"
)

func (m DeliveryMethod) Valid() bool {
	switch m {
	case DeliveryPickUp, DeliveryDelivery, DeliveryBoth:
		return true
	}
	return false
}

type Item struct {
	ID                 int32              `json:"id"`
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	CategoryID         int32              `json:"category"`
	CategoryName       string             `json:"category_name,omitempty"`
	PricePerDay        Money              `json:"price_per_day"`
	SecurityDeposit    Money              `json:"security_deposit"`
	ImageURL           string             `json:"image_url,omitempty"`
	AvailabilityStatus AvailabilityStatus `json:"availability_status"`
	AvailableFromDate  *Date              `json:"available_from_date,omitempty"`
	OwnerID            int32              `json:"owner_id"`
	OwnerName          string             `json:"owner_name,omitempty"`
	Location           string             `json:"location,omitempty"`
	Rating             float64            `json:"rating"`
	ReviewsCount       int32              `json:"reviews_count"`
	DeliveryMethod     DeliveryMethod     `json:"delivery_method"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Validate checks the owner-editable fields.
func (i *Item) Validate() error {
	if i.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if i.PricePerDay < 0 {
		return &ValidationError{Field: "price_per_day", Message: "price per day must not be negative"}
	}
	if i.SecurityDeposit < 0 {
		return &ValidationError{Field: "security_deposit", Message: "security deposit must not be negative"}
	}
	if i.DeliveryMethod != "" && !i.DeliveryMethod.Valid() {
		return &ValidationError{Field: "delivery_method", Message: "unknown delivery method " + string(i.DeliveryMethod)}
	}
	if i.AvailabilityStatus != "" && !i.AvailabilityStatus.Valid() {
		return &ValidationError{Field: "availability_status", Message: "unknown availability status " + string(i.AvailabilityStatus)}
	}
	return nil
}

// AvailabilityPatch is the body used to flip an item's rented state.
type AvailabilityPatch struct {
	AvailabilityStatus AvailabilityStatus `json:"availability_status"`
	AvailableFromDate  *Date              `json:"available_from_date"`
}

type Category struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

// Occupancy derives an item's availability from its rental requests. An item
// is Rented while a request is handed over and becomes Available again once
// none is. An owner's Unavailable marking is left alone. changed is false when
// current already matches.
func Occupancy(item *Item, requests []*RentalRequest) (patch AvailabilityPatch, changed bool) {
	var holder *RentalRequest
	for _, r := range requests {
		if r.ItemID != item.ID || !r.Phase().Occupying() {
			continue
		}
		if holder == nil || r.EndDate.After(holder.EndDate) {
			holder = r
		}
	}
	if holder != nil {
		end := holder.EndDate
		patch = AvailabilityPatch{AvailabilityStatus: AvailabilityRented, AvailableFromDate: &end}
		changed = item.AvailabilityStatus != AvailabilityRented ||
			item.AvailableFromDate == nil || !item.AvailableFromDate.Equal(end)
		return patch, changed
	}
	if item.AvailabilityStatus == AvailabilityRented {
		return AvailabilityPatch{AvailabilityStatus: AvailabilityAvailable}, true
	}
	return AvailabilityPatch{AvailabilityStatus: item.AvailabilityStatus}, false
}
