package repository

import (
	"net/url"
	"strconv"
	"strings"

	"rentsnap/internal/domain"
)

// ItemFilter narrows GET /items/. Zero fields do not filter.
type ItemFilter struct {
	CategoryID int32
	Search     string
	MinPrice   *domain.Money
	MaxPrice   *domain.Money
	Available  *bool
	OwnerID    int32
}

func (f ItemFilter) Values() url.Values {
	v := url.Values{}
	if f.CategoryID != 0 {
		v.Set("category", strconv.Itoa(int(f.CategoryID)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		v.Set("search", s)
	}
	if f.MinPrice != nil {
		v.Set("min_price", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		v.Set("max_price", f.MaxPrice.String())
	}
	if f.Available != nil {
		v.Set("is_available", strconv.FormatBool(*f.Available))
	}
	if f.OwnerID != 0 {
		v.Set("owner", strconv.Itoa(int(f.OwnerID)))
	}
	return v
}

// ParseItemFilter is the inverse of Values. Unparseable values are reported
// as validation errors.
func ParseItemFilter(v url.Values) (ItemFilter, error) {
	var f ItemFilter
	var err error
	if f.CategoryID, err = parseID(v, "category"); err != nil {
		return f, err
	}
	if f.OwnerID, err = parseID(v, "owner"); err != nil {
		return f, err
	}
	f.Search = strings.TrimSpace(v.Get("search"))
	for _, p := range []struct {
		key string
		dst **domain.Money
	}{{"min_price", &f.MinPrice}, {"max_price", &f.MaxPrice}} {
		if s := v.Get(p.key); s != "" {
			m, err := domain.ParseMoney(s)
			if err != nil {
				return f, &domain.ValidationError{Field: p.key, Message: err.Error()}
			}
			*p.dst = &m
		}
	}
	if s := v.Get("is_available"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return f, &domain.ValidationError{Field: "is_available", Message: "expected true or false"}
		}
		f.Available = &b
	}
	return f, nil
}

// Match reports whether item passes the filter.
func (f ItemFilter) Match(item *domain.Item) bool {
	if f.CategoryID != 0 && item.CategoryID != f.CategoryID {
		return false
	}
	if f.OwnerID != 0 && item.OwnerID != f.OwnerID {
		return false
	}
	if f.MinPrice != nil && item.PricePerDay < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && item.PricePerDay > *f.MaxPrice {
		return false
	}
	if f.Available != nil && (item.AvailabilityStatus == domain.AvailabilityAvailable) != *f.Available {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(item.Name), q) && !strings.Contains(strings.ToLower(item.Description), q) {
			return false
		}
	}
	return true
}

// RequestFilter narrows GET /requests/.
type RequestFilter struct {
	RequesterID int32
	OwnerID     int32
	ItemID      int32
	Status      domain.RequestStatus
}

func (f RequestFilter) Values() url.Values {
	v := url.Values{}
	if f.RequesterID != 0 {
		v.Set("requester", strconv.Itoa(int(f.RequesterID)))
	}
	if f.OwnerID != 0 {
		v.Set("owner", strconv.Itoa(int(f.OwnerID)))
	}
	if f.ItemID != 0 {
		v.Set("item", strconv.Itoa(int(f.ItemID)))
	}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	return v
}

func ParseRequestFilter(v url.Values) (RequestFilter, error) {
	var f RequestFilter
	var err error
	if f.RequesterID, err = parseID(v, "requester"); err != nil {
		return f, err
	}
	if f.OwnerID, err = parseID(v, "owner"); err != nil {
		return f, err
	}
	if f.ItemID, err = parseID(v, "item"); err != nil {
		return f, err
	}
	f.Status = domain.RequestStatus(v.Get("status"))
	return f, nil
}

func (f RequestFilter) Match(r *domain.RentalRequest) bool {
	return (f.RequesterID == 0 || r.RequesterID == f.RequesterID) &&
		(f.OwnerID == 0 || r.OwnerID == f.OwnerID) &&
		(f.ItemID == 0 || r.ItemID == f.ItemID) &&
		(f.Status == "" || r.Status == f.Status)
}

func parseID(v url.Values, key string) (int32, error) {
	s := v.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil || n < 0 {
		return 0, &domain.ValidationError{Field: key, Message: "expected a numeric id"}
	}
	return int32(n), nil
}
