// Package availability decides whether a rental date range can be booked and
// what it costs.
package availability

import (
	"errors"
	"fmt"

	"rentsnap/internal/domain"
)

// ErrIncompleteSelection means the user has not picked both dates yet.
// Callers treat it as "no quote", not as a failure.
var ErrIncompleteSelection = errors.New("incomplete selection")

type Calculator struct {
	// Now returns the current day. Defaults to domain.Today.
	Now func() domain.Date
}

func NewCalculator() *Calculator {
	return &Calculator{Now: domain.Today}
}

func (c *Calculator) today() domain.Date {
	if c == nil || c.Now == nil {
		return domain.Today()
	}
	return c.Now()
}

// Check explains why candidate cannot be booked, or returns nil when it can.
func (c *Calculator) Check(candidate domain.DateRange, booked []domain.DateRange) error {
	if !candidate.Complete() {
		return ErrIncompleteSelection
	}
	if candidate.End.Before(candidate.Start) {
		return &domain.ValidationError{Field: "end_date", Message: "end date must not be before start date"}
	}
	if candidate.Start.Before(c.today()) {
		return &domain.ValidationError{Field: "start_date", Message: "start date must not be in the past"}
	}
	for _, b := range booked {
		if !b.Complete() {
			continue
		}
		if candidate.Overlaps(b) {
			return &domain.ValidationError{
				Field:   "start_date",
				Message: fmt.Sprintf("dates %s are already booked", b),
			}
		}
	}
	return nil
}

// IsAdmissible reports whether candidate is a complete, forward-looking range
// that touches none of the booked days.
func (c *Calculator) IsAdmissible(candidate domain.DateRange, booked []domain.DateRange) bool {
	return c.Check(candidate, booked) == nil
}

// Price is pricePerDay times the inclusive day count. It returns
// ErrIncompleteSelection while a bound is missing and a ValidationError for an
// inverted range or a total too large to represent.
func (c *Calculator) Price(candidate domain.DateRange, pricePerDay domain.Money) (domain.Money, error) {
	if !candidate.Complete() {
		return 0, ErrIncompleteSelection
	}
	if candidate.End.Before(candidate.Start) {
		return 0, &domain.ValidationError{Field: "end_date", Message: "end date must not be before start date"}
	}
	price, err := pricePerDay.Times(candidate.Days())
	if err != nil {
		return 0, &domain.ValidationError{Field: "total_price", Message: "total price is too large"}
	}
	return price, nil
}

// Quote is what a booking calendar shows for the current selection.
type Quote struct {
	Days       int
	Price      domain.Money
	Deposit    domain.Money
	Total      domain.Money
	Admissible bool
	// Reason is set when the range is complete but cannot be booked.
	Reason error
}

// Quote combines Check and Price. It returns ErrIncompleteSelection while a
// bound is missing.
func (c *Calculator) Quote(candidate domain.DateRange, booked []domain.DateRange, pricePerDay, deposit domain.Money) (*Quote, error) {
	if !candidate.Complete() {
		return nil, ErrIncompleteSelection
	}
	q := &Quote{Deposit: deposit}
	if err := c.Check(candidate, booked); err != nil {
		q.Reason = err
	} else {
		q.Admissible = true
	}
	price, err := c.Price(candidate, pricePerDay)
	var verr *domain.ValidationError
	switch {
	case err == nil:
		q.Days = candidate.Days()
		q.Price = price
		q.Total = price + deposit
		if q.Total < price {
			q.Total, q.Admissible = 0, false
			q.Reason = &domain.ValidationError{Field: "total_price", Message: "total price is too large"}
		}
	case errors.As(err, &verr) && verr.Field == "total_price":
		q.Admissible = false
		q.Reason = err
	}
	return q, nil
}

// Booked collects the ranges of requests that hold their dates against other requesters.
func Booked(requests []*domain.RentalRequest) []domain.DateRange {
	var out []domain.DateRange
	for _, r := range requests {
		if r.Phase().Reserves() {
			out = append(out, r.Range())
		}
	}
	return out
}

// Conflict reports whether another request on the same item stands in the
// way of action on r. Approval needs r's dates clear of every reserving
// request; handover needs the item not to be out with someone else. The
// error wraps domain.ErrInvalidTransition.
func Conflict(action domain.Action, r *domain.RentalRequest, siblings []*domain.RentalRequest) error {
	for _, o := range siblings {
		if o.ID == r.ID {
			continue
		}
		switch action {
		case domain.ActionApprove:
			if o.Phase().Reserves() && r.Range().Overlaps(o.Range()) {
				return fmt.Errorf("dates %s overlap request %d: %w", r.Range(), o.ID, domain.ErrInvalidTransition)
			}
		case domain.ActionConfirmHandover:
			if o.Phase().Occupying() {
				return fmt.Errorf("item is still out with request %d: %w", o.ID, domain.ErrInvalidTransition)
			}
		}
	}
	return nil
}
