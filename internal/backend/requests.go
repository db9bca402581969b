package backend

import (
	"context"
	"errors"
	"fmt"

	"rentsnap/internal/availability"
	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
	"rentsnap/internal/repository"
	"rentsnap/internal/security"
)

// redact hides the codes a viewer must learn from the other party: the
// handover code is the owner's, the return code the requester's.
func redact(r *domain.RentalRequest, viewerID int32) *domain.RentalRequest {
	c := *r
	if viewerID != r.OwnerID {
		c.HandoverCode = ""
	}
	if viewerID != r.RequesterID {
		c.ReturnCode = ""
	}
	return &c
}

// ListRequests returns every matching request, not only the viewer's own, so
// that clients can work out an item's booked dates.
func (b *Backend) ListRequests(ctx context.Context, viewerID int32, filter repository.RequestFilter) ([]*domain.RentalRequest, error) {
	reqs, err := b.store.Requests().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.RentalRequest, len(reqs))
	for i, r := range reqs {
		out[i] = redact(r, viewerID)
	}
	return out, nil
}

func (b *Backend) GetRequest(ctx context.Context, viewerID, requestID int32) (*domain.RentalRequest, error) {
	r, err := b.store.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return redact(r, viewerID), nil
}

// CreateRequest prices the request itself; a client supplied total that
// disagrees is logged and ignored.
func (b *Backend) CreateRequest(ctx context.Context, userID int32, nr domain.NewRequest) (*domain.RentalRequest, error) {
	logger.EnterMethod("Backend.CreateRequest", "userID", userID, "itemID", nr.ItemID)
	if nr.ItemID == 0 {
		return nil, required("item")
	}
	dates := domain.DateRange{Start: nr.StartDate, End: nr.EndDate}
	req := &domain.RentalRequest{
		ItemID:      nr.ItemID,
		RequesterID: userID,
		StartDate:   nr.StartDate,
		EndDate:     nr.EndDate,
		Status:      domain.StatusPending,
		RequestedAt: b.now().UTC(),
	}
	err := b.tx(ctx, func(tx repository.Store) error {
		item, err := tx.Items().GetByID(ctx, nr.ItemID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return &domain.ValidationError{Field: "item", Message: fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", nr.ItemID)}
			}
			return err
		}
		if item.OwnerID == userID {
			return &domain.ValidationError{Field: "item", Message: "You cannot rent your own item."}
		}
		if item.AvailabilityStatus != domain.AvailabilityAvailable {
			return &domain.ValidationError{Field: "item", Message: fmt.Sprintf("This item is %s.", item.AvailabilityStatus)}
		}
		existing, err := tx.Requests().List(ctx, repository.RequestFilter{ItemID: item.ID})
		if err != nil {
			return err
		}
		if err := b.calc.Check(dates, availability.Booked(existing)); err != nil {
			if errors.Is(err, availability.ErrIncompleteSelection) {
				return &domain.ValidationError{Field: "start_date", Message: "start_date and end_date are required."}
			}
			return err
		}
		price, err := b.calc.Price(dates, item.PricePerDay)
		if err != nil {
			return err
		}
		if nr.TotalPrice != 0 && nr.TotalPrice != price {
			logger.WarnContext(ctx, "client priced request differently",
				"item_id", item.ID, "client", nr.TotalPrice.String(), "server", price.String())
		}
		req.OwnerID = item.OwnerID
		req.TotalPrice = price
		req.DepositAmount = item.SecurityDeposit
		if err := tx.Requests().Create(ctx, req); err != nil {
			return err
		}
		created, err := tx.Requests().GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		req = created
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("Backend.CreateRequest", err)
		return nil, err
	}
	logger.ExitMethod("Backend.CreateRequest", "requestID", req.ID)
	return redact(req, userID), nil
}

// applyFunc mutates a request that Plan has cleared for the action.
type applyFunc func(tx repository.Store, r *domain.RentalRequest) error

// transition loads the request, checks the actor and the phase table, refuses
// approvals and handovers that would double-book the item, lets apply change it and stores it with an optimistic status check. Item
// occupancy and rating are re-derived in the same transaction.
func (b *Backend) transition(ctx context.Context, action domain.Action, userID, requestID int32, apply applyFunc) (*domain.RentalRequest, error) {
	method := "Backend." + string(action)
	logger.EnterMethod(method, "userID", userID, "requestID", requestID)
	var out *domain.RentalRequest
	err := b.tx(ctx, func(tx repository.Store) error {
		r, err := tx.Requests().GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := domain.CanPerform(action, r, userID); err != nil {
			return fmt.Errorf("user %d may not %s request %d: %w", userID, action, requestID, err)
		}
		from := r.Phase()
		_, noop, err := domain.Plan(action, from)
		if err != nil {
			return err
		}
		if noop {
			out = r
			return nil
		}
		if action == domain.ActionApprove || action == domain.ActionConfirmHandover {
			if err := tx.Items().Lock(ctx, r.ItemID); err != nil {
				return err
			}
			siblings, err := tx.Requests().List(ctx, repository.RequestFilter{ItemID: r.ItemID})
			if err != nil {
				return err
			}
			if err := availability.Conflict(action, r, siblings); err != nil {
				return &domain.TransitionError{Action: action, From: from, Err: err}
			}
		}
		expected := r.Status
		if err := apply(tx, r); err != nil {
			var te *domain.TransitionError
			if !errors.As(err, &te) && errors.Is(err, domain.ErrCodeMismatch) {
				err = &domain.TransitionError{Action: action, From: from, Err: err}
			}
			return err
		}
		if err := tx.Requests().Update(ctx, r, expected); err != nil {
			return err
		}
		if err := b.syncOccupancy(ctx, tx, r.ItemID); err != nil {
			return err
		}
		if action == domain.ActionRate {
			if err := b.updateRating(ctx, tx, r.ItemID); err != nil {
				return err
			}
		}
		out, err = tx.Requests().GetByID(ctx, requestID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError(method, err)
		return nil, err
	}
	logger.ExitMethod(method, "phase", out.Phase().String())
	return redact(out, userID), nil
}

// PatchRequest handles status changes sent as PATCH /requests/{id}/.
func (b *Backend) PatchRequest(ctx context.Context, userID, requestID int32, patch domain.RequestPatch) (*domain.RentalRequest, error) {
	if patch.Status == nil {
		return nil, required("status")
	}
	action, ok := domain.ActionForStatus(*patch.Status)
	if !ok {
		return nil, &domain.TransitionError{Action: domain.Action("set-status-" + string(*patch.Status)), Err: domain.ErrInvalidTransition}
	}
	switch action {
	case domain.ActionApprove:
		return b.transition(ctx, action, userID, requestID, func(tx repository.Store, r *domain.RentalRequest) error {
			code, err := security.NewCode()
			if err != nil {
				return err
			}
			r.Status = domain.StatusApproved
			r.HandoverCode = code
			return nil
		})
	case domain.ActionRate:
		if patch.RatingGiven == nil {
			return nil, required("rating_given")
		}
		rating := *patch.RatingGiven
		if rating < domain.MinRating || rating > domain.MaxRating {
			return nil, &domain.ValidationError{Field: "rating_given",
				Message: fmt.Sprintf("Ensure this value is between %d and %d.", domain.MinRating, domain.MaxRating)}
		}
		return b.transition(ctx, action, userID, requestID, func(tx repository.Store, r *domain.RentalRequest) error {
			r.Status = domain.StatusReceiptConfirmed
			r.RatingGiven = &rating
			return nil
		})
	default:
		to := *patch.Status
		return b.transition(ctx, action, userID, requestID, func(tx repository.Store, r *domain.RentalRequest) error {
			r.Status = to
			return nil
		})
	}
}

func (b *Backend) SimulatePayment(ctx context.Context, userID, requestID int32) (*domain.RentalRequest, error) {
	return b.transition(ctx, domain.ActionPay, userID, requestID, func(tx repository.Store, r *domain.RentalRequest) error {
		paid := b.now().UTC()
		r.Status = domain.StatusApproved
		r.PaidAt = &paid
		return nil
	})
}

// ConfirmHandover checks the owner's code typed in by the requester and
// issues the return code.
func (b *Backend) ConfirmHandover(ctx context.Context, userID, requestID int32, code string) (*domain.RentalRequest, error) {
	if security.NormalizeCode(code) == "" {
		return nil, required("code")
	}
	return b.transition(ctx, domain.ActionConfirmHandover, userID, requestID, func(tx repository.Store, r *domain.RentalRequest) error {
		if !security.CodesEqual(r.HandoverCode, code) {
			return domain.ErrCodeMismatch
		}
		returnCode, err := security.NewCode()
		if err != nil {
			return err
		}
		at := b.now().UTC()
		r.HandedOverAt = &at
		r.ReturnCode = returnCode
		return nil
	})
}

// ConfirmReturn checks the requester's code typed in by the owner.
func (b *Backend) ConfirmReturn(ctx context.Context, userID, requestID int32, code string) (*domain.RentalRequest, error) {
	if security.NormalizeCode(code) == "" {
		return nil, required("code")
	}
	return b.transition(ctx, domain.ActionConfirmReturn, userID, requestID, func(tx repository.Store, r *domain.RentalRequest) error {
		if !security.CodesEqual(r.ReturnCode, code) {
			return domain.ErrCodeMismatch
		}
		r.Status = domain.StatusCompleted
		return nil
	})
}

// syncOccupancy writes the item's Rented/Available state as derived from its requests.
func (b *Backend) syncOccupancy(ctx context.Context, tx repository.Store, itemID int32) error {
	item, err := tx.Items().GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	reqs, err := tx.Requests().List(ctx, repository.RequestFilter{ItemID: itemID})
	if err != nil {
		return err
	}
	patch, changed := domain.Occupancy(item, reqs)
	if !changed {
		return nil
	}
	logger.Debug("Item occupancy changed", "itemID", itemID, "from", item.AvailabilityStatus, "to", patch.AvailabilityStatus)
	item.AvailabilityStatus = patch.AvailabilityStatus
	item.AvailableFromDate = patch.AvailableFromDate
	return tx.Items().Update(ctx, item)
}

// updateRating recomputes the item's average over every rated request.
func (b *Backend) updateRating(ctx context.Context, tx repository.Store, itemID int32) error {
	item, err := tx.Items().GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	reqs, err := tx.Requests().List(ctx, repository.RequestFilter{ItemID: itemID})
	if err != nil {
		return err
	}
	var sum, count int32
	for _, r := range reqs {
		if r.RatingGiven != nil {
			sum += *r.RatingGiven
			count++
		}
	}
	item.ReviewsCount = count
	item.Rating = 0
	if count > 0 {
		item.Rating = float64(sum) / float64(count)
	}
	return tx.Items().Update(ctx, item)
}
