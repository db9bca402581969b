package service

import (
	"context"
	"errors"
	"fmt"

	"rentsnap/internal/availability"
	"rentsnap/internal/client"
	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
	"rentsnap/internal/repository"
	"rentsnap/internal/security"
)

// eventFor is the notification each successful action sends to the counterpart.
var eventFor = map[domain.Action]domain.EventType{
	domain.ActionApprove:         domain.EventRequestApproved,
	domain.ActionReject:          domain.EventRequestRejected,
	domain.ActionCancel:          domain.EventRequestCancelled,
	domain.ActionRequirePayment:  domain.EventPaymentRequired,
	domain.ActionPay:             domain.EventPaymentConfirmed,
	domain.ActionConfirmHandover: domain.EventHandoverConfirmed,
	domain.ActionConfirmReturn:   domain.EventReturnConfirmed,
	domain.ActionRate:            domain.EventRatingReceived,
}

type rentalService struct {
	requestRepo repository.RequestRepository
	itemRepo    repository.ItemRepository
	notifier    NotificationService
	calc        *availability.Calculator
}

func NewRentalService(
	requestRepo repository.RequestRepository,
	itemRepo repository.ItemRepository,
	notifier NotificationService,
	calc *availability.Calculator,
) RentalService {
	if calc == nil {
		calc = availability.NewCalculator()
	}
	return &rentalService{
		requestRepo: requestRepo,
		itemRepo:    itemRepo,
		notifier:    notifier,
		calc:        calc,
	}
}

func (s *rentalService) bookedRanges(ctx context.Context, itemID int32) ([]domain.DateRange, error) {
	reqs, err := s.requestRepo.List(ctx, repository.RequestFilter{ItemID: itemID})
	if err != nil {
		return nil, fmt.Errorf("list requests for item %d: %w", itemID, err)
	}
	return availability.Booked(reqs), nil
}

func (s *rentalService) Quote(ctx context.Context, itemID int32, dates domain.DateRange) (*availability.Quote, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	booked, err := s.bookedRanges(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.calc.Quote(dates, booked, item.PricePerDay, item.SecurityDeposit)
}

func (s *rentalService) CreateRequest(ctx context.Context, requesterID, itemID int32, dates domain.DateRange) (*domain.RentalRequest, error) {
	fresh := client.FreshRead(ctx)
	item, err := s.itemRepo.GetByID(fresh, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID == requesterID {
		return nil, &domain.ValidationError{Field: "item", Message: "you cannot rent your own item"}
	}
	if item.AvailabilityStatus != domain.AvailabilityAvailable {
		return nil, &domain.ValidationError{Field: "item", Message: fmt.Sprintf("item is %s", item.AvailabilityStatus)}
	}

	booked, err := s.bookedRanges(fresh, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.calc.Check(dates, booked); err != nil {
		if errors.Is(err, availability.ErrIncompleteSelection) {
			return nil, &domain.ValidationError{Field: "start_date", Message: "start and end dates are required"}
		}
		return nil, err
	}
	price, err := s.calc.Price(dates, item.PricePerDay)
	if err != nil {
		return nil, err
	}

	req, err := s.requestRepo.Create(ctx, &domain.NewRequest{
		ItemID:     itemID,
		StartDate:  dates.Start,
		EndDate:    dates.End,
		TotalPrice: price,
	})
	if err != nil {
		return nil, err
	}
	if req.TotalPrice != price {
		logger.WarnContext(ctx, "backend priced request differently",
			"request_id", req.ID, "quoted", price.String(), "stored", req.TotalPrice.String())
	}

	s.notify(ctx, domain.EventNewRequest, req, requesterID)
	return req, nil
}

func (s *rentalService) Approve(ctx context.Context, ownerID, requestID int32) (*domain.RentalRequest, error) {
	return s.transition(ctx, domain.ActionApprove, ownerID, requestID, func(ctx context.Context, req *domain.RentalRequest) (*domain.RentalRequest, error) {
		siblings, err := s.requestRepo.List(client.FreshRead(ctx), repository.RequestFilter{ItemID: req.ItemID})
		if err != nil {
			return nil, fmt.Errorf("list requests for item %d: %w", req.ItemID, err)
		}
		if err := availability.Conflict(domain.ActionApprove, req, siblings); err != nil {
			return nil, err
		}
		return s.requestRepo.Patch(ctx, req.ID, statusPatch(domain.StatusApproved))
	})
}

func (s *rentalService) Reject(ctx context.Context, ownerID, requestID int32) (*domain.RentalRequest, error) {
	return s.transition(ctx, domain.ActionReject, ownerID, requestID, func(ctx context.Context, req *domain.RentalRequest) (*domain.RentalRequest, error) {
		return s.requestRepo.Patch(ctx, req.ID, statusPatch(domain.StatusRejected))
	})
}

func (s *rentalService) Cancel(ctx context.Context, userID, requestID int32) (*domain.RentalRequest, error) {
	return s.transition(ctx, domain.ActionCancel, userID, requestID, func(ctx context.Context, req *domain.RentalRequest) (*domain.RentalRequest, error) {
		return s.requestRepo.Patch(ctx, req.ID, statusPatch(domain.StatusCancelled))
	})
}

func (s *rentalService) RequirePayment(ctx context.Context, ownerID, requestID int32) (*domain.RentalRequest, error) {
	return s.transition(ctx, domain.ActionRequirePayment, ownerID, requestID, func(ctx context.Context, req *domain.RentalRequest) (*domain.RentalRequest, error) {
		return s.requestRepo.Patch(ctx, req.ID, statusPatch(domain.StatusAwaitingPayment))
	})
}

func (s *rentalService) SimulatePayment(ctx context.Context, requesterID, requestID int32) (*domain.RentalRequest, error) {
	return s.transition(ctx, domain.ActionPay, requesterID, requestID, func(ctx context.Context, req *domain.RentalRequest) (*domain.RentalRequest, error) {
		return s.requestRepo.SimulatePayment(ctx, req.ID)
	})
}

func (s *rentalService) ConfirmHandover(ctx context.Context, requesterID, requestID int32, code string) (*domain.RentalRequest, error) {
	if security.NormalizeCode(code) == "" {
		return nil, &domain.ValidationError{Field: "code", Message: "handover code is required"}
	}
	return s.transition(ctx, domain.ActionConfirmHandover, requesterID, requestID, func(ctx context.Context, req *domain.RentalRequest) (*domain.RentalRequest, error) {
		// The owner's code is normally hidden from the requester; check it
		// locally only when it was returned to us.
		if req.HandoverCode != "" && !security.CodesEqual(req.HandoverCode, code) {
			return nil, domain.ErrCodeMismatch
		}
		return s.requestRepo.ConfirmHandover(ctx, req.ID, security.NormalizeCode(code))
	})
}

func (s *rentalService) ConfirmReturn(ctx context.Context, ownerID, requestID int32, code string) (*domain.RentalRequest, error) {
	if security.NormalizeCode(code) == "" {
		return nil, &domain.ValidationError{Field: "code", Message: "return code is required"}
	}
	return s.transition(ctx, domain.ActionConfirmReturn, ownerID, requestID, func(ctx context.Context, req *domain.RentalRequest) (*domain.RentalRequest, error) {
		if req.ReturnCode != "" && !security.CodesEqual(req.ReturnCode, code) {
			return nil, domain.ErrCodeMismatch
		}
		return s.requestRepo.ConfirmReturn(ctx, req.ID, security.NormalizeCode(code))
	})
}

func (s *rentalService) Rate(ctx context.Context, requesterID, requestID int32, rating int32) (*domain.RentalRequest, error) {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return nil, &domain.ValidationError{Field: "rating_given", Message: fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating)}
	}
	return s.transition(ctx, domain.ActionRate, requesterID, requestID, func(ctx context.Context, req *domain.RentalRequest) (*domain.RentalRequest, error) {
		patch := statusPatch(domain.StatusReceiptConfirmed)
		patch.RatingGiven = &rating
		return s.requestRepo.Patch(ctx, req.ID, patch)
	})
}

func (s *rentalService) GetRequest(ctx context.Context, userID, requestID int32) (*domain.RentalRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsParty(userID) {
		return nil, domain.ErrForbidden
	}
	return req, nil
}

func (s *rentalService) ListRentals(ctx context.Context, requesterID int32, status domain.RequestStatus) ([]*domain.RentalRequest, error) {
	return s.requestRepo.List(ctx, repository.RequestFilter{RequesterID: requesterID, Status: status})
}

func (s *rentalService) ListLendings(ctx context.Context, ownerID int32, status domain.RequestStatus) ([]*domain.RentalRequest, error) {
	return s.requestRepo.List(ctx, repository.RequestFilter{OwnerID: ownerID, Status: status})
}

type performFunc func(ctx context.Context, req *domain.RentalRequest) (*domain.RentalRequest, error)

// transition runs one lifecycle action. A retried action whose target phase
// has already been reached returns the current request unchanged.
func (s *rentalService) transition(ctx context.Context, action domain.Action, actorID, requestID int32, perform performFunc) (*domain.RentalRequest, error) {
	method := "rentalService." + string(action)
	logger.EnterMethod(method, "request_id", requestID, "actor_id", actorID)

	fresh := client.FreshRead(ctx)
	req, err := s.requestRepo.GetByID(fresh, requestID)
	if err != nil {
		logger.ExitMethodWithError(method, err)
		return nil, err
	}
	if err := domain.CanPerform(action, req, actorID); err != nil {
		logger.ExitMethodWithError(method, err)
		return nil, fmt.Errorf("user %d may not %s request %d: %w", actorID, action, requestID, err)
	}

	from := req.Phase()
	to, noop, err := domain.Plan(action, from)
	if err != nil {
		logger.ExitMethodWithError(method, err)
		return nil, err
	}
	if noop {
		s.reconcileItem(ctx, actorID, req.ItemID)
		logger.ExitMethod(method, "noop", true, "phase", from.String())
		return req, nil
	}

	updated, err := perform(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrCodeMismatch) {
			err = &domain.TransitionError{Action: action, From: from, Err: err}
		}
		logger.ExitMethodWithError(method, err)
		return nil, err
	}
	if got := updated.Phase(); got != to {
		logger.WarnContext(ctx, "request landed in an unexpected phase",
			"request_id", requestID, "action", action, "want", to.String(), "got", got.String())
	}

	s.reconcileItem(ctx, actorID, updated.ItemID)
	if event, ok := eventFor[action]; ok {
		s.notify(ctx, event, updated, actorID)
	}
	logger.ExitMethod(method, "from", from.String(), "to", updated.Phase().String())
	return updated, nil
}

// reconcileItem re-derives the item's Rented/Available state from the latest
// requests. The backend applies the same rule when a transition is stored, so
// this normally finds nothing to do. Only the owner can repair a drifted item.
func (s *rentalService) reconcileItem(ctx context.Context, actorID, itemID int32) {
	fresh := client.FreshRead(ctx)
	item, err := s.itemRepo.GetByID(fresh, itemID)
	if err != nil {
		logger.WarnContext(ctx, "reading item for occupancy failed", "item_id", itemID, "error", err)
		return
	}
	reqs, err := s.requestRepo.List(fresh, repository.RequestFilter{ItemID: itemID})
	if err != nil {
		logger.WarnContext(ctx, "reading requests for occupancy failed", "item_id", itemID, "error", err)
		return
	}
	patch, changed := domain.Occupancy(item, reqs)
	if !changed {
		return
	}
	if item.OwnerID != actorID {
		logger.WarnContext(ctx, "item occupancy is stale, leaving it to the owner",
			"item_id", itemID, "status", item.AvailabilityStatus, "want", patch.AvailabilityStatus)
		return
	}
	if _, err := s.itemRepo.SetAvailability(ctx, itemID, patch); err != nil {
		logger.WarnContext(ctx, "updating item occupancy failed", "item_id", itemID, "error", err)
	}
}

// notify never fails the transition that triggered it.
func (s *rentalService) notify(ctx context.Context, event domain.EventType, req *domain.RentalRequest, actorID int32) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Dispatch(ctx, event, req, actorID); err != nil {
		logger.WarnContext(ctx, "dispatching notification failed",
			"event", event, "request_id", req.ID, "error", err)
	}
}

func statusPatch(status domain.RequestStatus) domain.RequestPatch {
	return domain.RequestPatch{Status: &status}
}
