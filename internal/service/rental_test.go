package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentsnap/internal/availability"
	"rentsnap/internal/domain"
	"rentsnap/internal/repository"
	"rentsnap/internal/service"
)

const (
	ownerID     = int32(1)
	requesterID = int32(2)
	strangerID  = int32(3)
	itemID      = int32(10)
	requestID   = int32(100)
)

type rentalFixture struct {
	requests *MockRequestRepo
	items    *MockItemRepo
	notes    *MockNotificationRepo
	svc      service.RentalService
}

func newRentalFixture() *rentalFixture {
	f := &rentalFixture{
		requests: new(MockRequestRepo),
		items:    new(MockItemRepo),
		notes:    new(MockNotificationRepo),
	}
	calc := &availability.Calculator{Now: func() domain.Date { return domain.NewDate(2026, 1, 1) }}
	f.svc = service.NewRentalService(f.requests, f.items, service.NewNotificationService(f.notes), calc)
	return f
}

func (f *rentalFixture) assertExpectations(t *testing.T) {
	f.requests.AssertExpectations(t)
	f.items.AssertExpectations(t)
	f.notes.AssertExpectations(t)
}

func testItem(status domain.AvailabilityStatus) *domain.Item {
	return &domain.Item{
		ID:                 itemID,
		Name:               "Tent",
		OwnerID:            ownerID,
		PricePerDay:        5000,
		SecurityDeposit:    2000,
		AvailabilityStatus: status,
	}
}

func testRequest(status domain.RequestStatus) *domain.RentalRequest {
	return &domain.RentalRequest{
		ID:            requestID,
		ItemID:        itemID,
		ItemName:      "Tent",
		RequesterID:   requesterID,
		RequesterName: "Rita",
		OwnerID:       ownerID,
		OwnerName:     "Otto",
		StartDate:     domain.NewDate(2026, 3, 1),
		EndDate:       domain.NewDate(2026, 3, 5),
		Status:        status,
		TotalPrice:    25000,
	}
}

func paid(r *domain.RentalRequest) *domain.RentalRequest {
	now := time.Now()
	r.PaidAt = &now
	return r
}

func handedOver(r *domain.RentalRequest) *domain.RentalRequest {
	now := time.Now()
	r.HandedOverAt = &now
	return r
}

func itemFilter() repository.RequestFilter {
	return repository.RequestFilter{ItemID: itemID}
}

func notifies(target int32, event domain.EventType) interface{} {
	return mock.MatchedBy(func(n *domain.Notification) bool {
		return n.TargetUserID == target && n.EventType == event
	})
}

func TestRentalService_CreateRequest(t *testing.T) {
	ctx := context.Background()
	dates := domain.DateRange{Start: domain.NewDate(2026, 3, 1), End: domain.NewDate(2026, 3, 5)}

	t.Run("Success", func(t *testing.T) {
		f := newRentalFixture()
		f.items.On("GetByID", mock.Anything, itemID).Return(testItem(domain.AvailabilityAvailable), nil).Once()
		f.requests.On("List", mock.Anything, itemFilter()).Return([]*domain.RentalRequest{}, nil).Once()
		f.requests.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.NewRequest) bool {
			return r.ItemID == itemID && r.TotalPrice == 25000 && r.StartDate.Equal(dates.Start)
		})).Return(testRequest(domain.StatusPending), nil).Once()
		f.notes.On("Create", mock.Anything, notifies(ownerID, domain.EventNewRequest)).
			Return(&domain.Notification{ID: 1}, nil).Once()

		req, err := f.svc.CreateRequest(ctx, requesterID, itemID, dates)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, req.Status)
		assert.Equal(t, domain.Money(25000), req.TotalPrice)
		f.assertExpectations(t)
	})

	t.Run("OwnItem", func(t *testing.T) {
		f := newRentalFixture()
		f.items.On("GetByID", mock.Anything, itemID).Return(testItem(domain.AvailabilityAvailable), nil).Once()

		_, err := f.svc.CreateRequest(ctx, ownerID, itemID, dates)
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
		f.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("ItemRented", func(t *testing.T) {
		f := newRentalFixture()
		f.items.On("GetByID", mock.Anything, itemID).Return(testItem(domain.AvailabilityRented), nil).Once()

		_, err := f.svc.CreateRequest(ctx, requesterID, itemID, dates)
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("Overlap", func(t *testing.T) {
		f := newRentalFixture()
		booked := testRequest(domain.StatusApproved)
		booked.ID = 99
		booked.RequesterID = strangerID
		booked.StartDate = domain.NewDate(2026, 3, 5)
		booked.EndDate = domain.NewDate(2026, 3, 8)
		f.items.On("GetByID", mock.Anything, itemID).Return(testItem(domain.AvailabilityAvailable), nil).Once()
		f.requests.On("List", mock.Anything, itemFilter()).Return([]*domain.RentalRequest{booked}, nil).Once()

		_, err := f.svc.CreateRequest(ctx, requesterID, itemID, dates)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Message, "already booked")
		f.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("IncompleteSelection", func(t *testing.T) {
		f := newRentalFixture()
		f.items.On("GetByID", mock.Anything, itemID).Return(testItem(domain.AvailabilityAvailable), nil).Once()
		f.requests.On("List", mock.Anything, itemFilter()).Return([]*domain.RentalRequest{}, nil).Once()

		_, err := f.svc.CreateRequest(ctx, requesterID, itemID, domain.DateRange{Start: dates.Start})
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestRentalService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("FromPending", func(t *testing.T) {
		f := newRentalFixture()
		approved := testRequest(domain.StatusApproved)
		approved.HandoverCode = "ABCDEF"
		f.requests.On("GetByID", mock.Anything, requestID).Return(testRequest(domain.StatusPending), nil).Once()
		f.requests.On("List", mock.Anything, itemFilter()).Return([]*domain.RentalRequest{testRequest(domain.StatusPending)}, nil).Once()
		f.requests.On("Patch", mock.Anything, requestID, mock.MatchedBy(func(p domain.RequestPatch) bool {
			return p.Status != nil && *p.Status == domain.StatusApproved
		})).Return(approved, nil).Once()
		f.items.On("GetByID", mock.Anything, itemID).Return(testItem(domain.AvailabilityAvailable), nil).Once()
		f.requests.On("List", mock.Anything, itemFilter()).Return([]*domain.RentalRequest{approved}, nil).Once()
		f.notes.On("Create", mock.Anything, notifies(requesterID, domain.EventRequestApproved)).
			Return(&domain.Notification{ID: 1}, nil).Once()

		got, err := f.svc.Approve(ctx, ownerID, requestID)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseApproved, got.Phase())
		assert.Equal(t, "ABCDEF", got.HandoverCode)
		f.assertExpectations(t)
	})

	t.Run("OverlappingApprovalRefused", func(t *testing.T) {
		f := newRentalFixture()
		other := testRequest(domain.StatusApproved)
		other.ID = requestID + 1
		other.RequesterID = strangerID
		other.StartDate = domain.NewDate(2026, 3, 4)
		other.EndDate = domain.NewDate(2026, 3, 8)
		f.requests.On("GetByID", mock.Anything, requestID).Return(testRequest(domain.StatusPending), nil).Once()
		f.requests.On("List", mock.Anything, itemFilter()).
			Return([]*domain.RentalRequest{testRequest(domain.StatusPending), other}, nil).Once()

		_, err := f.svc.Approve(ctx, ownerID, requestID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		var terr *domain.TransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, domain.PhasePending, terr.From)
		f.requests.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything)
		f.notes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("RetryIsNoop", func(t *testing.T) {
		f := newRentalFixture()
		approved := testRequest(domain.StatusApproved)
		approved.HandoverCode = "ABCDEF"
		f.requests.On("GetByID", mock.Anything, requestID).Return(approved, nil).Once()
		f.items.On("GetByID", mock.Anything, itemID).Return(testItem(domain.AvailabilityAvailable), nil).Once()
		f.requests.On("List", mock.Anything, itemFilter()).Return([]*domain.RentalRequest{approved}, nil).Once()

		got, err := f.svc.Approve(ctx, ownerID, requestID)
		require.NoError(t, err)
		assert.Equal(t, "ABCDEF", got.HandoverCode)
		f.requests.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything)
		f.notes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("RequesterForbidden", func(t *testing.T) {
		f := newRentalFixture()
		f.requests.On("GetByID", mock.Anything, requestID).Return(testRequest(domain.StatusPending), nil).Once()

		_, err := f.svc.Approve(ctx, requesterID, requestID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("FromRejected", func(t *testing.T) {
		f := newRentalFixture()
		f.requests.On("GetByID", mock.Anything, requestID).Return(testRequest(domain.StatusRejected), nil).Once()

		_, err := f.svc.Approve(ctx, ownerID, requestID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		var terr *domain.TransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, domain.PhaseRejected, terr.From)
	})
}

func TestRentalService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("RequesterCancelsPending", func(t *testing.T) {
		f := newRentalFixture()
		f.requests.On("GetByID", mock.Anything, requestID).Return(testRequest(domain.StatusPending), nil).Once()
		f.requests.On("Patch", mock.Anything, requestID, mock.Anything).Return(testRequest(domain.StatusCancelled), nil).Once()
		f.items.On("GetByID", mock.Anything, itemID).Return(testItem(domain.AvailabilityAvailable), nil).Once()
		f.requests.On("List", mock.Anything, itemFilter()).Return([]*domain.RentalRequest{}, nil).Once()
		f.notes.On("Create", mock.Anything, notifies(ownerID, domain.EventRequestCancelled)).
			Return(&domain.Notification{ID: 1}, nil).Once()

		got, err := f.svc.Cancel(ctx, requesterID, requestID)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseCancelled, got.Phase())
		f.assertExpectations(t)
	})

	t.Run("StrangerForbidden", func(t *testing.T) {
		f := newRentalFixture()
		f.requests.On("GetByID", mock.Anything, requestID).Return(testRequest(domain.StatusPending), nil).Once()

		_, err := f.svc.Cancel(ctx, strangerID, requestID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("HandedOverRefused", func(t *testing.T) {
		f := newRentalFixture()
		f.requests.On("GetByID", mock.Anything, requestID).Return(handedOver(paid(testRequest(domain.StatusApproved))), nil).Once()

		_, err := f.svc.Cancel(ctx, ownerID, requestID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestRentalService_ConfirmHandover(t *testing.T) {
	ctx := context.Background()

	t.Run("RequesterLeavesOccupancyToOwner", func(t *testing.T) {
		f := newRentalFixture()
		req := paid(testRequest(domain.StatusApproved))
		done := handedOver(paid(testRequest(domain.StatusApproved)))
		f.requests.On("GetByID", mock.Anything, requestID).Return(req, nil).Once()
		f.requests.On("ConfirmHandover", mock.Anything, requestID, "ABCDEF").Return(done, nil).Once()
		f.items.On("GetByID", mock.Anything, itemID).Return(testItem(domain.AvailabilityAvailable), nil).Once()
		f.requests.On("List", mock.Anything, itemFilter()).Return([]*domain.RentalRequest{done}, nil).Once()
		f.notes.On("Create", mock.Anything, notifies(ownerID, domain.EventHandoverConfirmed)).
			Return(&domain.Notification{ID: 1}, nil).Once()

		got, err := f.svc.ConfirmHandover(ctx, requesterID, requestID, " abc def ")
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseHandedOver, got.Phase())
		f.items.AssertNotCalled(t, "SetAvailability", mock.Anything, mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("VisibleCodeMismatch", func(t *testing.T) {
		f := newRentalFixture()
		req := paid(testRequest(domain.StatusApproved))
		req.HandoverCode = "ABCDEF"
		f.requests.On("GetByID", mock.Anything, requestID).Return(req, nil).Once()

		_, err := f.svc.ConfirmHandover(ctx, requesterID, requestID, "WRONG")
		assert.ErrorIs(t, err, domain.ErrCodeMismatch)
		var terr *domain.TransitionError
		assert.ErrorAs(t, err, &terr)
		f.requests.AssertNotCalled(t, "ConfirmHandover", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("BackendCodeMismatch", func(t *testing.T) {
		f := newRentalFixture()
		f.requests.On("GetByID", mock.Anything, requestID).Return(paid(testRequest(domain.StatusApproved)), nil).Once()
		f.requests.On("ConfirmHandover", mock.Anything, requestID, "WRONG").Return(nil, domain.ErrCodeMismatch).Once()

		_, err := f.svc.ConfirmHandover(ctx, requesterID, requestID, "wrong")
		assert.ErrorIs(t, err, domain.ErrCodeMismatch)
		f.items.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("EmptyCode", func(t *testing.T) {
		f := newRentalFixture()
		_, err := f.svc.ConfirmHandover(ctx, requesterID, requestID, "   ")
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
		f.requests.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestRentalService_ConfirmReturn(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerRepairsStaleItem", func(t *testing.T) {
		f := newRentalFixture()
		end := domain.NewDate(2026, 3, 5)
		rented := testItem(domain.AvailabilityRented)
		rented.AvailableFromDate = &end
		completed := handedOver(paid(testRequest(domain.StatusCompleted)))

		f.requests.On("GetByID", mock.Anything, requestID).Return(handedOver(paid(testRequest(domain.StatusApproved))), nil).Once()
		f.requests.On("ConfirmReturn", mock.Anything, requestID, "RET123").Return(completed, nil).Once()
		f.items.On("GetByID", mock.Anything, itemID).Return(rented, nil).Once()
		f.requests.On("List", mock.Anything, itemFilter()).Return([]*domain.RentalRequest{completed}, nil).Once()
		f.items.On("SetAvailability", mock.Anything, itemID, domain.AvailabilityPatch{AvailabilityStatus: domain.AvailabilityAvailable}).
			Return(testItem(domain.AvailabilityAvailable), nil).Once()
		f.notes.On("Create", mock.Anything, notifies(requesterID, domain.EventReturnConfirmed)).
			Return(&domain.Notification{ID: 1}, nil).Once()

		got, err := f.svc.ConfirmReturn(ctx, ownerID, requestID, "ret123")
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseCompleted, got.Phase())
		f.assertExpectations(t)
	})

	t.Run("BeforeHandover", func(t *testing.T) {
		f := newRentalFixture()
		f.requests.On("GetByID", mock.Anything, requestID).Return(paid(testRequest(domain.StatusApproved)), nil).Once()

		_, err := f.svc.ConfirmReturn(ctx, ownerID, requestID, "RET123")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestRentalService_Rate(t *testing.T) {
	ctx := context.Background()

	t.Run("OutOfRange", func(t *testing.T) {
		f := newRentalFixture()
		_, err := f.svc.Rate(ctx, requesterID, requestID, 6)
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("Completed", func(t *testing.T) {
		f := newRentalFixture()
		rated := testRequest(domain.StatusReceiptConfirmed)
		four := int32(4)
		rated.RatingGiven = &four
		f.requests.On("GetByID", mock.Anything, requestID).Return(testRequest(domain.StatusCompleted), nil).Once()
		f.requests.On("Patch", mock.Anything, requestID, mock.MatchedBy(func(p domain.RequestPatch) bool {
			return p.RatingGiven != nil && *p.RatingGiven == 4 && *p.Status == domain.StatusReceiptConfirmed
		})).Return(rated, nil).Once()
		f.items.On("GetByID", mock.Anything, itemID).Return(testItem(domain.AvailabilityAvailable), nil).Once()
		f.requests.On("List", mock.Anything, itemFilter()).Return([]*domain.RentalRequest{rated}, nil).Once()
		f.notes.On("Create", mock.Anything, notifies(ownerID, domain.EventRatingReceived)).
			Return(&domain.Notification{ID: 1}, nil).Once()

		got, err := f.svc.Rate(ctx, requesterID, requestID, 4)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseReceiptConfirmed, got.Phase())
		f.assertExpectations(t)
	})

	t.Run("AlreadyRated", func(t *testing.T) {
		f := newRentalFixture()
		f.requests.On("GetByID", mock.Anything, requestID).Return(testRequest(domain.StatusReceiptConfirmed), nil).Once()

		_, err := f.svc.Rate(ctx, requesterID, requestID, 4)
		var terr *domain.TransitionError
		assert.ErrorAs(t, err, &terr)
	})
}

func TestRentalService_NotificationFailureDoesNotFailTransition(t *testing.T) {
	f := newRentalFixture()
	f.requests.On("GetByID", mock.Anything, requestID).Return(testRequest(domain.StatusPending), nil).Once()
	f.requests.On("Patch", mock.Anything, requestID, mock.Anything).Return(testRequest(domain.StatusRejected), nil).Once()
	f.items.On("GetByID", mock.Anything, itemID).Return(testItem(domain.AvailabilityAvailable), nil).Once()
	f.requests.On("List", mock.Anything, itemFilter()).Return([]*domain.RentalRequest{}, nil).Once()
	f.notes.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("backend down")).Once()

	got, err := f.svc.Reject(context.Background(), ownerID, requestID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseRejected, got.Phase())
}

func TestRentalService_GetRequest(t *testing.T) {
	f := newRentalFixture()
	f.requests.On("GetByID", mock.Anything, requestID).Return(testRequest(domain.StatusPending), nil)

	_, err := f.svc.GetRequest(context.Background(), requesterID, requestID)
	assert.NoError(t, err)
	_, err = f.svc.GetRequest(context.Background(), strangerID, requestID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRentalService_Quote(t *testing.T) {
	f := newRentalFixture()
	f.items.On("GetByID", mock.Anything, itemID).Return(testItem(domain.AvailabilityAvailable), nil).Once()
	f.requests.On("List", mock.Anything, itemFilter()).Return([]*domain.RentalRequest{}, nil).Once()

	q, err := f.svc.Quote(context.Background(), itemID, domain.DateRange{Start: domain.NewDate(2026, 3, 1), End: domain.NewDate(2026, 3, 5)})
	require.NoError(t, err)
	assert.True(t, q.Admissible)
	assert.Equal(t, 5, q.Days)
	assert.Equal(t, domain.Money(25000), q.Price)
}
