package service

import (
	"context"
	"fmt"

	"rentsnap/internal/client"
	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
	"rentsnap/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

// Dispatch writes event into the inbox of the request party that did not act.
func (s *notificationService) Dispatch(ctx context.Context, event domain.EventType, req *domain.RentalRequest, actorID int32) (*domain.Notification, error) {
	if !req.IsParty(actorID) {
		return nil, fmt.Errorf("user %d is not a party of request %d: %w", actorID, req.ID, domain.ErrForbidden)
	}
	target := req.Counterpart(actorID)
	actorName := req.RequesterName
	if actorID == req.OwnerID {
		actorName = req.OwnerName
	}
	if actorName == "" {
		actorName = "Someone"
	}
	itemName := req.ItemName
	if itemName == "" {
		itemName = fmt.Sprintf("item #%d", req.ItemID)
	}

	title, message := describe(event, actorName, itemName, req)
	return s.Send(ctx, &domain.Notification{
		TargetUserID:    target,
		EventType:       event,
		Title:           title,
		Message:         message,
		Link:            domain.RequestLink(req, target),
		RelatedItemID:   req.ItemID,
		RelatedUserID:   actorID,
		RelatedUserName: actorName,
	})
}

func describe(event domain.EventType, actor, item string, req *domain.RentalRequest) (title, message string) {
	switch event {
	case domain.EventNewRequest:
		return "New Rental Request", fmt.Sprintf("%s wants to rent %s from %s to %s.", actor, item, req.StartDate, req.EndDate)
	case domain.EventRequestApproved:
		return "Request Approved", fmt.Sprintf("%s approved your request for %s.", actor, item)
	case domain.EventRequestRejected:
		return "Request Rejected", fmt.Sprintf("%s declined your request for %s.", actor, item)
	case domain.EventRequestCancelled:
		return "Request Cancelled", fmt.Sprintf("%s cancelled the rental of %s.", actor, item)
	case domain.EventPaymentRequired:
		return "Payment Required", fmt.Sprintf("Please pay %s plus a %s deposit for %s.", req.TotalPrice, req.DepositAmount, item)
	case domain.EventPaymentConfirmed:
		return "Payment Received", fmt.Sprintf("%s paid for %s.", actor, item)
	case domain.EventHandoverConfirmed:
		return "Handover Confirmed", fmt.Sprintf("%s confirmed receiving %s.", actor, item)
	case domain.EventReturnConfirmed:
		return "Return Confirmed", fmt.Sprintf("%s confirmed the return of %s.", actor, item)
	case domain.EventRatingReceived:
		rating := int32(0)
		if req.RatingGiven != nil {
			rating = *req.RatingGiven
		}
		return "New Rating", fmt.Sprintf("%s rated the rental of %s %d/5.", actor, item, rating)
	}
	return "Rental Update", fmt.Sprintf("%s updated the rental of %s.", actor, item)
}

func (s *notificationService) Send(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if n.TargetUserID == 0 {
		return nil, &domain.ValidationError{Field: "target_user_id", Message: "target user is required"}
	}
	created, err := s.noteRepo.Create(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("create %s notification for user %d: %w", n.EventType, n.TargetUserID, err)
	}
	logger.DebugContext(ctx, "notification sent", "event", n.EventType, "target_user_id", n.TargetUserID)
	return created, nil
}

func (s *notificationService) List(ctx context.Context, userID int32) ([]*domain.Notification, error) {
	return s.noteRepo.List(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID int32) (int, error) {
	notes, err := s.noteRepo.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, note := range notes {
		if !note.IsRead {
			n++
		}
	}
	return n, nil
}

// MarkRead marks one notification read. Only its target user may do so.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID int32) (*domain.Notification, error) {
	notes, err := s.noteRepo.List(client.FreshRead(ctx), userID)
	if err != nil {
		return nil, err
	}
	for _, note := range notes {
		if note.ID != notificationID {
			continue
		}
		if note.TargetUserID != userID {
			return nil, domain.ErrForbidden
		}
		if note.IsRead {
			return note, nil
		}
		return s.noteRepo.MarkRead(ctx, notificationID)
	}
	return nil, fmt.Errorf("notification %d: %w", notificationID, domain.ErrNotFound)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int32) (int, error) {
	notes, err := s.noteRepo.List(client.FreshRead(ctx), userID)
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, note := range notes {
		if note.IsRead || note.TargetUserID != userID {
			continue
		}
		if _, err := s.noteRepo.MarkRead(ctx, note.ID); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}
