package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
)

// ListNotifications returns the viewer's inbox, newest first.
func (b *Backend) ListNotifications(ctx context.Context, viewerID, userID int32) ([]*domain.Notification, error) {
	if userID != 0 && userID != viewerID {
		return nil, fmt.Errorf("notifications of user %d: %w", userID, domain.ErrForbidden)
	}
	return b.store.Notifications().List(ctx, viewerID)
}

// CreateNotification stores a notification sent by senderID to another user
// and mirrors it by email when a mailer is configured. Mail failures are logged.
func (b *Backend) CreateNotification(ctx context.Context, senderID int32, n *domain.Notification) (*domain.Notification, error) {
	logger.EnterMethod("Backend.CreateNotification", "senderID", senderID, "target", n.TargetUserID, "event", n.EventType)
	if n.TargetUserID == 0 {
		return nil, required("target_user_id")
	}
	if n.EventType == "" {
		return nil, required("event_type")
	}
	if strings.TrimSpace(n.Title) == "" {
		return nil, required("title")
	}
	target, err := b.store.Users().GetByID(ctx, n.TargetUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ValidationError{Field: "target_user_id", Message: "user does not exist"}
		}
		return nil, err
	}
	n.ID = 0
	n.IsRead = false
	if n.RelatedUserID == 0 {
		n.RelatedUserID = senderID
	}
	if n.RelatedUserName == "" && n.RelatedUserID == senderID {
		if sender, err := b.store.Users().GetByID(ctx, senderID); err == nil {
			n.RelatedUserName = sender.DisplayName()
		}
	}
	if err := b.store.Notifications().Create(ctx, n); err != nil {
		logger.ExitMethodWithError("Backend.CreateNotification", err)
		return nil, err
	}
	if b.mailer != nil {
		if err := b.mailer.NotifyByEmail(ctx, target, n); err != nil {
			logger.WarnContext(ctx, "email mirror of notification failed", "notificationID", n.ID, "error", err)
		}
	}
	logger.ExitMethod("Backend.CreateNotification", "notificationID", n.ID)
	return n, nil
}

// MarkNotificationRead is only allowed to the notification's target. Other
// users are told it does not exist.
func (b *Backend) MarkNotificationRead(ctx context.Context, viewerID, id int32, patch domain.NotificationPatch) (*domain.Notification, error) {
	n, err := b.store.Notifications().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.TargetUserID != viewerID {
		return nil, fmt.Errorf("notification %d: %w", id, domain.ErrNotFound)
	}
	if patch.IsRead == nil {
		return n, nil
	}
	if !*patch.IsRead {
		return nil, &domain.ValidationError{Field: "is_read", Message: "notifications cannot be marked unread"}
	}
	if !n.IsRead {
		if err := b.store.Notifications().MarkRead(ctx, id); err != nil {
			return nil, err
		}
		n.IsRead = true
	}
	return n, nil
}
