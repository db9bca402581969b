package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"rentsnap/internal/client"
	"rentsnap/internal/domain"
	"rentsnap/internal/repository"
)

type notificationRepository struct {
	c *client.Client
}

func NewNotificationRepository(c *client.Client) repository.NotificationRepository {
	return &notificationRepository{c: c}
}

func (r *notificationRepository) List(ctx context.Context, userID int32) ([]*domain.Notification, error) {
	params := url.Values{"user_id": {strconv.Itoa(int(userID))}}
	var out client.List[*domain.Notification]
	if err := r.c.Get(ctx, "/notifications/", params, &out); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	var out domain.Notification
	if err := r.c.Mutate(ctx, http.MethodPost, "/notifications/", n, &out); err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id int32) (*domain.Notification, error) {
	read := true
	var out domain.Notification
	if err := r.c.Mutate(ctx, http.MethodPatch, idPath("notifications", id), domain.NotificationPatch{IsRead: &read}, &out); err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}
