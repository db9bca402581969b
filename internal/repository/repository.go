// Package repository declares the data access the client-side services need.
// The remote package implements it over the backend REST API.
package repository

import (
	"context"
	"io"

	"rentsnap/internal/domain"
)

type AuthRepository interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error)
}

type ItemRepository interface {
	List(ctx context.Context, filter ItemFilter) ([]*domain.Item, error)
	GetByID(ctx context.Context, id int32) (*domain.Item, error)
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	Update(ctx context.Context, item *domain.Item) (*domain.Item, error)
	SetAvailability(ctx context.Context, id int32, patch domain.AvailabilityPatch) (*domain.Item, error)
	Delete(ctx context.Context, id int32) error
	UploadImage(ctx context.Context, id int32, filename string, r io.Reader) (*domain.Item, error)
}

type RequestRepository interface {
	List(ctx context.Context, filter RequestFilter) ([]*domain.RentalRequest, error)
	GetByID(ctx context.Context, id int32) (*domain.RentalRequest, error)
	Create(ctx context.Context, req *domain.NewRequest) (*domain.RentalRequest, error)
	Patch(ctx context.Context, id int32, patch domain.RequestPatch) (*domain.RentalRequest, error)
	ConfirmHandover(ctx context.Context, id int32, code string) (*domain.RentalRequest, error)
	ConfirmReturn(ctx context.Context, id int32, code string) (*domain.RentalRequest, error)
	SimulatePayment(ctx context.Context, id int32) (*domain.RentalRequest, error)
}

type NotificationRepository interface {
	List(ctx context.Context, userID int32) ([]*domain.Notification, error)
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	MarkRead(ctx context.Context, id int32) (*domain.Notification, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]*domain.Category, error)
	Create(ctx context.Context, name string) (*domain.Category, error)
}

type ConversationRepository interface {
	List(ctx context.Context, userID int32) ([]*domain.Conversation, error)
	Create(ctx context.Context, c *domain.Conversation) (*domain.Conversation, error)
	ListMessages(ctx context.Context, conversationID int32) ([]*domain.Message, error)
	SendMessage(ctx context.Context, m *domain.Message) (*domain.Message, error)
	MarkMessageRead(ctx context.Context, id int32) (*domain.Message, error)
}
