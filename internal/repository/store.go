package repository

import (
	"context"
	"time"

	"rentsnap/internal/domain"
)

// The interfaces below are the persistence layer of the backend server.
// Lookups of a missing row return domain.ErrNotFound.

type UserStore interface {
	// Create stores u and fills in its id. A taken username is domain.ErrConflict.
	Create(ctx context.Context, u *domain.User, passwordHash string) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	// GetByUsername returns the user and its password hash.
	GetByUsername(ctx context.Context, username string) (*domain.User, string, error)
}

type ItemStore interface {
	List(ctx context.Context, filter ItemFilter) ([]*domain.Item, error)
	GetByID(ctx context.Context, id int32) (*domain.Item, error)
	Create(ctx context.Context, item *domain.Item) error
	// Update writes every column of item, occupancy and rating included.
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, id int32) error
	// Lock holds the item's row until the transaction ends, serializing
	// decisions that read the item's other requests.
	Lock(ctx context.Context, id int32) error
}

type RequestStore interface {
	List(ctx context.Context, filter RequestFilter) ([]*domain.RentalRequest, error)
	GetByID(ctx context.Context, id int32) (*domain.RentalRequest, error)
	Create(ctx context.Context, r *domain.RentalRequest) error
	// Update writes r only while the stored status still equals expected.
	// A lost race returns domain.ErrConflict.
	Update(ctx context.Context, r *domain.RentalRequest, expected domain.RequestStatus) error
	// ListPendingBefore returns Pending requests made before cutoff.
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*domain.RentalRequest, error)
}

type NotificationStore interface {
	List(ctx context.Context, userID int32) ([]*domain.Notification, error)
	GetByID(ctx context.Context, id int32) (*domain.Notification, error)
	Create(ctx context.Context, n *domain.Notification) error
	MarkRead(ctx context.Context, id int32) error
}

type CategoryStore interface {
	List(ctx context.Context) ([]*domain.Category, error)
	GetByID(ctx context.Context, id int32) (*domain.Category, error)
	// Create fails with domain.ErrConflict when the name exists in any letter case.
	Create(ctx context.Context, c *domain.Category) error
}

type ConversationStore interface {
	ListForUser(ctx context.Context, userID int32) ([]*domain.Conversation, error)
	GetByID(ctx context.Context, id int32) (*domain.Conversation, error)
	Create(ctx context.Context, c *domain.Conversation) error
	ListMessages(ctx context.Context, conversationID int32) ([]*domain.Message, error)
	GetMessage(ctx context.Context, id int32) (*domain.Message, error)
	CreateMessage(ctx context.Context, m *domain.Message) error
	MarkMessageRead(ctx context.Context, id int32) error
}

// Store groups the backend stores. WithTx runs fn against stores bound to one
// transaction, committing when fn returns nil.
type Store interface {
	Users() UserStore
	Items() ItemStore
	Requests() RequestStore
	Notifications() NotificationStore
	Categories() CategoryStore
	Conversations() ConversationStore
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
