package service

import (
	"context"
	"io"
	"time"

	"rentsnap/internal/availability"
	"rentsnap/internal/domain"
	"rentsnap/internal/repository"
	"rentsnap/internal/session"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*session.Session, error)
	Register(ctx context.Context, reg domain.Registration) (*session.Session, error)
	Logout(ctx context.Context) error
}

// RentalService drives a rental request through its lifecycle. Every
// transition re-reads the request from the backend, checks it against the
// phase table and the acting user, persists it, and then re-derives the
// item's occupancy from fresh state.
type RentalService interface {
	Quote(ctx context.Context, itemID int32, dates domain.DateRange) (*availability.Quote, error)
	CreateRequest(ctx context.Context, requesterID, itemID int32, dates domain.DateRange) (*domain.RentalRequest, error)
	Approve(ctx context.Context, ownerID, requestID int32) (*domain.RentalRequest, error)
	Reject(ctx context.Context, ownerID, requestID int32) (*domain.RentalRequest, error)
	Cancel(ctx context.Context, userID, requestID int32) (*domain.RentalRequest, error)
	RequirePayment(ctx context.Context, ownerID, requestID int32) (*domain.RentalRequest, error)
	SimulatePayment(ctx context.Context, requesterID, requestID int32) (*domain.RentalRequest, error)
	ConfirmHandover(ctx context.Context, requesterID, requestID int32, code string) (*domain.RentalRequest, error)
	ConfirmReturn(ctx context.Context, ownerID, requestID int32, code string) (*domain.RentalRequest, error)
	Rate(ctx context.Context, requesterID, requestID int32, rating int32) (*domain.RentalRequest, error)
	GetRequest(ctx context.Context, userID, requestID int32) (*domain.RentalRequest, error)
	ListRentals(ctx context.Context, requesterID int32, status domain.RequestStatus) ([]*domain.RentalRequest, error)
	ListLendings(ctx context.Context, ownerID int32, status domain.RequestStatus) ([]*domain.RentalRequest, error)
}

// NotificationService fans lifecycle events out to the counterpart's inbox
// and lets the inbox owner read it.
type NotificationService interface {
	Dispatch(ctx context.Context, event domain.EventType, req *domain.RentalRequest, actorID int32) (*domain.Notification, error)
	Send(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	List(ctx context.Context, userID int32) ([]*domain.Notification, error)
	UnreadCount(ctx context.Context, userID int32) (int, error)
	MarkRead(ctx context.Context, userID, notificationID int32) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID int32) (int, error)
	Watch(ctx context.Context, userID int32, interval time.Duration, onChange func([]*domain.Notification)) (*Watcher, error)
}

type CategoryService interface {
	Resolve(ctx context.Context, name string) (int32, error)
	List(ctx context.Context) ([]*domain.Category, error)
}

type ItemService interface {
	ListItems(ctx context.Context, filter repository.ItemFilter) ([]*domain.Item, error)
	GetItem(ctx context.Context, id int32) (*domain.Item, error)
	CreateItem(ctx context.Context, ownerID int32, item *domain.Item, categoryName string) (*domain.Item, error)
	UpdateItem(ctx context.Context, ownerID int32, item *domain.Item, categoryName string) (*domain.Item, error)
	DeleteItem(ctx context.Context, ownerID, itemID int32) error
	UploadImage(ctx context.Context, ownerID, itemID int32, filename string, r io.Reader) (*domain.Item, error)
	BookedRanges(ctx context.Context, itemID int32) ([]domain.DateRange, error)
}

type MessageService interface {
	ListConversations(ctx context.Context, userID int32) ([]*domain.Conversation, error)
	StartConversation(ctx context.Context, userID, otherUserID int32, itemID *int32) (*domain.Conversation, error)
	ListMessages(ctx context.Context, userID, conversationID int32) ([]*domain.Message, error)
	SendMessage(ctx context.Context, senderID, conversationID int32, text string) (*domain.Message, error)
	MarkConversationRead(ctx context.Context, userID, conversationID int32) (int, error)
	UnreadCount(ctx context.Context, userID int32) (int, error)
}
