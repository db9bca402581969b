package service_test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"rentsnap/internal/domain"
	"rentsnap/internal/repository"
)

// MockRequestRepo
type MockRequestRepo struct {
	mock.Mock
}

func (m *MockRequestRepo) List(ctx context.Context, filter repository.RequestFilter) ([]*domain.RentalRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RentalRequest), args.Error(1)
}
func (m *MockRequestRepo) GetByID(ctx context.Context, id int32) (*domain.RentalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRequest), args.Error(1)
}
func (m *MockRequestRepo) Create(ctx context.Context, req *domain.NewRequest) (*domain.RentalRequest, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRequest), args.Error(1)
}
func (m *MockRequestRepo) Patch(ctx context.Context, id int32, patch domain.RequestPatch) (*domain.RentalRequest, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRequest), args.Error(1)
}
func (m *MockRequestRepo) ConfirmHandover(ctx context.Context, id int32, code string) (*domain.RentalRequest, error) {
	args := m.Called(ctx, id, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRequest), args.Error(1)
}
func (m *MockRequestRepo) ConfirmReturn(ctx context.Context, id int32, code string) (*domain.RentalRequest, error) {
	args := m.Called(ctx, id, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRequest), args.Error(1)
}
func (m *MockRequestRepo) SimulatePayment(ctx context.Context, id int32) (*domain.RentalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRequest), args.Error(1)
}

// MockItemRepo
type MockItemRepo struct {
	mock.Mock
}

func (m *MockItemRepo) List(ctx context.Context, filter repository.ItemFilter) ([]*domain.Item, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Item), args.Error(1)
}
func (m *MockItemRepo) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}
func (m *MockItemRepo) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}
func (m *MockItemRepo) Update(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}
func (m *MockItemRepo) SetAvailability(ctx context.Context, id int32, patch domain.AvailabilityPatch) (*domain.Item, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}
func (m *MockItemRepo) Delete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockItemRepo) UploadImage(ctx context.Context, id int32, filename string, r io.Reader) (*domain.Item, error) {
	args := m.Called(ctx, id, filename, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) List(ctx context.Context, userID int32) ([]*domain.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}
func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}
func (m *MockNotificationRepo) MarkRead(ctx context.Context, id int32) (*domain.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

// MockCategoryRepo
type MockCategoryRepo struct {
	mock.Mock
}

func (m *MockCategoryRepo) List(ctx context.Context) ([]*domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Category), args.Error(1)
}
func (m *MockCategoryRepo) Create(ctx context.Context, name string) (*domain.Category, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

// MockConversationRepo
type MockConversationRepo struct {
	mock.Mock
}

func (m *MockConversationRepo) List(ctx context.Context, userID int32) ([]*domain.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Conversation), args.Error(1)
}
func (m *MockConversationRepo) Create(ctx context.Context, c *domain.Conversation) (*domain.Conversation, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}
func (m *MockConversationRepo) ListMessages(ctx context.Context, conversationID int32) ([]*domain.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}
func (m *MockConversationRepo) SendMessage(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}
func (m *MockConversationRepo) MarkMessageRead(ctx context.Context, id int32) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

// MockAuthRepo
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResult), args.Error(1)
}
func (m *MockAuthRepo) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResult), args.Error(1)
}
