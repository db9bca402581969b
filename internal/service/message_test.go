package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentsnap/internal/domain"
	"rentsnap/internal/service"
)

func testConversation() *domain.Conversation {
	item := itemID
	return &domain.Conversation{ID: 50, ParticipantIDs: []int32{ownerID, requesterID}, ItemID: &item, UnreadCount: 2}
}

func TestMessageService_StartConversation(t *testing.T) {
	ctx := context.Background()
	item := itemID

	t.Run("ReusesExisting", func(t *testing.T) {
		convs := new(MockConversationRepo)
		convs.On("List", mock.Anything, requesterID).Return([]*domain.Conversation{testConversation()}, nil).Once()

		c, err := service.NewMessageService(convs, nil).StartConversation(ctx, requesterID, ownerID, &item)
		require.NoError(t, err)
		assert.Equal(t, int32(50), c.ID)
		convs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("CreatesForOtherItem", func(t *testing.T) {
		convs := new(MockConversationRepo)
		other := int32(11)
		convs.On("List", mock.Anything, requesterID).Return([]*domain.Conversation{testConversation()}, nil).Once()
		convs.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Conversation) bool {
			return c.HasParticipant(ownerID) && c.HasParticipant(requesterID) && *c.ItemID == other
		})).Return(&domain.Conversation{ID: 51}, nil).Once()

		c, err := service.NewMessageService(convs, nil).StartConversation(ctx, requesterID, ownerID, &other)
		require.NoError(t, err)
		assert.Equal(t, int32(51), c.ID)
	})

	t.Run("WithSelf", func(t *testing.T) {
		_, err := service.NewMessageService(new(MockConversationRepo), nil).StartConversation(ctx, ownerID, ownerID, nil)
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestMessageService_SendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("NotifiesOtherParticipant", func(t *testing.T) {
		convs := new(MockConversationRepo)
		notes := new(MockNotificationRepo)
		svc := service.NewMessageService(convs, service.NewNotificationService(notes))

		long := strings.Repeat("x", 100)
		convs.On("List", mock.Anything, requesterID).Return([]*domain.Conversation{testConversation()}, nil).Once()
		convs.On("SendMessage", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
			return m.ConversationID == 50 && m.SenderID == requesterID && m.Text == long
		})).Return(&domain.Message{ID: 1, SenderName: "Rita", Text: long}, nil).Once()
		notes.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.TargetUserID == ownerID &&
				n.EventType == domain.EventNewMessage &&
				n.RelatedItemID == itemID &&
				len([]rune(n.Message)) == 81
		})).Return(&domain.Notification{ID: 1}, nil).Once()

		_, err := svc.SendMessage(ctx, requesterID, 50, "  "+long+"  ")
		require.NoError(t, err)
		convs.AssertExpectations(t)
		notes.AssertExpectations(t)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := service.NewMessageService(new(MockConversationRepo), nil).SendMessage(ctx, requesterID, 50, " ")
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("NotParticipant", func(t *testing.T) {
		convs := new(MockConversationRepo)
		convs.On("List", mock.Anything, strangerID).Return([]*domain.Conversation{}, nil).Once()

		_, err := service.NewMessageService(convs, nil).SendMessage(ctx, strangerID, 50, "hi")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestMessageService_MarkConversationRead(t *testing.T) {
	convs := new(MockConversationRepo)
	convs.On("List", mock.Anything, ownerID).Return([]*domain.Conversation{testConversation()}, nil).Once()
	convs.On("ListMessages", mock.Anything, int32(50)).Return([]*domain.Message{
		{ID: 1, SenderID: requesterID},
		{ID: 2, SenderID: ownerID},
		{ID: 3, SenderID: requesterID, IsRead: true},
		{ID: 4, SenderID: requesterID},
	}, nil).Once()
	convs.On("MarkMessageRead", mock.Anything, int32(1)).Return(&domain.Message{ID: 1, IsRead: true}, nil).Once()
	convs.On("MarkMessageRead", mock.Anything, int32(4)).Return(&domain.Message{ID: 4, IsRead: true}, nil).Once()

	n, err := service.NewMessageService(convs, nil).MarkConversationRead(context.Background(), ownerID, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	convs.AssertExpectations(t)
}

func TestMessageService_UnreadCount(t *testing.T) {
	convs := new(MockConversationRepo)
	second := testConversation()
	second.ID = 51
	second.UnreadCount = 3
	convs.On("List", mock.Anything, ownerID).Return([]*domain.Conversation{testConversation(), second}, nil).Once()

	n, err := service.NewMessageService(convs, nil).UnreadCount(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}
