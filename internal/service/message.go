package service

import (
	"context"
	"fmt"
	"strings"

	"rentsnap/internal/client"
	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
	"rentsnap/internal/repository"
)

const messagePreviewLen = 80

type messageService struct {
	convRepo repository.ConversationRepository
	notifier NotificationService
}

func NewMessageService(convRepo repository.ConversationRepository, notifier NotificationService) MessageService {
	return &messageService{convRepo: convRepo, notifier: notifier}
}

func (s *messageService) ListConversations(ctx context.Context, userID int32) ([]*domain.Conversation, error) {
	return s.convRepo.List(ctx, userID)
}

// StartConversation returns the existing conversation between the two users
// about itemID, or creates it.
func (s *messageService) StartConversation(ctx context.Context, userID, otherUserID int32, itemID *int32) (*domain.Conversation, error) {
	if userID == otherUserID {
		return nil, &domain.ValidationError{Field: "participant_ids", Message: "cannot start a conversation with yourself"}
	}
	convs, err := s.convRepo.List(client.FreshRead(ctx), userID)
	if err != nil {
		return nil, err
	}
	for _, c := range convs {
		if c.HasParticipant(userID) && c.HasParticipant(otherUserID) && sameItem(c.ItemID, itemID) {
			return c, nil
		}
	}
	return s.convRepo.Create(ctx, &domain.Conversation{
		ParticipantIDs: []int32{userID, otherUserID},
		ItemID:         itemID,
	})
}

func sameItem(a, b *int32) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *messageService) conversation(ctx context.Context, userID, conversationID int32) (*domain.Conversation, error) {
	convs, err := s.convRepo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range convs {
		if c.ID == conversationID {
			if !c.HasParticipant(userID) {
				return nil, domain.ErrForbidden
			}
			return c, nil
		}
	}
	return nil, fmt.Errorf("conversation %d: %w", conversationID, domain.ErrNotFound)
}

func (s *messageService) ListMessages(ctx context.Context, userID, conversationID int32) ([]*domain.Message, error) {
	if _, err := s.conversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.convRepo.ListMessages(ctx, conversationID)
}

func (s *messageService) SendMessage(ctx context.Context, senderID, conversationID int32, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &domain.ValidationError{Field: "text", Message: "message is empty"}
	}
	conv, err := s.conversation(ctx, senderID, conversationID)
	if err != nil {
		return nil, err
	}
	msg, err := s.convRepo.SendMessage(ctx, &domain.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
	})
	if err != nil {
		return nil, err
	}

	preview := text
	if r := []rune(preview); len(r) > messagePreviewLen {
		preview = string(r[:messagePreviewLen]) + "…"
	}
	for _, id := range conv.ParticipantIDs {
		if id == senderID || s.notifier == nil {
			continue
		}
		note := &domain.Notification{
			TargetUserID:    id,
			EventType:       domain.EventNewMessage,
			Title:           "New Message",
			Message:         preview,
			Link:            fmt.Sprintf("/messages?conversation=%d", conversationID),
			RelatedUserID:   senderID,
			RelatedUserName: msg.SenderName,
		}
		if conv.ItemID != nil {
			note.RelatedItemID = *conv.ItemID
		}
		if _, err := s.notifier.Send(ctx, note); err != nil {
			logger.WarnContext(ctx, "message notification failed", "conversation_id", conversationID, "error", err)
		}
	}
	return msg, nil
}

// MarkConversationRead marks every message the user received in the conversation as read.
func (s *messageService) MarkConversationRead(ctx context.Context, userID, conversationID int32) (int, error) {
	if _, err := s.conversation(ctx, userID, conversationID); err != nil {
		return 0, err
	}
	msgs, err := s.convRepo.ListMessages(client.FreshRead(ctx), conversationID)
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, m := range msgs {
		if m.IsRead || m.SenderID == userID {
			continue
		}
		if _, err := s.convRepo.MarkMessageRead(ctx, m.ID); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

func (s *messageService) UnreadCount(ctx context.Context, userID int32) (int, error) {
	convs, err := s.convRepo.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range convs {
		n += c.UnreadCount
	}
	return n, nil
}
