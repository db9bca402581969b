package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rentsnap/internal/domain"
	"rentsnap/internal/repository"
)

// ListConversations fills in each conversation's last message and the number
// of messages the viewer has not read.
func (b *Backend) ListConversations(ctx context.Context, viewerID, userID int32) ([]*domain.Conversation, error) {
	if userID != 0 && userID != viewerID {
		return nil, fmt.Errorf("conversations of user %d: %w", userID, domain.ErrForbidden)
	}
	convs, err := b.store.Conversations().ListForUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	for _, c := range convs {
		msgs, err := b.store.Conversations().ListMessages(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		summarize(c, msgs, viewerID)
	}
	return convs, nil
}

func summarize(c *domain.Conversation, msgs []*domain.Message, viewerID int32) {
	c.UnreadCount = 0
	c.LastMessage = nil
	for _, m := range msgs {
		if !m.IsRead && m.SenderID != viewerID {
			c.UnreadCount++
		}
	}
	if len(msgs) > 0 {
		c.LastMessage = msgs[len(msgs)-1]
	}
}

// CreateConversation opens a conversation between the viewer and one other user.
func (b *Backend) CreateConversation(ctx context.Context, viewerID int32, c *domain.Conversation) (*domain.Conversation, error) {
	ids := dedupe(append([]int32{viewerID}, c.ParticipantIDs...))
	if len(ids) != 2 {
		return nil, &domain.ValidationError{Field: "participant_ids", Message: "a conversation needs exactly one other participant"}
	}
	conv := &domain.Conversation{ParticipantIDs: ids, ItemID: c.ItemID}
	err := b.tx(ctx, func(tx repository.Store) error {
		for _, id := range ids {
			if _, err := tx.Users().GetByID(ctx, id); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return &domain.ValidationError{Field: "participant_ids", Message: fmt.Sprintf("user %d does not exist", id)}
				}
				return err
			}
		}
		if conv.ItemID != nil {
			if _, err := tx.Items().GetByID(ctx, *conv.ItemID); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return &domain.ValidationError{Field: "item", Message: fmt.Sprintf("item %d does not exist", *conv.ItemID)}
				}
				return err
			}
		}
		if err := tx.Conversations().Create(ctx, conv); err != nil {
			return err
		}
		created, err := tx.Conversations().GetByID(ctx, conv.ID)
		if err != nil {
			return err
		}
		conv = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func dedupe(ids []int32) []int32 {
	seen := make(map[int32]bool, len(ids))
	var out []int32
	for _, id := range ids {
		if id != 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// conversationFor hides conversations the viewer does not take part in.
func (b *Backend) conversationFor(ctx context.Context, viewerID, conversationID int32) (*domain.Conversation, error) {
	c, err := b.store.Conversations().GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(viewerID) {
		return nil, fmt.Errorf("conversation %d: %w", conversationID, domain.ErrNotFound)
	}
	return c, nil
}

func (b *Backend) ListMessages(ctx context.Context, viewerID, conversationID int32) ([]*domain.Message, error) {
	if conversationID == 0 {
		return nil, required("conversation_id")
	}
	if _, err := b.conversationFor(ctx, viewerID, conversationID); err != nil {
		return nil, err
	}
	return b.store.Conversations().ListMessages(ctx, conversationID)
}

func (b *Backend) SendMessage(ctx context.Context, viewerID int32, m *domain.Message) (*domain.Message, error) {
	if m.ConversationID == 0 {
		return nil, required("conversation")
	}
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return nil, required("text")
	}
	if _, err := b.conversationFor(ctx, viewerID, m.ConversationID); err != nil {
		return nil, err
	}
	msg := &domain.Message{ConversationID: m.ConversationID, SenderID: viewerID, Text: text}
	if err := b.store.Conversations().CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkMessageRead lets the recipient of a message mark it read.
func (b *Backend) MarkMessageRead(ctx context.Context, viewerID, messageID int32, patch domain.MessagePatch) (*domain.Message, error) {
	m, err := b.store.Conversations().GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := b.conversationFor(ctx, viewerID, m.ConversationID); err != nil {
		return nil, fmt.Errorf("message %d: %w", messageID, domain.ErrNotFound)
	}
	if patch.IsRead == nil || m.IsRead {
		return m, nil
	}
	if !*patch.IsRead {
		return nil, &domain.ValidationError{Field: "is_read", Message: "messages cannot be marked unread"}
	}
	if m.SenderID == viewerID {
		return nil, fmt.Errorf("message %d was sent by user %d: %w", messageID, viewerID, domain.ErrForbidden)
	}
	if err := b.store.Conversations().MarkMessageRead(ctx, messageID); err != nil {
		return nil, err
	}
	m.IsRead = true
	return m, nil
}
