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

type conversationRepository struct {
	c *client.Client
}

func NewConversationRepository(c *client.Client) repository.ConversationRepository {
	return &conversationRepository{c: c}
}

func (r *conversationRepository) List(ctx context.Context, userID int32) ([]*domain.Conversation, error) {
	params := url.Values{"user_id": {strconv.Itoa(int(userID))}}
	var out client.List[*domain.Conversation]
	if err := r.c.Get(ctx, "/conversations/", params, &out); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *conversationRepository) Create(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error) {
	var out domain.Conversation
	if err := r.c.Mutate(ctx, http.MethodPost, "/conversations/", conv, &out); err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

func (r *conversationRepository) ListMessages(ctx context.Context, conversationID int32) ([]*domain.Message, error) {
	params := url.Values{"conversation_id": {strconv.Itoa(int(conversationID))}}
	var out client.List[*domain.Message]
	if err := r.c.Get(ctx, "/messages/", params, &out); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *conversationRepository) SendMessage(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	var out domain.Message
	if err := r.c.Mutate(ctx, http.MethodPost, "/messages/", m, &out); err != nil {
		return nil, mapError(err)
	}
	// A new message changes the conversation's preview and unread count.
	r.c.InvalidatePrefix(ctx, "/conversations/")
	return &out, nil
}

func (r *conversationRepository) MarkMessageRead(ctx context.Context, id int32) (*domain.Message, error) {
	read := true
	var out domain.Message
	if err := r.c.Mutate(ctx, http.MethodPatch, idPath("messages", id), domain.MessagePatch{IsRead: &read}, &out); err != nil {
		return nil, mapError(err)
	}
	r.c.InvalidatePrefix(ctx, "/conversations/")
	return &out, nil
}
