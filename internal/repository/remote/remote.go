// Package remote implements the repository interfaces on top of the caching
// data client.
package remote

import (
	"errors"
	"fmt"
	"strings"

	"rentsnap/internal/client"
	"rentsnap/internal/domain"
	"rentsnap/internal/repository"
)

// Error codes the backend attaches to rejected transitions.
const (
	CodeInvalidTransition = "invalid_transition"
	CodeCodeMismatch      = "code_mismatch"
	CodeItemInUse         = "item_in_use"
)

type Store struct {
	repository.AuthRepository
	repository.ItemRepository
	repository.RequestRepository
	repository.NotificationRepository
	repository.CategoryRepository
	repository.ConversationRepository
}

func NewStore(c *client.Client) *Store {
	return &Store{
		AuthRepository:         NewAuthRepository(c),
		ItemRepository:         NewItemRepository(c),
		RequestRepository:      NewRequestRepository(c),
		NotificationRepository: NewNotificationRepository(c),
		CategoryRepository:     NewCategoryRepository(c),
		ConversationRepository: NewConversationRepository(c),
	}
}

// mapError attaches the domain sentinel named by the backend's error code.
func mapError(err error) error {
	var herr *client.HTTPError
	if !errors.As(err, &herr) {
		return err
	}
	switch herr.Code {
	case CodeInvalidTransition:
		return fmt.Errorf("%w: %w", domain.ErrInvalidTransition, err)
	case CodeCodeMismatch:
		return fmt.Errorf("%w: %w", domain.ErrCodeMismatch, err)
	case CodeItemInUse:
		return fmt.Errorf("%w: %w", domain.ErrItemInUse, err)
	}
	if herr.StatusCode == 400 {
		ve := &domain.ValidationError{Message: herr.Message}
		if len(herr.Fields) == 1 {
			for field, msgs := range herr.Fields {
				ve.Field = field
				ve.Message = strings.Join(msgs, " ")
			}
		}
		return fmt.Errorf("%w: %w", ve, err)
	}
	return err
}

func idPath(collection string, id int32, action ...string) string {
	p := fmt.Sprintf("/%s/%d/", collection, id)
	for _, a := range action {
		p += a + "/"
	}
	return p
}
