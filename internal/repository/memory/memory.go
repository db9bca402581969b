// Package memory is an in-process implementation of repository.Store, used by
// the backend in development and by tests.
package memory

import (
	"context"
	"sync"

	"rentsnap/internal/repository"
)

type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

// view runs fn against the current state under the store lock.
func (s *Store) view(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) Users() repository.UserStore                 { return users{s.view} }
func (s *Store) Items() repository.ItemStore                 { return items{s.view} }
func (s *Store) Requests() repository.RequestStore           { return requests{s.view} }
func (s *Store) Notifications() repository.NotificationStore { return notifications{s.view} }
func (s *Store) Categories() repository.CategoryStore        { return categories{s.view} }
func (s *Store) Conversations() repository.ConversationStore { return conversations{s.view} }

// WithTx holds the store lock for the whole of fn and works on a copy of the
// state, which replaces the live state only when fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(&txStore{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

type txStore struct {
	st *state
}

func (t *txStore) view(fn func(st *state) error) error { return fn(t.st) }

func (t *txStore) Users() repository.UserStore                 { return users{t.view} }
func (t *txStore) Items() repository.ItemStore                 { return items{t.view} }
func (t *txStore) Requests() repository.RequestStore           { return requests{t.view} }
func (t *txStore) Notifications() repository.NotificationStore { return notifications{t.view} }
func (t *txStore) Categories() repository.CategoryStore        { return categories{t.view} }
func (t *txStore) Conversations() repository.ConversationStore { return conversations{t.view} }

// WithTx nests by running fn in the enclosing transaction.
func (t *txStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

type viewFunc func(fn func(st *state) error) error
