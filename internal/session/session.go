// Package session holds the signed-in user's credentials. A Session is created
// on login, handed to the data client, and destroyed on logout or when the
// backend answers 401.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"rentsnap/internal/domain"
)

// Keys under which session state is persisted.
const (
	KeyToken        = "rentsnapToken"
	KeyActiveUserID = "rentsnapActiveUserId"
	KeyUser         = "rentsnapUser"
)

var ErrNoSession = errors.New("not signed in")

// Store persists session values between process runs.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

type Session struct {
	mu     sync.RWMutex
	store  Store
	token  string
	userID int32
	user   *domain.User
}

// Begin starts a session from a login or registration result and persists it.
func Begin(store Store, res *domain.AuthResult) (*Session, error) {
	if res == nil || res.Token == "" {
		return nil, fmt.Errorf("begin session: empty token")
	}
	user := res.User
	s := &Session{store: store, token: res.Token, userID: user.ID, user: &user}
	if err := s.persist(); err != nil {
		return nil, err
	}
	return s, nil
}

// Resume loads a previously persisted session. It returns ErrNoSession when
// nothing is stored.
func Resume(store Store) (*Session, error) {
	token, ok, err := store.Get(KeyToken)
	if err != nil {
		return nil, fmt.Errorf("load session token: %w", err)
	}
	if !ok || token == "" {
		return nil, ErrNoSession
	}
	s := &Session{store: store, token: token}

	if raw, ok, err := store.Get(KeyActiveUserID); err != nil {
		return nil, fmt.Errorf("load session user id: %w", err)
	} else if ok {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("load session user id: %w", err)
		}
		s.userID = int32(id)
	}
	if raw, ok, err := store.Get(KeyUser); err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	} else if ok {
		var u domain.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			s.user = &u
		}
	}
	return s, nil
}

// Anonymous is a session with no credentials, used for login and registration.
func Anonymous() *Session {
	return &Session{}
}

func (s *Session) persist() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Set(KeyToken, s.token); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	if err := s.store.Set(KeyActiveUserID, strconv.FormatInt(int64(s.userID), 10)); err != nil {
		return fmt.Errorf("persist session user id: %w", err)
	}
	if s.user != nil {
		raw, err := json.Marshal(s.user)
		if err != nil {
			return err
		}
		if err := s.store.Set(KeyUser, string(raw)); err != nil {
			return fmt.Errorf("persist session user: %w", err)
		}
	}
	return nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) UserID() int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// User returns a copy of the signed-in user, or nil if unknown.
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Active() bool {
	return s.Token() != ""
}

// Destroy forgets the credentials in memory and in the store. It is safe to
// call more than once.
func (s *Session) Destroy() error {
	s.mu.Lock()
	s.token = ""
	s.userID = 0
	s.user = nil
	store := s.store
	s.mu.Unlock()

	if store == nil {
		return nil
	}
	return store.Delete(KeyToken, KeyActiveUserID, KeyUser)
}
