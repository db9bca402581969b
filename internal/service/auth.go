package service

import (
	"context"
	"strings"

	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
	"rentsnap/internal/repository"
	"rentsnap/internal/session"
)

// SessionHolder is the part of the data client that carries credentials.
type SessionHolder interface {
	Session() *session.Session
	UseSession(ctx context.Context, sess *session.Session)
}

type authService struct {
	authRepo repository.AuthRepository
	store    session.Store
	holder   SessionHolder
}

func NewAuthService(authRepo repository.AuthRepository, store session.Store, holder SessionHolder) AuthService {
	return &authService{authRepo: authRepo, store: store, holder: holder}
}

func (s *authService) Login(ctx context.Context, username, password string) (*session.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, &domain.ValidationError{Message: "username and password are required"}
	}
	res, err := s.authRepo.Login(ctx, domain.Credentials{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	return s.begin(ctx, res)
}

func (s *authService) Register(ctx context.Context, reg domain.Registration) (*session.Session, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	res, err := s.authRepo.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	return s.begin(ctx, res)
}

func (s *authService) begin(ctx context.Context, res *domain.AuthResult) (*session.Session, error) {
	if old := s.holder.Session(); old != nil && old.Active() {
		if err := old.Destroy(); err != nil {
			logger.WarnContext(ctx, "destroying previous session failed", "error", err)
		}
	}
	sess, err := session.Begin(s.store, res)
	if err != nil {
		return nil, err
	}
	s.holder.UseSession(ctx, sess)
	logger.InfoContext(ctx, "signed in", "user_id", sess.UserID())
	return sess, nil
}

// Logout forgets the credentials locally. Tokens are stateless, so the
// backend has nothing to revoke.
func (s *authService) Logout(ctx context.Context) error {
	sess := s.holder.Session()
	if sess == nil {
		return nil
	}
	err := sess.Destroy()
	s.holder.UseSession(ctx, session.Anonymous())
	return err
}
