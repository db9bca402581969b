package backend

import (
	"context"
	"errors"
	"strings"

	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
	"rentsnap/internal/security"
)

func (b *Backend) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	logger.EnterMethod("Backend.Register", "username", reg.Username)
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := reg.Validate(); err != nil {
		logger.ExitMethodWithError("Backend.Register", err)
		return nil, err
	}
	hash, err := security.HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Username: reg.Username, Email: reg.Email, FirstName: reg.FirstName, LastName: reg.LastName}
	if err := b.store.Users().Create(ctx, user, hash); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			err = &domain.ValidationError{Field: "username", Message: "A user with that username already exists."}
		}
		logger.ExitMethodWithError("Backend.Register", err)
		return nil, err
	}
	res, err := b.issue(user)
	if err != nil {
		return nil, err
	}
	logger.ExitMethod("Backend.Register", "userID", user.ID)
	return res, nil
}

func (b *Backend) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	logger.EnterMethod("Backend.Login", "username", creds.Username)
	if creds.Username == "" {
		return nil, required("username")
	}
	if creds.Password == "" {
		return nil, required("password")
	}
	user, hash, err := b.store.Users().GetByUsername(ctx, strings.TrimSpace(creds.Username))
	if err == nil {
		err = security.CheckPassword(hash, creds.Password)
	}
	if err != nil {
		logger.ExitMethodWithError("Backend.Login", err)
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, security.ErrWrongPassword) {
			return nil, &domain.ValidationError{Field: "non_field_errors", Message: "Unable to log in with provided credentials."}
		}
		return nil, err
	}
	res, err := b.issue(user)
	if err != nil {
		return nil, err
	}
	logger.ExitMethod("Backend.Login", "userID", user.ID)
	return res, nil
}

func (b *Backend) issue(user *domain.User) (*domain.AuthResult, error) {
	token, err := b.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{User: *user, Token: token}, nil
}

// Authenticate resolves a token to its user. Tokens of deleted users are rejected.
func (b *Backend) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := b.tokens.ValidateToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	user, err := b.store.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}
