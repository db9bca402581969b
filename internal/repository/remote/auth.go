package remote

import (
	"context"
	"net/http"

	"rentsnap/internal/client"
	"rentsnap/internal/domain"
	"rentsnap/internal/repository"
)

type authRepository struct {
	c *client.Client
}

func NewAuthRepository(c *client.Client) repository.AuthRepository {
	return &authRepository{c: c}
}

func (r *authRepository) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	var res domain.AuthResult
	if err := r.c.Mutate(ctx, http.MethodPost, "/auth/login/", creds, &res); err != nil {
		return nil, mapError(err)
	}
	return &res, nil
}

func (r *authRepository) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	var res domain.AuthResult
	if err := r.c.Mutate(ctx, http.MethodPost, "/auth/register/", reg, &res); err != nil {
		return nil, mapError(err)
	}
	return &res, nil
}
