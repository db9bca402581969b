package postgres

import (
	"context"
	"strings"

	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
)

type userRepository struct {
	db DBTX
}

const userColumns = `id, username, email, first_name, last_name, avatar_url, created_at`

func (r *userRepository) Create(ctx context.Context, u *domain.User, passwordHash string) error {
	logger.EnterMethod("userRepository.Create", "username", u.Username)
	query := `INSERT INTO users (username, email, first_name, last_name, avatar_url, password_hash)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, u.Username, u.Email, u.FirstName, u.LastName, u.AvatarURL, passwordHash).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		err = mapError(err, "user", u.Username)
		logger.ExitMethodWithError("userRepository.Create", err)
		return err
	}
	logger.ExitMethod("userRepository.Create", "userID", u.ID)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err, "user", id)
	}
	return u, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, string, error) {
	u := &domain.User{}
	var hash string
	query := `SELECT ` + userColumns + `, password_hash FROM users WHERE LOWER(username) = $1`
	err := r.db.QueryRowContext(ctx, query, strings.ToLower(username)).
		Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.AvatarURL, &u.CreatedAt, &hash)
	if err != nil {
		return nil, "", mapError(err, "user", username)
	}
	return u, hash, nil
}
