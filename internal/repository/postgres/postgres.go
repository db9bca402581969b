package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
	"rentsnap/internal/repository"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	q  DBTX
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (s *Store) Users() repository.UserStore                 { return &userRepository{db: s.q} }
func (s *Store) Items() repository.ItemStore                 { return &itemRepository{db: s.q} }
func (s *Store) Requests() repository.RequestStore           { return &requestRepository{db: s.q} }
func (s *Store) Notifications() repository.NotificationStore { return &notificationRepository{db: s.q} }
func (s *Store) Categories() repository.CategoryStore        { return &categoryRepository{db: s.q} }
func (s *Store) Conversations() repository.ConversationStore { return &conversationRepository{db: s.q} }

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.db == nil {
		// Already inside a transaction.
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const uniqueViolation = "23505"

// mapError turns driver errors into domain errors.
func mapError(err error, kind string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", kind, id, domain.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s %v: %w", kind, id, domain.ErrConflict)
	}
	return err
}

// exec runs a statement that must touch exactly one row.
func exec(ctx context.Context, db DBTX, op, kind string, id int32, query string, args ...any) error {
	logger.DatabaseCall(op, query, "id", id)
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult(op, 0, err)
		return mapError(err, kind, id)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult(op, n, err)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
