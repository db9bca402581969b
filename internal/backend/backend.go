// Package backend holds the server side rules of the rental API: who may do
// what to which resource, lifecycle transitions with their codes and item
// occupancy, and the derived fields clients read back. The HTTP layer decodes
// requests and calls in with the authenticated user.
package backend

import (
	"context"
	"errors"
	"time"

	"rentsnap/internal/availability"
	"rentsnap/internal/domain"
	"rentsnap/internal/imaging"
	"rentsnap/internal/mailer"
	"rentsnap/internal/repository"
	"rentsnap/internal/security"
	"rentsnap/internal/storage"
)

// ErrUnauthenticated is returned for missing, invalid or expired tokens.
var ErrUnauthenticated = errors.New("authentication credentials were not provided or are invalid")

type Backend struct {
	store  repository.Store
	tokens security.TokenManager
	calc   *availability.Calculator
	now    func() time.Time

	storage storage.Storage
	images  *imaging.Processor
	mailer  mailer.Mailer
}

type Option func(*Backend)

// WithImages enables item image uploads.
func WithImages(st storage.Storage, p *imaging.Processor) Option {
	return func(b *Backend) {
		b.storage = st
		b.images = p
	}
}

// WithMailer mirrors every stored notification to the target's email address.
func WithMailer(m mailer.Mailer) Option {
	return func(b *Backend) { b.mailer = m }
}

func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
		b.calc.Now = func() domain.Date { return domain.DateOf(now()) }
	}
}

func New(store repository.Store, tokens security.TokenManager, opts ...Option) *Backend {
	b := &Backend{
		store:  store,
		tokens: tokens,
		calc:   availability.NewCalculator(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) tx(ctx context.Context, fn func(tx repository.Store) error) error {
	return b.store.WithTx(ctx, fn)
}

func required(field string) error {
	return &domain.ValidationError{Field: field, Message: "This field is required."}
}
