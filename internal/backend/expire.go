package backend

import (
	"context"
	"errors"
	"time"

	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
	"rentsnap/internal/repository"
)

// ExpireStaleRequests cancels Pending requests older than maxAge and returns
// how many it cancelled. Requests answered in the meantime are skipped.
func (b *Backend) ExpireStaleRequests(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := b.now().Add(-maxAge)
	logger.EnterMethod("Backend.ExpireStaleRequests", "cutoff", cutoff)
	stale, err := b.store.Requests().ListPendingBefore(ctx, cutoff)
	if err != nil {
		logger.ExitMethodWithError("Backend.ExpireStaleRequests", err)
		return 0, err
	}
	expired := 0
	for _, r := range stale {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		r.Status = domain.StatusCancelled
		err := b.tx(ctx, func(tx repository.Store) error {
			return tx.Requests().Update(ctx, r, domain.StatusPending)
		})
		switch {
		case err == nil:
			expired++
		case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrNotFound):
			logger.Debug("Request changed before it expired", "requestID", r.ID, "error", err)
		default:
			logger.ExitMethodWithError("Backend.ExpireStaleRequests", err)
			return expired, err
		}
	}
	logger.ExitMethod("Backend.ExpireStaleRequests", "expired", expired, "candidates", len(stale))
	return expired, nil
}
