package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
	"rentsnap/internal/repository"
)

type requestRepository struct {
	db DBTX
}

const requestSelect = `SELECT r.id, r.item_id, i.name, r.requester_id,
       COALESCE(NULLIF(TRIM(ru.first_name || ' ' || ru.last_name), ''), ru.username),
       r.owner_id,
       COALESCE(NULLIF(TRIM(ou.first_name || ' ' || ou.last_name), ''), ou.username),
       r.start_date, r.end_date, r.status, r.total_price_cents, r.deposit_cents, r.handover_code, r.return_code,
       r.paid_at, r.handed_over_at, r.rating_given, r.requested_at, r.updated_at
  FROM rental_requests r
  JOIN items i ON i.id = r.item_id
  JOIN users ru ON ru.id = r.requester_id
  JOIN users ou ON ou.id = r.owner_id`

func scanRequest(row rowScanner) (*domain.RentalRequest, error) {
	rr := &domain.RentalRequest{}
	err := row.Scan(&rr.ID, &rr.ItemID, &rr.ItemName, &rr.RequesterID, &rr.RequesterName, &rr.OwnerID, &rr.OwnerName,
		&rr.StartDate, &rr.EndDate, &rr.Status, &rr.TotalPrice, &rr.DepositAmount, &rr.HandoverCode, &rr.ReturnCode,
		&rr.PaidAt, &rr.HandedOverAt, &rr.RatingGiven, &rr.RequestedAt, &rr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rr, nil
}

func (r *requestRepository) query(ctx context.Context, op, query string, args ...any) ([]*domain.RentalRequest, error) {
	logger.DatabaseCall(op, query)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult(op, 0, err)
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RentalRequest
	for rows.Next() {
		rr, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	logger.DatabaseResult(op, int64(len(out)), rows.Err())
	return out, rows.Err()
}

func (r *requestRepository) List(ctx context.Context, f repository.RequestFilter) ([]*domain.RentalRequest, error) {
	var where []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.RequesterID != 0 {
		add("r.requester_id = $%d", f.RequesterID)
	}
	if f.OwnerID != 0 {
		add("r.owner_id = $%d", f.OwnerID)
	}
	if f.ItemID != 0 {
		add("r.item_id = $%d", f.ItemID)
	}
	if f.Status != "" {
		add("r.status = $%d", string(f.Status))
	}

	query := requestSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.requested_at DESC, r.id DESC"
	return r.query(ctx, "requestRepository.List", query, args...)
}

func (r *requestRepository) GetByID(ctx context.Context, id int32) (*domain.RentalRequest, error) {
	rr, err := scanRequest(r.db.QueryRowContext(ctx, requestSelect+` WHERE r.id = $1`, id))
	if err != nil {
		return nil, mapError(err, "request", id)
	}
	return rr, nil
}

func (r *requestRepository) Create(ctx context.Context, rr *domain.RentalRequest) error {
	logger.EnterMethod("requestRepository.Create", "itemID", rr.ItemID, "requesterID", rr.RequesterID)
	query := `INSERT INTO rental_requests (item_id, requester_id, owner_id, start_date, end_date, status,
	                                       total_price_cents, deposit_cents)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, requested_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, rr.ItemID, rr.RequesterID, rr.OwnerID, rr.StartDate, rr.EndDate, rr.Status,
		rr.TotalPrice, rr.DepositAmount).
		Scan(&rr.ID, &rr.RequestedAt, &rr.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("requestRepository.Create", err)
		return mapError(err, "request", rr.ItemID)
	}
	logger.ExitMethod("requestRepository.Create", "requestID", rr.ID)
	return nil
}

func (r *requestRepository) Update(ctx context.Context, rr *domain.RentalRequest, expected domain.RequestStatus) error {
	query := `UPDATE rental_requests
	             SET status=$1, handover_code=$2, return_code=$3, paid_at=$4, handed_over_at=$5, rating_given=$6,
	                 updated_at=NOW()
	           WHERE id=$7 AND status=$8`
	err := exec(ctx, r.db, "requestRepository.Update", "request", rr.ID, query,
		rr.Status, rr.HandoverCode, rr.ReturnCode, rr.PaidAt, rr.HandedOverAt, rr.RatingGiven, rr.ID, expected)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return err
	}
	// Either the row is gone or its status moved on underneath us.
	if _, gerr := r.GetByID(ctx, rr.ID); gerr != nil {
		return gerr
	}
	return fmt.Errorf("request %d is no longer %s: %w", rr.ID, expected, domain.ErrConflict)
}

func (r *requestRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*domain.RentalRequest, error) {
	query := requestSelect + ` WHERE r.status = $1 AND r.requested_at < $2 ORDER BY r.requested_at DESC, r.id DESC`
	return r.query(ctx, "requestRepository.ListPendingBefore", query, string(domain.StatusPending), cutoff)
}
