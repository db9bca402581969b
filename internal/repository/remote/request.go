package remote

import (
	"context"
	"net/http"

	"rentsnap/internal/client"
	"rentsnap/internal/domain"
	"rentsnap/internal/repository"
)

type requestRepository struct {
	c *client.Client
}

func NewRequestRepository(c *client.Client) repository.RequestRepository {
	return &requestRepository{c: c}
}

func (r *requestRepository) List(ctx context.Context, filter repository.RequestFilter) ([]*domain.RentalRequest, error) {
	var reqs client.List[*domain.RentalRequest]
	if err := r.c.Get(ctx, "/requests/", filter.Values(), &reqs); err != nil {
		return nil, mapError(err)
	}
	return reqs, nil
}

func (r *requestRepository) GetByID(ctx context.Context, id int32) (*domain.RentalRequest, error) {
	var req domain.RentalRequest
	if err := r.c.Get(ctx, idPath("requests", id), nil, &req); err != nil {
		return nil, mapError(err)
	}
	return &req, nil
}

func (r *requestRepository) Create(ctx context.Context, nr *domain.NewRequest) (*domain.RentalRequest, error) {
	return r.send(ctx, http.MethodPost, "/requests/", nr)
}

func (r *requestRepository) Patch(ctx context.Context, id int32, patch domain.RequestPatch) (*domain.RentalRequest, error) {
	return r.send(ctx, http.MethodPatch, idPath("requests", id), patch)
}

func (r *requestRepository) ConfirmHandover(ctx context.Context, id int32, code string) (*domain.RentalRequest, error) {
	return r.send(ctx, http.MethodPost, idPath("requests", id, "confirm_handover"), domain.CodeSubmission{Code: code})
}

func (r *requestRepository) ConfirmReturn(ctx context.Context, id int32, code string) (*domain.RentalRequest, error) {
	return r.send(ctx, http.MethodPost, idPath("requests", id, "confirm_return"), domain.CodeSubmission{Code: code})
}

func (r *requestRepository) SimulatePayment(ctx context.Context, id int32) (*domain.RentalRequest, error) {
	return r.send(ctx, http.MethodPost, idPath("requests", id, "simulate_payment"), nil)
}

func (r *requestRepository) send(ctx context.Context, method, path string, body any) (*domain.RentalRequest, error) {
	var out domain.RentalRequest
	if err := r.c.Mutate(ctx, method, path, body, &out); err != nil {
		return nil, mapError(err)
	}
	// Transitions can flip the item between Available and Rented on the server.
	r.c.InvalidatePrefix(ctx, "/items/")
	return &out, nil
}
