package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dmehra2102/order-fulfillment/internal/benefit/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
)

type Repository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Estimation
}

func NewRepository() *Repository {
	return &Repository{rows: make(map[int64]domain.Estimation)}
}

func (r *Repository) Create(_ context.Context, e domain.Estimation) (domain.Estimation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e.ID = r.nextID
	r.rows[e.ID] = e
	return e, nil
}

func (r *Repository) Get(_ context.Context, id int64) (domain.Estimation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok {
		return domain.Estimation{}, apperr.NotFound("benefit estimation %d not found", id)
	}
	return e, nil
}

func (r *Repository) List(_ context.Context, f domain.Filter) ([]domain.Estimation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Estimation, 0)
	for _, e := range r.rows {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repository) Save(_ context.Context, e domain.Estimation) (domain.Estimation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[e.ID]; !ok {
		return domain.Estimation{}, apperr.NotFound("benefit estimation %d not found", e.ID)
	}
	r.rows[e.ID] = e
	return e, nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return apperr.NotFound("benefit estimation %d not found", id)
	}
	delete(r.rows, id)
	return nil
}
