package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dmehra2102/order-fulfillment/internal/payout/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
)

type Repository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Payout
	refs   map[string]int64
}

func NewRepository() *Repository {
	return &Repository{rows: make(map[int64]domain.Payout), refs: make(map[string]int64)}
}

func (r *Repository) Create(_ context.Context, p domain.Payout) (domain.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.refs[p.ReferenceNumber]; dup {
		return domain.Payout{}, apperr.Validation("reference number %s already used", p.ReferenceNumber)
	}
	r.nextID++
	p.ID = r.nextID
	r.rows[p.ID] = p
	r.refs[p.ReferenceNumber] = p.ID
	return p, nil
}

func (r *Repository) Get(_ context.Context, id int64) (domain.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return domain.Payout{}, apperr.NotFound("payout %d not found", id)
	}
	return p, nil
}

func (r *Repository) List(_ context.Context, f domain.Filter) ([]domain.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Payout, 0)
	for _, p := range r.rows {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repository) Save(_ context.Context, p domain.Payout) (domain.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[p.ID]; !ok {
		return domain.Payout{}, apperr.NotFound("payout %d not found", p.ID)
	}
	r.rows[p.ID] = p
	return p, nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return apperr.NotFound("payout %d not found", id)
	}
	delete(r.refs, p.ReferenceNumber)
	delete(r.rows, id)
	return nil
}
