// Package memory is an in-process order store for local runs and tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/dmehra2102/order-fulfillment/internal/order/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
)

type Repository struct {
	mu         sync.Mutex
	nextID     int64
	nextItemID int64
	rows       map[int64]domain.Order
}

func NewRepository() *Repository {
	return &Repository{rows: make(map[int64]domain.Order)}
}

func (r *Repository) Create(_ context.Context, o domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	o.ID = r.nextID
	o.Items = slices.Clone(o.Items)
	for i := range o.Items {
		r.nextItemID++
		o.Items[i].ID = r.nextItemID
	}
	r.rows[o.ID] = o
	return o, nil
}

func (r *Repository) Get(_ context.Context, id int64) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok {
		return domain.Order{}, apperr.NotFound("order %d not found", id)
	}
	return o, nil
}

func (r *Repository) List(_ context.Context, f domain.Filter) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Order, 0, len(r.rows))
	for _, o := range r.rows {
		if f.Matches(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Save overwrites the order header. Items are immutable once created.
func (r *Repository) Save(_ context.Context, o domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[o.ID]
	if !ok {
		return domain.Order{}, apperr.NotFound("order %d not found", o.ID)
	}
	o.Items = cur.Items
	o.CreatedAt = cur.CreatedAt
	r.rows[o.ID] = o
	return o, nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return apperr.NotFound("order %d not found", id)
	}
	delete(r.rows, id)
	return nil
}
