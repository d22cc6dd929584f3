// Package memory is an in-process product store for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmehra2102/order-fulfillment/internal/product/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
)

type Repository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Product
}

func NewRepository() *Repository {
	return &Repository{rows: make(map[int64]domain.Product)}
}

func (r *Repository) Create(_ context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := time.Now().UTC()
	p.ID = r.nextID
	p.CreatedAt, p.UpdatedAt = now, now
	r.rows[p.ID] = p
	return p, nil
}

func (r *Repository) Get(_ context.Context, id int64) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return domain.Product{}, apperr.NotFound("product %d not found", id)
	}
	return p, nil
}

func (r *Repository) Update(_ context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[p.ID]
	if !ok {
		return domain.Product{}, apperr.NotFound("product %d not found", p.ID)
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	r.rows[p.ID] = p
	return p, nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return apperr.NotFound("product %d not found", id)
	}
	delete(r.rows, id)
	return nil
}

func (r *Repository) List(_ context.Context, f domain.Filter) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Product, 0, len(r.rows))
	for _, p := range r.rows {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repository) Reserve(_ context.Context, id int64, qty int) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return domain.Product{}, apperr.NotFound("product %d not found", id)
	}
	if !p.HasStock(qty) {
		return domain.Product{}, apperr.Reservation("insufficient stock for product %d: requested %d, available %d", id, qty, p.StockQuantity)
	}
	p.StockQuantity -= qty
	p.UpdatedAt = time.Now().UTC()
	r.rows[id] = p
	return p, nil
}

func (r *Repository) Release(_ context.Context, id int64, qty int) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return domain.Product{}, apperr.NotFound("product %d not found", id)
	}
	p.StockQuantity += qty
	p.UpdatedAt = time.Now().UTC()
	r.rows[id] = p
	return p, nil
}

func (r *Repository) SetStock(_ context.Context, id int64, qty int) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return domain.Product{}, apperr.NotFound("product %d not found", id)
	}
	p.StockQuantity = qty
	p.UpdatedAt = time.Now().UTC()
	r.rows[id] = p
	return p, nil
}
