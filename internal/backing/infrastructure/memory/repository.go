package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmehra2102/order-fulfillment/internal/backing/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
)

type Repository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Record
	keys   map[string]int64
}

func NewRepository() *Repository {
	return &Repository{rows: make(map[int64]domain.Record), keys: make(map[string]int64)}
}

func (r *Repository) Upsert(_ context.Context, rec domain.Record) (domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if id, ok := r.keys[rec.Key]; ok {
		existing := r.rows[id]
		existing.Value = rec.Value
		existing.UpdatedAt = now
		r.rows[id] = existing
		return existing, nil
	}
	r.nextID++
	rec.ID = r.nextID
	rec.CreatedAt, rec.UpdatedAt = now, now
	r.rows[rec.ID] = rec
	r.keys[rec.Key] = rec.ID
	return rec, nil
}

func (r *Repository) GetByKey(_ context.Context, key string) (domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.keys[key]
	if !ok {
		return domain.Record{}, apperr.NotFound("record with key %q not found", key)
	}
	return r.rows[id], nil
}

func (r *Repository) Get(_ context.Context, id int64) (domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[id]
	if !ok {
		return domain.Record{}, apperr.NotFound("record %d not found", id)
	}
	return rec, nil
}

func (r *Repository) List(context.Context) ([]domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Record, 0, len(r.rows))
	for _, rec := range r.rows {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repository) DeleteByKey(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.keys[key]
	if !ok {
		return apperr.NotFound("record with key %q not found", key)
	}
	delete(r.keys, key)
	delete(r.rows, id)
	return nil
}
