// Package cacheaside keeps hot reads of one entity type in a Cache while the
// durable store stays authoritative.
package cacheaside

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
)

// Store is the durable side of the layer. Load must return an error matching
// apperr.ErrNotFound when the key does not exist.
type Store[T any] interface {
	Load(ctx context.Context, key string) (T, error)
	Save(ctx context.Context, key string, v T) (T, error)
	Remove(ctx context.Context, key string) error
}

// loadTimeout bounds a shared store read once it no longer follows a caller.
const loadTimeout = 10 * time.Second

type Aside[T any] struct {
	log    *slog.Logger
	cache  Cache
	store  Store[T]
	prefix string
	ttl    time.Duration
	group  singleflight.Group
}

type Option func(*options)

type options struct {
	ttl time.Duration
}

func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

func New[T any](log *slog.Logger, cache Cache, store Store[T], prefix string, opts ...Option) *Aside[T] {
	o := options{ttl: DefaultTTL}
	for _, opt := range opts {
		opt(&o)
	}
	return &Aside[T]{log: log, cache: cache, store: store, prefix: prefix, ttl: o.ttl}
}

func (a *Aside[T]) Key(naturalKey string) string { return a.prefix + naturalKey }

func (a *Aside[T]) Prefix() string { return a.prefix }

// Get serves from the cache when possible. On a miss the value is loaded from
// the store and cached; store misses are not cached. Concurrent misses for the
// same key share one store read, which runs detached from any single caller
// so one caller giving up does not fail the others.
func (a *Aside[T]) Get(ctx context.Context, naturalKey string) (T, error) {
	key := a.Key(naturalKey)
	if v, ok := a.cached(ctx, key); ok {
		return v, nil
	}

	ch := a.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		if v, ok := a.cached(lctx, key); ok {
			return v, nil
		}
		v, err := a.store.Load(lctx, naturalKey)
		if err != nil {
			return v, err
		}
		a.set(lctx, key, v)
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Put writes the store first, then overwrites the cache entry. A cache write
// failure is logged and the store write stands; the stale window is bounded
// by the TTL.
func (a *Aside[T]) Put(ctx context.Context, naturalKey string, v T) (T, error) {
	saved, err := a.store.Save(ctx, naturalKey, v)
	if err != nil {
		return saved, err
	}
	a.set(ctx, a.Key(naturalKey), saved)
	return saved, nil
}

// Delete removes the row from the store and then evicts the cache entry so a
// post-delete read cannot be served from cache.
func (a *Aside[T]) Delete(ctx context.Context, naturalKey string) error {
	if err := a.store.Remove(ctx, naturalKey); err != nil {
		return err
	}
	a.Evict(ctx, naturalKey)
	return nil
}

// Evict drops the cache entry for a key whose row was changed outside Put.
func (a *Aside[T]) Evict(ctx context.Context, naturalKey string) {
	key := a.Key(naturalKey)
	if err := a.cache.Delete(ctx, key); err != nil {
		a.log.Warn("cache evict failed", "key", key, "err", err)
	}
}

// ClearAll evicts every entry under this layer's prefix.
func (a *Aside[T]) ClearAll(ctx context.Context) (int, error) {
	return ClearPrefix(ctx, a.cache, a.prefix)
}

// ClearPrefix scans the cache for keys starting with prefix and evicts them in
// one call. The store is not touched.
func ClearPrefix(ctx context.Context, c Cache, prefix string) (int, error) {
	keys, err := c.Keys(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("scan cache prefix %q: %w", prefix, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := c.Delete(ctx, keys...); err != nil {
		return 0, fmt.Errorf("evict %d keys under %q: %w", len(keys), prefix, err)
	}
	return len(keys), nil
}

func (a *Aside[T]) cached(ctx context.Context, key string) (T, bool) {
	var v T
	b, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		a.log.Warn("cache read failed, falling back to store", "key", key, "err", err)
		return v, false
	}
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(b, &v); err != nil {
		a.log.Warn("cache entry undecodable, dropping", "key", key, "err", err)
		_ = a.cache.Delete(ctx, key)
		return v, false
	}
	return v, true
}

func (a *Aside[T]) set(ctx context.Context, key string, v T) {
	b, err := json.Marshal(v)
	if err != nil {
		a.log.Warn("cache encode failed", "key", key, "err", err)
		return
	}
	if err := a.cache.Set(ctx, key, b, a.ttl); err != nil {
		a.log.Warn("cache write failed", "key", key, "err", err)
	}
}

// IsMiss reports whether err is a store miss surfaced by Get.
func IsMiss(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
