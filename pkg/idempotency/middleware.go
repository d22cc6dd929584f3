package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/order-fulfillment/pkg/httpx"
)

const Header = "Idempotency-Key"

type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}

// Seen claims key and reports whether an earlier request already held it.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}

	return !ok, nil
}

// Release frees a claimed key so the request can be retried.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// Middleware rejects a request whose Idempotency-Key was already used in
// scope with 409, before the handler runs. Requests without the header pass
// through. If the store is unreachable the request is let through. A key whose
// request did not answer 2xx is released again, since nothing was created.
func Middleware(log *slog.Logger, s *Store, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(Header)
			if key == "" || s == nil {
				next.ServeHTTP(w, r)
				return
			}
			seen, err := s.Seen(r.Context(), s.Key(scope, key))
			if err != nil {
				log.Warn("idempotency check failed", "scope", scope, "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if seen {
				log.Info("duplicate request rejected", "scope", scope, "key", key)
				httpx.WriteJSON(w, http.StatusConflict, httpx.ErrorBody{
					Error: "request with this Idempotency-Key was already received",
					Kind:  "duplicate_request",
				})
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			// Status 0 means nothing was written yet, which net/http sends as 200.
			if status := ww.Status(); status != 0 && (status < 200 || status > 299) {
				if err := s.Release(context.WithoutCancel(r.Context()), s.Key(scope, key)); err != nil {
					log.Warn("idempotency release failed", "scope", scope, "key", key, "err", err)
				}
			}
		})
	}
}
