package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dmehra2102/order-fulfillment/internal/product/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
	"github.com/dmehra2102/order-fulfillment/pkg/cacheaside"
	"github.com/dmehra2102/order-fulfillment/pkg/notify"
)

const CachePrefix = "product:"

type Service struct {
	log    *slog.Logger
	repo   ProductRepository
	cache  *cacheaside.Aside[domain.Product]
	notify notify.Notifier
}

func NewService(log *slog.Logger, repo ProductRepository, cache cacheaside.Cache, n notify.Notifier, opts ...cacheaside.Option) *Service {
	return &Service{
		log:    log,
		repo:   repo,
		cache:  cacheaside.New[domain.Product](log, cache, store{repo: repo}, CachePrefix, opts...),
		notify: n,
	}
}

func (s *Service) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product created", "product_id", created.ID)
	s.notify.Notify(ctx, fmt.Sprintf("Product created: %d", created.ID))
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Product, error) {
	return s.cache.Get(ctx, strconv.FormatInt(id, 10))
}

// Update replaces the mutable fields and writes the result through the cache.
func (s *Service) Update(ctx context.Context, id int64, p domain.Product) (domain.Product, error) {
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	p.ID = id
	return s.cache.Put(ctx, strconv.FormatInt(id, 10), p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.cache.Delete(ctx, strconv.FormatInt(id, 10)); err != nil {
		return err
	}
	s.log.Info("product deleted", "product_id", id)
	s.notify.Notify(ctx, fmt.Sprintf("Product deleted: %d", id))
	return nil
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx, domain.Filter{})
}

func (s *Service) ByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return s.repo.List(ctx, domain.Filter{Category: category})
}

func (s *Service) SearchByName(ctx context.Context, name string) ([]domain.Product, error) {
	return s.repo.List(ctx, domain.Filter{NameContains: name})
}

func (s *Service) InStock(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx, domain.Filter{InStockOnly: true})
}

// Reserve atomically takes qty units. It fails with ReservationFailure when
// stock is short and NotFound when the product does not exist.
func (s *Service) Reserve(ctx context.Context, id int64, qty int) (domain.Product, error) {
	if qty <= 0 {
		return domain.Product{}, apperr.Validation("quantity must be greater than 0, got %d", qty)
	}
	p, err := s.repo.Reserve(ctx, id, qty)
	if err != nil {
		return domain.Product{}, err
	}
	s.evict(ctx, id)
	s.log.Info("stock reserved", "product_id", id, "quantity", qty, "remaining", p.StockQuantity)
	return p, nil
}

// Release returns qty units taken by an earlier Reserve.
func (s *Service) Release(ctx context.Context, id int64, qty int) (domain.Product, error) {
	if qty <= 0 {
		return domain.Product{}, apperr.Validation("quantity must be greater than 0, got %d", qty)
	}
	p, err := s.repo.Release(ctx, id, qty)
	if err != nil {
		return domain.Product{}, err
	}
	s.evict(ctx, id)
	s.log.Info("stock released", "product_id", id, "quantity", qty, "remaining", p.StockQuantity)
	return p, nil
}

// SetStock overwrites the stock level. It is not coordinated with Reserve; a
// reservation racing with it can be lost.
func (s *Service) SetStock(ctx context.Context, id int64, qty int) (domain.Product, error) {
	if qty < 0 {
		return domain.Product{}, apperr.Validation("stock quantity must not be negative, got %d", qty)
	}
	p, err := s.repo.SetStock(ctx, id, qty)
	if err != nil {
		return domain.Product{}, err
	}
	s.evict(ctx, id)
	return p, nil
}

func (s *Service) ClearCache(ctx context.Context) (int, error) {
	n, err := s.cache.ClearAll(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Info("product cache cleared", "evicted", n)
	return n, nil
}

func (s *Service) evict(ctx context.Context, id int64) {
	s.cache.Evict(ctx, strconv.FormatInt(id, 10))
}

// store adapts the repository to the cache-aside layer, whose keys are the
// decimal product ids.
type store struct {
	repo ProductRepository
}

func (st store) Load(ctx context.Context, key string) (domain.Product, error) {
	id, err := parseID(key)
	if err != nil {
		return domain.Product{}, err
	}
	return st.repo.Get(ctx, id)
}

func (st store) Save(ctx context.Context, _ string, p domain.Product) (domain.Product, error) {
	return st.repo.Update(ctx, p)
}

func (st store) Remove(ctx context.Context, key string) error {
	id, err := parseID(key)
	if err != nil {
		return err
	}
	return st.repo.Delete(ctx, id)
}

func parseID(key string) (int64, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, apperr.Validation("invalid product id %q", key)
	}
	return id, nil
}
