package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/order-fulfillment/internal/backing/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/cacheaside"
	"github.com/dmehra2102/order-fulfillment/pkg/notify"
)

const CachePrefix = "backing_data:"

type Service struct {
	log    *slog.Logger
	repo   RecordRepository
	cache  *cacheaside.Aside[domain.Record]
	notify notify.Notifier
}

func NewService(log *slog.Logger, repo RecordRepository, cache cacheaside.Cache, n notify.Notifier, opts ...cacheaside.Option) *Service {
	return &Service{
		log:    log,
		repo:   repo,
		cache:  cacheaside.New[domain.Record](log, cache, store{repo: repo}, CachePrefix, opts...),
		notify: n,
	}
}

// Save writes the record through the cache and announces it.
func (s *Service) Save(ctx context.Context, r domain.Record) (domain.Record, error) {
	if err := r.Validate(); err != nil {
		return domain.Record{}, err
	}
	saved, err := s.cache.Put(ctx, r.Key, r)
	if err != nil {
		return domain.Record{}, err
	}
	s.log.Info("record saved", "record_id", saved.ID, "key", saved.Key)
	s.notify.Notify(ctx, fmt.Sprintf("Data saved: %s", saved.Key))
	return saved, nil
}

func (s *Service) GetByKey(ctx context.Context, key string) (domain.Record, error) {
	return s.cache.Get(ctx, key)
}

// List always reads the store.
func (s *Service) List(ctx context.Context) ([]domain.Record, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, r.Key); err != nil {
		return err
	}
	s.log.Info("record deleted", "record_id", id, "key", r.Key)
	s.notify.Notify(ctx, fmt.Sprintf("Data deleted: %s", r.Key))
	return nil
}

// ClearCache evicts every cached record. The store is untouched.
func (s *Service) ClearCache(ctx context.Context) (int, error) {
	n, err := s.cache.ClearAll(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Info("record cache cleared", "evicted", n)
	return n, nil
}

type store struct {
	repo RecordRepository
}

func (st store) Load(ctx context.Context, key string) (domain.Record, error) {
	return st.repo.GetByKey(ctx, key)
}

func (st store) Save(ctx context.Context, _ string, r domain.Record) (domain.Record, error) {
	return st.repo.Upsert(ctx, r)
}

func (st store) Remove(ctx context.Context, key string) error {
	return st.repo.DeleteByKey(ctx, key)
}
