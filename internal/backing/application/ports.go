package application

import (
	"context"

	"github.com/dmehra2102/order-fulfillment/internal/backing/domain"
)

type RecordRepository interface {
	// Upsert inserts the record or replaces the value of the record with the
	// same key.
	Upsert(ctx context.Context, r domain.Record) (domain.Record, error)
	GetByKey(ctx context.Context, key string) (domain.Record, error)
	Get(ctx context.Context, id int64) (domain.Record, error)
	List(ctx context.Context) ([]domain.Record, error)
	DeleteByKey(ctx context.Context, key string) error
}
