package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/order-fulfillment/internal/backing/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
)

const recordColumns = `id, data_key, data_value, created_at, updated_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{
		log:  log,
		pool: pool,
	}
}

func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS backing_data (
		id BIGSERIAL PRIMARY KEY,
		data_key VARCHAR(255) NOT NULL UNIQUE,
		data_value TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("migrate backing_data: %w", err)
	}
	return nil
}

func (r *Repository) Upsert(ctx context.Context, rec domain.Record) (domain.Record, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO backing_data (data_key, data_value, created_at, updated_at)
		VALUES ($1,$2,$3,$3)
		ON CONFLICT (data_key) DO UPDATE SET data_value = EXCLUDED.data_value, updated_at = EXCLUDED.updated_at
		RETURNING `+recordColumns, rec.Key, rec.Value, time.Now().UTC())
	return scanRecord(row)
}

func (r *Repository) GetByKey(ctx context.Context, key string) (domain.Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM backing_data WHERE data_key=$1`, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Record{}, apperr.NotFound("record with key %q not found", key)
	}
	return rec, err
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM backing_data WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Record{}, apperr.NotFound("record %d not found", id)
	}
	return rec, err
}

func (r *Repository) List(ctx context.Context) ([]domain.Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+recordColumns+` FROM backing_data ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteByKey(ctx context.Context, key string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM backing_data WHERE data_key=$1`, key)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("record with key %q not found", key)
	}
	return nil
}

func scanRecord(row pgx.Row) (domain.Record, error) {
	var rec domain.Record
	err := row.Scan(&rec.ID, &rec.Key, &rec.Value, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}
