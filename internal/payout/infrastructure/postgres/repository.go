package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/order-fulfillment/internal/payout/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
)

const payoutColumns = `id, benefit_estimation_id, customer_id, order_id, payout_amount, payout_method, status,
	reference_number, transaction_details, failure_reason, payout_date, created_at, updated_at`

const uniqueViolation = "23505"

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS payouts (
			id BIGSERIAL PRIMARY KEY,
			benefit_estimation_id BIGINT NOT NULL,
			customer_id TEXT NOT NULL,
			order_id BIGINT NOT NULL,
			payout_amount NUMERIC(12,2) NOT NULL CHECK (payout_amount > 0),
			payout_method TEXT NOT NULL,
			status TEXT NOT NULL,
			reference_number TEXT NOT NULL UNIQUE,
			transaction_details TEXT NOT NULL DEFAULT '',
			failure_reason TEXT NOT NULL DEFAULT '',
			payout_date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS payouts_customer_idx ON payouts (customer_id, status)`)
	if err != nil {
		return fmt.Errorf("migrate payouts: %w", err)
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, p domain.Payout) (domain.Payout, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO payouts
		(benefit_estimation_id, customer_id, order_id, payout_amount, payout_method, status,
		 reference_number, transaction_details, failure_reason, payout_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id`,
		p.BenefitEstimationID, p.CustomerID, p.OrderID, p.PayoutAmount, string(p.PayoutMethod), string(p.Status),
		p.ReferenceNumber, p.TransactionDetails, p.FailureReason, p.PayoutDate, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.Payout{}, apperr.Validation("reference number %s already used", p.ReferenceNumber)
	}
	if err != nil {
		return domain.Payout{}, err
	}
	return p, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.Payout, error) {
	p, err := scanPayout(r.pool.QueryRow(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Payout{}, apperr.NotFound("payout %d not found", id)
	}
	return p, err
}

func (r *Repository) List(ctx context.Context, f domain.Filter) ([]domain.Payout, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CustomerID != "" {
		add("customer_id = $%d", f.CustomerID)
	}
	if f.OrderID != 0 {
		add("order_id = $%d", f.OrderID)
	}
	if f.BenefitEstimationID != 0 {
		add("benefit_estimation_id = $%d", f.BenefitEstimationID)
	}
	if f.Method != "" {
		add("payout_method = $%d", string(f.Method))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	q := `SELECT ` + payoutColumns + ` FROM payouts`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]domain.Payout, 0)
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) Save(ctx context.Context, p domain.Payout) (domain.Payout, error) {
	ct, err := r.pool.Exec(ctx, `UPDATE payouts
		SET customer_id=$2, payout_amount=$3, payout_method=$4, status=$5,
		    transaction_details=$6, failure_reason=$7, updated_at=$8
		WHERE id=$1`,
		p.ID, p.CustomerID, p.PayoutAmount, string(p.PayoutMethod), string(p.Status),
		p.TransactionDetails, p.FailureReason, p.UpdatedAt)
	if err != nil {
		return domain.Payout{}, err
	}
	if ct.RowsAffected() == 0 {
		return domain.Payout{}, apperr.NotFound("payout %d not found", p.ID)
	}
	return p, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM payouts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("payout %d not found", id)
	}
	return nil
}

func scanPayout(row pgx.Row) (domain.Payout, error) {
	var (
		p              domain.Payout
		method, status string
	)
	err := row.Scan(&p.ID, &p.BenefitEstimationID, &p.CustomerID, &p.OrderID, &p.PayoutAmount, &method, &status,
		&p.ReferenceNumber, &p.TransactionDetails, &p.FailureReason, &p.PayoutDate, &p.CreatedAt, &p.UpdatedAt)
	p.PayoutMethod = domain.Method(method)
	p.Status = domain.Status(status)
	return p, err
}
