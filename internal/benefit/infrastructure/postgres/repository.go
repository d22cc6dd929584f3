package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/order-fulfillment/internal/benefit/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
)

const estimationColumns = `id, order_id, customer_id, order_total_amount, estimated_benefit_amount,
	benefit_type, status, calculation_details, estimation_date, created_at, updated_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS benefit_estimations (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL,
			customer_id TEXT NOT NULL,
			order_total_amount NUMERIC(12,2) NOT NULL,
			estimated_benefit_amount NUMERIC(12,2) NOT NULL CHECK (estimated_benefit_amount >= 0),
			benefit_type TEXT NOT NULL,
			status TEXT NOT NULL,
			calculation_details TEXT NOT NULL,
			estimation_date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS benefit_estimations_customer_idx ON benefit_estimations (customer_id, status)`)
	if err != nil {
		return fmt.Errorf("migrate benefit_estimations: %w", err)
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, e domain.Estimation) (domain.Estimation, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO benefit_estimations
		(order_id, customer_id, order_total_amount, estimated_benefit_amount, benefit_type, status,
		 calculation_details, estimation_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
		e.OrderID, e.CustomerID, e.OrderTotalAmount, e.EstimatedBenefitAmount, string(e.BenefitType), string(e.Status),
		e.CalculationDetails, e.EstimationDate, e.CreatedAt, e.UpdatedAt).Scan(&e.ID)
	if err != nil {
		return domain.Estimation{}, err
	}
	return e, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.Estimation, error) {
	e, err := scanEstimation(r.pool.QueryRow(ctx, `SELECT `+estimationColumns+` FROM benefit_estimations WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Estimation{}, apperr.NotFound("benefit estimation %d not found", id)
	}
	return e, err
}

func (r *Repository) List(ctx context.Context, f domain.Filter) ([]domain.Estimation, error) {
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
	if f.BenefitType != "" {
		add("benefit_type = $%d", string(f.BenefitType))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	q := `SELECT ` + estimationColumns + ` FROM benefit_estimations`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]domain.Estimation, 0)
	for rows.Next() {
		e, err := scanEstimation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) Save(ctx context.Context, e domain.Estimation) (domain.Estimation, error) {
	ct, err := r.pool.Exec(ctx, `UPDATE benefit_estimations
		SET customer_id=$2, order_total_amount=$3, estimated_benefit_amount=$4, benefit_type=$5, status=$6,
		    calculation_details=$7, updated_at=$8
		WHERE id=$1`,
		e.ID, e.CustomerID, e.OrderTotalAmount, e.EstimatedBenefitAmount, string(e.BenefitType), string(e.Status),
		e.CalculationDetails, e.UpdatedAt)
	if err != nil {
		return domain.Estimation{}, err
	}
	if ct.RowsAffected() == 0 {
		return domain.Estimation{}, apperr.NotFound("benefit estimation %d not found", e.ID)
	}
	return e, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM benefit_estimations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("benefit estimation %d not found", id)
	}
	return nil
}

func scanEstimation(row pgx.Row) (domain.Estimation, error) {
	var (
		e          domain.Estimation
		bt, status string
	)
	err := row.Scan(&e.ID, &e.OrderID, &e.CustomerID, &e.OrderTotalAmount, &e.EstimatedBenefitAmount,
		&bt, &status, &e.CalculationDetails, &e.EstimationDate, &e.CreatedAt, &e.UpdatedAt)
	e.BenefitType = domain.BenefitType(bt)
	e.Status = domain.EstimationStatus(status)
	return e, err
}
