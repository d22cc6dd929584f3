package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/order-fulfillment/internal/product/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
)

const productColumns = `id, name, description, category, price, stock_quantity, created_at, updated_at`

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
	_, err := r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		price NUMERIC(12,2) NOT NULL CHECK (price > 0),
		stock_quantity INTEGER NOT NULL CHECK (stock_quantity >= 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("migrate products: %w", err)
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, `INSERT INTO products (name, description, category, price, stock_quantity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$6) RETURNING `+productColumns,
		p.Name, p.Description, p.Category, p.Price, p.StockQuantity, now)
	return scanProduct(row)
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	return p, notFound(err, id)
}

func (r *Repository) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `UPDATE products
		SET name=$2, description=$3, category=$4, price=$5, stock_quantity=$6, updated_at=$7
		WHERE id=$1 RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.StockQuantity, time.Now().UTC())
	updated, err := scanProduct(row)
	return updated, notFound(err, p.ID)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("product %d not found", id)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, f domain.Filter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.NameContains != "" {
		args = append(args, "%"+f.NameContains+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if f.InStockOnly {
		where = append(where, "stock_quantity > 0")
	}
	q := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Reserve is one conditional UPDATE, so Postgres row locking serialises
// concurrent reservations of the same product.
func (r *Repository) Reserve(ctx context.Context, id int64, qty int) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = $3
		WHERE id = $1 AND stock_quantity >= $2
		RETURNING `+productColumns, id, qty, time.Now().UTC())
	p, err := scanProduct(row)
	if !errors.Is(err, pgx.ErrNoRows) {
		return p, err
	}

	var stock int
	err = r.pool.QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id=$1`, id).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, apperr.NotFound("product %d not found", id)
	}
	if err != nil {
		return domain.Product{}, err
	}
	return domain.Product{}, apperr.Reservation("insufficient stock for product %d: requested %d, available %d", id, qty, stock)
}

func (r *Repository) Release(ctx context.Context, id int64, qty int) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = $3
		WHERE id = $1 RETURNING `+productColumns, id, qty, time.Now().UTC())
	p, err := scanProduct(row)
	return p, notFound(err, id)
}

func (r *Repository) SetStock(ctx context.Context, id int64, qty int) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `UPDATE products
		SET stock_quantity = $2, updated_at = $3
		WHERE id = $1 RETURNING `+productColumns, id, qty, time.Now().UTC())
	p, err := scanProduct(row)
	return p, notFound(err, id)
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func notFound(err error, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("product %d not found", id)
	}
	return err
}
