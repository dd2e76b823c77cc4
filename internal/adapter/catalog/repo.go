// Package catalog reads the shop's filter dimensions and product activity
// from PostgreSQL. The AI pipeline narrows model output against these
// option lists; the reconciler uses ActiveIDs to detect ghost items.
package catalog

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	pgadapter "github.com/stridewear/shop-backend/internal/adapter/postgres"
	"github.com/stridewear/shop-backend/internal/domain"
)

// Repo provides catalog reads backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Options returns the valid, selectable values for every filter dimension.
func (r *Repo) Options(ctx context.Context) (*domain.FilterOptions, error) {
	opts := &domain.FilterOptions{}

	var err error
	if opts.Brands, err = r.options(ctx, "brands"); err != nil {
		return nil, err
	}
	if opts.Categories, err = r.options(ctx, "categories"); err != nil {
		return nil, err
	}
	if opts.Colors, err = r.options(ctx, "colors"); err != nil {
		return nil, err
	}
	if opts.Genders, err = r.options(ctx, "genders"); err != nil {
		return nil, err
	}
	if opts.Sizes, err = r.sizes(ctx); err != nil {
		return nil, err
	}

	return opts, nil
}

func (r *Repo) options(ctx context.Context, table string) ([]domain.Option, error) {
	query, args, err := r.sb.
		Select("id", "label").
		From(table).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, pgadapter.MapError(err, table, "")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, pgadapter.MapError(err, table, "")
	}
	defer rows.Close()

	var out []domain.Option
	for rows.Next() {
		var o domain.Option
		if err := rows.Scan(&o.Value, &o.Label); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) sizes(ctx context.Context) ([]domain.SizeOption, error) {
	query, args, err := r.sb.
		Select("id", "value").
		From("sizes").
		OrderBy("value").
		ToSql()
	if err != nil {
		return nil, pgadapter.MapError(err, "sizes", "")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, pgadapter.MapError(err, "sizes", "")
	}
	defer rows.Close()

	var out []domain.SizeOption
	for rows.Next() {
		var o domain.SizeOption
		if err := rows.Scan(&o.Value, &o.Label); err != nil {
			return nil, fmt.Errorf("scan sizes row: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ActiveIDs returns the subset of ids that belong to active products.
func (r *Repo) ActiveIDs(ctx context.Context, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := r.sb.
		Select("id").
		From("products").
		Where(sq.Eq{"id": ids}).
		Where(sq.Eq{"is_active": true}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, pgadapter.MapError(err, "products", "")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, pgadapter.MapError(err, "products", "")
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
