// Package postgres implements the SnapshotStore port on PostgreSQL.
// Each collection store persists its whole state as one jsonb row keyed
// by the versioned store key.
package postgres

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	pgadapter "github.com/stridewear/shop-backend/internal/adapter/postgres"
)

// Repo provides snapshot persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// New creates a new snapshot repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Load reads the blob stored under key. found is false when no row exists.
func (r *Repo) Load(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := r.sb.
		Select("blob").
		From("store_snapshots").
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return nil, false, pgadapter.MapError(err, "snapshot", key)
	}

	var blob []byte
	err = r.pool.QueryRow(ctx, query, args...).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pgadapter.MapError(err, "snapshot", key)
	}

	return blob, true, nil
}

// Save upserts the blob under key.
func (r *Repo) Save(ctx context.Context, key string, blob []byte) error {
	query, args, err := r.sb.
		Insert("store_snapshots").
		Columns("key", "blob", "updated_at").
		Values(key, blob, sq.Expr("now()")).
		Suffix("ON CONFLICT (key) DO UPDATE SET blob = EXCLUDED.blob, updated_at = now()").
		ToSql()
	if err != nil {
		return pgadapter.MapError(err, "snapshot", key)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return pgadapter.MapError(err, "snapshot", key)
	}
	return nil
}
