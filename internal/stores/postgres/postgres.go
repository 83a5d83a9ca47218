// Package postgres persists carts as one row per owner in a key-value style
// table, keeping the store interchangeable with the Redis backend.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"cart-service/internal/cart"
	"cart-service/pkg/logkey"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the schema up to date using the embedded goose migrations.
func Migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database for migration: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// NewPool opens a pgx connection pool and verifies connectivity.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Load(ctx context.Context, ownerID string) ([]cart.Item, error) {
	query := `
		SELECT items
		FROM cart_records
		WHERE owner_id = $1
	`
	var data []byte
	err := s.pool.QueryRow(ctx, query, ownerID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cart record: %w", err)
	}

	var items []cart.Item
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Warn("malformed cart record in postgres, treating as empty",
			slog.String(logkey.OwnerID, ownerID), slog.String(logkey.ERROR, err.Error()))
		return nil, nil
	}

	return items, nil
}

func (s *Store) Save(ctx context.Context, ownerID string, items []cart.Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal cart items: %w", err)
	}

	query := `
		INSERT INTO cart_records (owner_id, items, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (owner_id)
		DO UPDATE SET items = EXCLUDED.items, updated_at = NOW()
	`
	if _, err := s.pool.Exec(ctx, query, ownerID, data); err != nil {
		return fmt.Errorf("failed to upsert cart record: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, ownerID string) error {
	query := `
		DELETE FROM cart_records
		WHERE owner_id = $1
	`
	if _, err := s.pool.Exec(ctx, query, ownerID); err != nil {
		return fmt.Errorf("failed to delete cart record: %w", err)
	}
	return nil
}
