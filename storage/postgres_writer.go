package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sjsage522/soldlistings/internal/crawler"
	apperrors "sjsage522/soldlistings/pkg/errors"
)

type PostgresWriter struct {
	pool *pgxpool.Pool
}

func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, apperrors.NewStorage("postgres", "failed to create pool", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.NewStorage("postgres", "failed to connect", err)
	}

	return &PostgresWriter{pool: pool}, nil
}

func (w *PostgresWriter) Name() string {
	return "postgres"
}

func (w *PostgresWriter) Close() {
	if w.pool != nil {
		w.pool.Close()
	}
}

func (w *PostgresWriter) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	sql := `
	CREATE TABLE IF NOT EXISTS sold_listings (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		date_sold TEXT NOT NULL,
		sold_amount TEXT NOT NULL,
		scraped_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`

	if _, err := w.pool.Exec(ctx, sql); err != nil {
		return apperrors.NewStorage("postgres", "failed to ensure schema", err)
	}

	return nil
}

// Write upserts listings by id, so re-running with the same start id
// replaces earlier rows
func (w *PostgresWriter) Write(ctx context.Context, listings []crawler.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	upsertSQL := `
	INSERT INTO sold_listings (id, name, date_sold, sold_amount)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		date_sold = EXCLUDED.date_sold,
		sold_amount = EXCLUDED.sold_amount,
		scraped_at = NOW();
	`

	for _, l := range listings {
		batch.Queue(upsertSQL, l.ID, l.Name, l.DateSold, l.SoldAmount)
	}

	results := w.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range listings {
		if _, err := results.Exec(); err != nil {
			return apperrors.NewStorage("postgres", "batch upsert failed at listing "+listings[i].Row()[0], err)
		}
	}

	return nil
}
