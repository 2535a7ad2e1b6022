package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage keeps checkout session snapshots in PostgreSQL. Card data is never written.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS checkout_sessions (
            id TEXT PRIMARY KEY,
            order_id TEXT NOT NULL DEFAULT '',
            order_amount BIGINT,
            order_currency TEXT NOT NULL DEFAULT '',
            view TEXT NOT NULL,
            method TEXT NOT NULL DEFAULT '',
            payment_id TEXT NOT NULL DEFAULT '',
            error_message TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_checkout_sessions_view ON checkout_sessions(view, updated_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

const selectColumns = `id, order_id, order_amount, order_currency, view, method, payment_id, error_message, created_at, updated_at`

// Record upserts the snapshot of a session.
func (s *Storage) Record(ctx context.Context, snap model.Snapshot) error {
	const query = `INSERT INTO checkout_sessions (id, order_id, order_amount, order_currency, view, method, payment_id, error_message, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (id) DO UPDATE SET
            order_id = EXCLUDED.order_id,
            order_amount = EXCLUDED.order_amount,
            order_currency = EXCLUDED.order_currency,
            view = EXCLUDED.view,
            method = EXCLUDED.method,
            payment_id = EXCLUDED.payment_id,
            error_message = EXCLUDED.error_message,
            updated_at = EXCLUDED.updated_at`

	var (
		amount   *int64
		currency string
	)
	if snap.Order != nil {
		value := snap.Order.Amount
		amount = &value
		currency = snap.Order.Currency
	}

	_, err := s.pool.Exec(ctx, query,
		snap.SessionID,
		snap.OrderID,
		amount,
		currency,
		string(snap.View),
		string(snap.Method),
		snap.PaymentID,
		snap.ErrorMessage,
		timestampOrNow(snap.CreatedAt),
		timestampOrNow(snap.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("record session %s: %w", snap.SessionID, err)
	}
	return nil
}

// Get returns the last recorded snapshot of a session.
func (s *Storage) Get(ctx context.Context, id string) (model.Snapshot, error) {
	query := `SELECT ` + selectColumns + ` FROM checkout_sessions WHERE id = $1`
	snap, err := scanSnapshot(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Snapshot{}, domainErrors.ErrNotFound
		}
		return model.Snapshot{}, err
	}
	return snap, nil
}

// ListInFlight returns sessions that were waiting for a bank decision, oldest first.
func (s *Storage) ListInFlight(ctx context.Context, limit int) ([]model.Snapshot, error) {
	query := `SELECT ` + selectColumns + ` FROM checkout_sessions
        WHERE view = $1 AND payment_id <> ''
        ORDER BY updated_at
        LIMIT $2`
	rows, err := s.pool.Query(ctx, query, string(model.ViewProcessing), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the snapshot of a closed session.
func (s *Storage) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM checkout_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete checkout session: %w", err)
	}
	return nil
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

func scanSnapshot(row pgx.Row) (model.Snapshot, error) {
	var (
		snap     model.Snapshot
		amount   *int64
		currency string
		view     string
		method   string
	)
	if err := row.Scan(&snap.SessionID, &snap.OrderID, &amount, &currency, &view, &method, &snap.PaymentID, &snap.ErrorMessage, &snap.CreatedAt, &snap.UpdatedAt); err != nil {
		return model.Snapshot{}, err
	}
	snap.View = model.ViewState(view)
	snap.Method = model.PaymentMethod(method)
	if amount != nil {
		snap.Order = &model.Order{ID: snap.OrderID, Amount: *amount, Currency: currency}
	}
	return snap, nil
}

func timestampOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
