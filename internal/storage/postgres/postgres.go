package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NiklasMM/ebk-bot/internal/config"
	"github.com/NiklasMM/ebk-bot/internal/models"
	"github.com/NiklasMM/ebk-bot/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%s: ping failed: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

// SaveWatch inserts a new watch. The primary key on search_term makes the
// insert all-or-nothing; a duplicate maps to storage.ErrWatchExists.
func (r *PostgresRepo) SaveWatch(ctx context.Context, watch models.Watch) error {
	const op = "storage.postgres.SaveWatch"

	const query = `
		INSERT INTO watches (search_term, destination, known_ids)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, watch.SearchTerm, watch.Destination, watch.KnownIDs)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == storage.UniqueViolation {
			return storage.ErrWatchExists
		}

		return fmt.Errorf("%s: failed to save watch: %w", op, err)
	}

	return nil
}

// Watch returns the watch registered for searchTerm.
func (r *PostgresRepo) Watch(ctx context.Context, searchTerm string) (models.Watch, error) {
	const op = "storage.postgres.Watch"

	const query = `
		SELECT search_term, destination, known_ids
		FROM watches
		WHERE search_term = $1
	`

	var w models.Watch

	err := r.pool.QueryRow(ctx, query, searchTerm).Scan(&w.SearchTerm, &w.Destination, &w.KnownIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Watch{}, storage.ErrWatchNotFound
		}

		return models.Watch{}, fmt.Errorf("%s: failed to scan watch: %w", op, err)
	}

	return w, nil
}

// Watches returns every registered watch in insertion order.
func (r *PostgresRepo) Watches(ctx context.Context) ([]models.Watch, error) {
	const op = "storage.postgres.Watches"

	const query = `
		SELECT search_term, destination, known_ids
		FROM watches
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	var watches []models.Watch

	for rows.Next() {
		var w models.Watch
		if err := rows.Scan(&w.SearchTerm, &w.Destination, &w.KnownIDs); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		watches = append(watches, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return watches, nil
}

// UpdateKnownIDs replaces the known-ID set of one watch in a single
// statement, so a concurrent stop either wins entirely or loses entirely.
func (r *PostgresRepo) UpdateKnownIDs(ctx context.Context, searchTerm string, knownIDs []string) error {
	const op = "storage.postgres.UpdateKnownIDs"

	const query = `
		UPDATE watches
		SET known_ids = $2
		WHERE search_term = $1
	`

	cmd, err := r.pool.Exec(ctx, query, searchTerm, knownIDs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmd.RowsAffected() == 0 {
		return storage.ErrWatchNotFound
	}

	return nil
}

// DeleteWatch removes a watch by its search term.
func (r *PostgresRepo) DeleteWatch(ctx context.Context, searchTerm string) error {
	const op = "storage.postgres.DeleteWatch"

	const query = `
		DELETE FROM watches
		WHERE search_term = $1
	`

	cmd, err := r.pool.Exec(ctx, query, searchTerm)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmd.RowsAffected() == 0 {
		return storage.ErrWatchNotFound
	}

	return nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
