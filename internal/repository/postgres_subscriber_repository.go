package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSubscriberRepository stores notification device tokens durably so
// registrations survive restarts. Unregistering deactivates instead of
// deleting, which keeps an audit trail of churned devices.
type PostgresSubscriberRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresSubscriberRepository(pool *pgxpool.Pool) *PostgresSubscriberRepository {
	return &PostgresSubscriberRepository{pool: pool}
}

func (r *PostgresSubscriberRepository) Register(ctx context.Context, token, platform string) error {
	_, err := r.pool.Exec(ctx, `
		insert into subscribers(token, platform, followed_at, active)
		values ($1,$2,$3,true)
		on conflict (token) do update set
			platform = excluded.platform,
			active = true
	`, token, platform, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("register subscriber: %w", err)
	}
	return nil
}

func (r *PostgresSubscriberRepository) Unregister(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `update subscribers set active = false where token = $1`, token)
	if err != nil {
		return fmt.Errorf("unregister subscriber: %w", err)
	}
	return nil
}

func (r *PostgresSubscriberRepository) ListActive(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `select token from subscribers where active`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan subscriber row: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *PostgresSubscriberRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `select count(*) from subscribers where active`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return n, nil
}

// SeedFromEnv imports comma-separated device tokens (EXTRA_DEVICE_TOKENS
// style) so a fresh deployment has someone to notify.
func (r *PostgresSubscriberRepository) SeedFromEnv(ctx context.Context, raw string) (int, error) {
	seeded := 0
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if err := r.Register(ctx, token, "seed"); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}
