package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stock-screener-backend/internal/domain"
)

// PostgresPriceRepository owns the daily price store. Rows are keyed by
// (symbol, date); upserts replace the whole row so late corrections from the
// data provider win.
type PostgresPriceRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPriceRepository(pool *pgxpool.Pool) *PostgresPriceRepository {
	return &PostgresPriceRepository{pool: pool}
}

func (r *PostgresPriceRepository) UpsertPrices(ctx context.Context, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(`
			insert into prices(symbol, date, open, high, low, close, volume)
			values ($1,$2,$3,$4,$5,$6,$7)
			on conflict (symbol, date) do update set
				open = excluded.open,
				high = excluded.high,
				low = excluded.low,
				close = excluded.close,
				volume = excluded.volume
		`, p.Symbol, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range points {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert prices: %w", err)
		}
	}
	return nil
}

func (r *PostgresPriceRepository) LoadRecent(ctx context.Context, days int) ([]domain.PricePoint, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	rows, err := r.pool.Query(ctx, `
		select symbol, date, open, high, low, close, volume
		from prices
		where date >= $1
		order by symbol, date
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Symbol, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *PostgresPriceRepository) DataRanges(ctx context.Context) (map[string]domain.DateRange, error) {
	rows, err := r.pool.Query(ctx, `
		select symbol, min(date), max(date)
		from prices
		group by symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("load data ranges: %w", err)
	}
	defer rows.Close()

	ranges := make(map[string]domain.DateRange)
	for rows.Next() {
		var symbol string
		var dr domain.DateRange
		if err := rows.Scan(&symbol, &dr.Min, &dr.Max); err != nil {
			return nil, fmt.Errorf("scan range row: %w", err)
		}
		ranges[symbol] = dr
	}
	return ranges, rows.Err()
}
