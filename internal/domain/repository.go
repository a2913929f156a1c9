package domain

import (
	"context"
	"time"
)

// DateRange is the span of stored bars for one symbol.
type DateRange struct {
	Min time.Time
	Max time.Time
}

// PriceRepository owns the daily price store.
type PriceRepository interface {
	UpsertPrices(ctx context.Context, points []PricePoint) error
	LoadRecent(ctx context.Context, days int) ([]PricePoint, error)
	DataRanges(ctx context.Context) (map[string]DateRange, error)
}

// SnapshotRepository holds the latest screening cycle output.
type SnapshotRepository interface {
	SaveSnapshot(snap Snapshot) error
	GetSnapshot() (Snapshot, bool)
}

// SubscriberRepository manages notification targets (device tokens).
type SubscriberRepository interface {
	Register(ctx context.Context, token, platform string) error
	Unregister(ctx context.Context, token string) error
	ListActive(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// Notifier delivers push messages to a set of device tokens.
type Notifier interface {
	Enabled() bool
	Multicast(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

// ChartRenderer turns one symbol's bars into a rendered chart artifact.
// Rendering lives outside this service; the interface is the contract.
type ChartRenderer interface {
	Render(ctx context.Context, symbol string, bars []PricePoint) ([]byte, error)
}

// PageRenderer turns a snapshot into a rendered page artifact.
// Rendering lives outside this service; the interface is the contract.
type PageRenderer interface {
	RenderPage(ctx context.Context, snap Snapshot) ([]byte, error)
}
