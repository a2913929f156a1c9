package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stock-screener-backend/internal/config"
	"stock-screener-backend/internal/domain"
)

// BarFetcher is the narrow slice of the market-data client the screener
// needs: daily bars for one symbol, newest last.
type BarFetcher interface {
	GetDailyBars(ctx context.Context, symbol string, limit int) ([]domain.PricePoint, error)
}

// ScreenerUsecase runs the screening cycle: refresh prices, screen every
// symbol, detect reclaim events, publish the snapshot, notify.
type ScreenerUsecase struct {
	cfg      config.Config
	prices   domain.PriceRepository
	snapshot domain.SnapshotRepository
	mirror   domain.SnapshotRepository // optional, may be nil
	fetcher  BarFetcher                // optional, may be nil
	detector *PatternDetector
	notify   *NotificationService // optional, may be nil
	log      zerolog.Logger
}

func NewScreenerUsecase(
	cfg config.Config,
	prices domain.PriceRepository,
	snapshot domain.SnapshotRepository,
	mirror domain.SnapshotRepository,
	fetcher BarFetcher,
	notify *NotificationService,
	log zerolog.Logger,
) *ScreenerUsecase {
	return &ScreenerUsecase{
		cfg:      cfg,
		prices:   prices,
		snapshot: snapshot,
		mirror:   mirror,
		fetcher:  fetcher,
		detector: NewPatternDetector(cfg.Pattern),
		notify:   notify,
		log:      log.With().Str("component", "screener").Logger(),
	}
}

// Run executes one cycle immediately and then on every tick until the context
// is cancelled.
func (uc *ScreenerUsecase) Run(ctx context.Context) {
	interval := time.Duration(uc.cfg.Screener.IntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	uc.Process(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			uc.Process(ctx)
		}
	}
}

// Process runs one full screening cycle.
func (uc *ScreenerUsecase) Process(ctx context.Context) {
	start := time.Now()
	runID := uuid.NewString()
	log := uc.log.With().Str("run_id", runID).Logger()
	log.Info().Msg("starting screening cycle")

	if err := uc.refreshPrices(ctx); err != nil {
		log.Error().Err(err).Msg("price refresh failed, screening stored data")
	}

	points, err := uc.prices.LoadRecent(ctx, uc.cfg.MarketData.LookbackDays)
	if err != nil {
		log.Error().Err(err).Msg("loading prices failed")
		return
	}

	series, issues := BuildSeries(points)
	for _, issue := range issues {
		log.Warn().Str("symbol", issue.Symbol).Str("reason", issue.Reason).Msg("symbol rejected")
	}

	picks, events := uc.analyze(series)

	snap := domain.Snapshot{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		DurationMs:  time.Since(start).Milliseconds(),
		Symbols:     len(series),
		Picks:       picks,
		Events:      events,
		DataIssues:  issues,
	}
	if err := uc.snapshot.SaveSnapshot(snap); err != nil {
		log.Error().Err(err).Msg("saving snapshot failed")
	}
	if uc.mirror != nil {
		if err := uc.mirror.SaveSnapshot(snap); err != nil {
			log.Warn().Err(err).Msg("mirroring snapshot failed")
		}
	}

	if uc.notify != nil {
		uc.notify.NotifySnapshot(ctx, snap)
	}

	log.Info().
		Int("symbols", len(series)).
		Int("picks", len(picks)).
		Int("events", len(events)).
		Dur("elapsed", time.Since(start)).
		Msg("screening cycle completed")
}

// analyze fans the per-symbol work across a bounded pool. Each symbol's
// pipeline is independent, so order of execution does not matter; results are
// sorted before grouping to keep the output deterministic.
func (uc *ScreenerUsecase) analyze(series map[string]*domain.Series) ([]domain.ScreenResult, []domain.ReclaimEvent) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		survived []domain.ScreenResult
		events   []domain.ReclaimEvent
	)

	workers := uc.cfg.Screener.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	for _, s := range series {
		wg.Add(1)
		go func(s *domain.Series) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res := ScreenSymbol(s, uc.cfg.Screener)

			feats := ComputeFeatures(s, uc.cfg.Screener.MAWindow, uc.cfg.Pattern.ATRPeriod, uc.cfg.Pattern.BoxWindow)
			marks := uc.detector.Detect(s, feats)
			evs := uc.detector.Summarize(s, marks)

			mu.Lock()
			if res != nil {
				survived = append(survived, *res)
			}
			events = append(events, evs...)
			mu.Unlock()
		}(s)
	}
	wg.Wait()

	sort.Slice(survived, func(i, j int) bool { return survived[i].Symbol < survived[j].Symbol })
	sort.Slice(events, func(i, j int) bool {
		if events[i].Symbol != events[j].Symbol {
			return events[i].Symbol < events[j].Symbol
		}
		return events[i].ReclaimDate.Before(events[j].ReclaimDate)
	})

	return RankGroups(survived, uc.cfg.Screener), events
}

// refreshPrices fetches daily bars for symbols whose stored history is
// missing or stale and upserts them. Fetch failures are per symbol; one bad
// feed never blocks the rest.
func (uc *ScreenerUsecase) refreshPrices(ctx context.Context) error {
	if uc.fetcher == nil || len(uc.cfg.MarketData.Symbols) == 0 {
		return nil
	}

	ranges, err := uc.prices.DataRanges(ctx)
	if err != nil {
		return err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	limit := uc.cfg.MarketData.LookbackDays * 2

	for _, symbol := range uc.cfg.MarketData.Symbols {
		r, ok := ranges[symbol]
		if ok && !r.Max.Before(today) {
			continue // already current
		}

		bars, err := uc.fetcher.GetDailyBars(ctx, symbol, limit)
		if err != nil {
			uc.log.Warn().Err(err).Str("symbol", symbol).Msg("fetching bars failed")
			continue
		}
		if err := uc.prices.UpsertPrices(ctx, bars); err != nil {
			uc.log.Warn().Err(err).Str("symbol", symbol).Msg("storing bars failed")
		}
	}
	return nil
}
