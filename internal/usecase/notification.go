package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stock-screener-backend/internal/config"
	"stock-screener-backend/internal/domain"
)

// NotificationService pushes grouped picks and reclaim events to every active
// device token. A per-symbol cooldown keeps repeated cycles from spamming the
// same pick.
type NotificationService struct {
	notifier domain.Notifier
	subs     domain.SubscriberRepository
	cfg      config.NotifyConfig
	log      zerolog.Logger

	mu       sync.Mutex
	notified map[string]time.Time
}

func NewNotificationService(
	notifier domain.Notifier,
	subs domain.SubscriberRepository,
	cfg config.NotifyConfig,
	log zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		notifier: notifier,
		subs:     subs,
		cfg:      cfg,
		log:      log.With().Str("component", "notify").Logger(),
		notified: make(map[string]time.Time),
	}
}

// NotifySnapshot sends one message per non-empty group and one per reclaim
// event. Delivery failures are logged and dropped; the core issues no
// retries.
func (n *NotificationService) NotifySnapshot(ctx context.Context, snap domain.Snapshot) {
	if !n.cfg.Enabled || n.notifier == nil || !n.notifier.Enabled() {
		return
	}

	tokens, err := n.subs.ListActive(ctx)
	if err != nil {
		n.log.Error().Err(err).Msg("listing subscribers failed")
		return
	}
	if len(tokens) == 0 {
		return
	}

	day := snap.GeneratedAt.Format("2006-01-02")

	strong := filterGroup(snap.Picks, domain.GroupStrong)
	watch := filterGroup(snap.Picks, domain.GroupWatch)

	if len(strong) == 0 && len(watch) == 0 && len(snap.Events) == 0 {
		n.send(ctx, tokens, fmt.Sprintf("No picks today (%s)", day),
			"No symbols passed the momentum screen.", map[string]string{"runId": snap.RunID})
		return
	}

	if len(strong) > 0 {
		n.sendGroup(ctx, tokens, snap.RunID, "Strong momentum", day, strong)
	}
	if len(watch) > 0 {
		n.sendGroup(ctx, tokens, snap.RunID, "Watch list", day, watch)
	}

	for _, ev := range snap.Events {
		n.sendEvent(ctx, tokens, snap.RunID, ev)
	}
}

func (n *NotificationService) sendGroup(ctx context.Context, tokens []string, runID, name, day string, rows []domain.ScreenResult) {
	rows = n.withoutCooldown(rows)
	if len(rows) == 0 {
		return
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s close %.2f slope %.2f", r.Symbol, r.Close, r.Slope))
	}

	title := fmt.Sprintf("%s (%s)", name, day)
	n.send(ctx, tokens, title, strings.Join(lines, "\n"), map[string]string{
		"runId": runID,
		"group": string(rows[0].Group),
	})
	n.markNotified(rows)
}

func (n *NotificationService) sendEvent(ctx context.Context, tokens []string, runID string, ev domain.ReclaimEvent) {
	title := fmt.Sprintf("%s reclaimed its box floor", ev.Symbol)
	body := fmt.Sprintf("broke down %s, reclaimed %s (+%.1f%% above floor, lag %d)",
		ev.BreakdownDate.Format("01-02"), ev.ReclaimDate.Format("01-02"), ev.ReclaimPct, ev.ReclaimLag)
	n.send(ctx, tokens, title, body, map[string]string{
		"runId":  runID,
		"symbol": ev.Symbol,
		"type":   "reclaim",
	})
}

func (n *NotificationService) send(ctx context.Context, tokens []string, title, body string, data map[string]string) {
	if err := n.notifier.Multicast(ctx, tokens, title, body, data); err != nil {
		n.log.Error().Err(err).Str("title", title).Msg("push failed")
		return
	}
	n.log.Info().Str("title", title).Int("devices", len(tokens)).Msg("push sent")
}

func (n *NotificationService) withoutCooldown(rows []domain.ScreenResult) []domain.ScreenResult {
	cooldown := time.Duration(n.cfg.CooldownMinutes) * time.Minute
	if cooldown <= 0 {
		return rows
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now()
	out := rows[:0:0]
	for _, r := range rows {
		if last, ok := n.notified[r.Symbol]; ok && now.Sub(last) < cooldown {
			continue
		}
		out = append(out, r)
	}

	// Drop stale entries so the map does not grow with delisted symbols.
	for symbol, ts := range n.notified {
		if now.Sub(ts) > cooldown*2 {
			delete(n.notified, symbol)
		}
	}
	return out
}

func (n *NotificationService) markNotified(rows []domain.ScreenResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := time.Now()
	for _, r := range rows {
		n.notified[r.Symbol] = now
	}
}

func filterGroup(picks []domain.ScreenResult, g domain.Group) []domain.ScreenResult {
	var out []domain.ScreenResult
	for _, p := range picks {
		if p.Group == g {
			out = append(out, p)
		}
	}
	return out
}
