package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-screener-backend/internal/config"
	"stock-screener-backend/internal/domain"
)

type sentPush struct {
	title string
	body  string
	data  map[string]string
}

type fakeNotifier struct {
	pushes []sentPush
}

func (f *fakeNotifier) Enabled() bool { return true }

func (f *fakeNotifier) Multicast(_ context.Context, _ []string, title, body string, data map[string]string) error {
	f.pushes = append(f.pushes, sentPush{title: title, body: body, data: data})
	return nil
}

type fakeSubscribers struct {
	tokens []string
}

func (f *fakeSubscribers) Register(context.Context, string, string) error { return nil }
func (f *fakeSubscribers) Unregister(context.Context, string) error       { return nil }
func (f *fakeSubscribers) Count(context.Context) (int, error)             { return len(f.tokens), nil }
func (f *fakeSubscribers) ListActive(context.Context) ([]string, error) {
	return f.tokens, nil
}

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 3, 29, 9, 0, 0, 0, time.UTC),
		Picks: []domain.ScreenResult{
			{Symbol: "2330", Group: domain.GroupStrong, Close: 412, Slope: 0.7},
			{Symbol: "2603", Group: domain.GroupWatch, Close: 81, Slope: 0.3},
		},
		Events: []domain.ReclaimEvent{
			{
				Symbol:        "2882",
				BreakdownDate: time.Date(2024, 3, 27, 0, 0, 0, 0, time.UTC),
				ReclaimDate:   time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC),
				ReclaimLag:    2,
				ReclaimPct:    1.0,
			},
		},
	}
}

func newTestNotification(notifier *fakeNotifier, cfg config.NotifyConfig) *NotificationService {
	subs := &fakeSubscribers{tokens: []string{"tok-a", "tok-b"}}
	return NewNotificationService(notifier, subs, cfg, zerolog.Nop())
}

func TestNotifySnapshotSendsGroupsAndEvents(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestNotification(notifier, config.NotifyConfig{Enabled: true, CooldownMinutes: 120})

	svc.NotifySnapshot(context.Background(), testSnapshot())

	require.Len(t, notifier.pushes, 3)
	assert.Contains(t, notifier.pushes[0].title, "Strong momentum")
	assert.Contains(t, notifier.pushes[0].body, "2330")
	assert.Contains(t, notifier.pushes[1].title, "Watch list")
	assert.Contains(t, notifier.pushes[2].title, "2882 reclaimed its box floor")
	assert.Equal(t, "reclaim", notifier.pushes[2].data["type"])
}

func TestNotifySnapshotCooldownSuppressesRepeats(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestNotification(notifier, config.NotifyConfig{Enabled: true, CooldownMinutes: 120})

	snap := testSnapshot()
	snap.Events = nil

	svc.NotifySnapshot(context.Background(), snap)
	require.Len(t, notifier.pushes, 2)

	// Same picks within the cooldown window: nothing new goes out.
	snap.RunID = "run-2"
	svc.NotifySnapshot(context.Background(), snap)
	assert.Len(t, notifier.pushes, 2)
}

func TestNotifySnapshotZeroCooldownResends(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestNotification(notifier, config.NotifyConfig{Enabled: true})

	snap := testSnapshot()
	snap.Events = nil

	svc.NotifySnapshot(context.Background(), snap)
	svc.NotifySnapshot(context.Background(), snap)
	assert.Len(t, notifier.pushes, 4)
}

func TestNotifySnapshotEmptyRunSendsFallback(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestNotification(notifier, config.NotifyConfig{Enabled: true})

	snap := domain.Snapshot{RunID: "run-1", GeneratedAt: time.Date(2024, 3, 29, 9, 0, 0, 0, time.UTC)}
	svc.NotifySnapshot(context.Background(), snap)

	require.Len(t, notifier.pushes, 1)
	assert.Contains(t, notifier.pushes[0].title, "No picks today")
}

func TestNotifySnapshotDisabled(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestNotification(notifier, config.NotifyConfig{Enabled: false})

	svc.NotifySnapshot(context.Background(), testSnapshot())
	assert.Empty(t, notifier.pushes)
}
