package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-screener-backend/internal/domain"
	"stock-screener-backend/internal/repository"
)

func seededRepo(t *testing.T) *repository.InMemorySnapshotRepository {
	t.Helper()
	repo := repository.NewInMemorySnapshotRepository()
	err := repo.SaveSnapshot(domain.Snapshot{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 3, 29, 9, 0, 0, 0, time.UTC),
		Symbols:     120,
		Picks: []domain.ScreenResult{
			{Symbol: "2330", Group: domain.GroupStrong, Close: 412, Slope: 0.7},
		},
		Events: []domain.ReclaimEvent{
			{Symbol: "2882", ReclaimLag: 2, ReclaimPct: 1.0},
		},
	})
	require.NoError(t, err)
	return repo
}

func TestHandleGetPicks(t *testing.T) {
	h := NewSnapshotHandler(seededRepo(t))

	rec := httptest.NewRecorder()
	h.HandleGetPicks(rec, httptest.NewRequest(http.MethodGet, "/api/picks", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		RunID string                `json:"runId"`
		Picks []domain.ScreenResult `json:"picks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	require.Len(t, resp.Picks, 1)
	assert.Equal(t, "2330", resp.Picks[0].Symbol)
}

func TestHandleGetPicksBeforeFirstRun(t *testing.T) {
	h := NewSnapshotHandler(repository.NewInMemorySnapshotRepository())

	rec := httptest.NewRecorder()
	h.HandleGetPicks(rec, httptest.NewRequest(http.MethodGet, "/api/picks", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleGetPicksRejectsPost(t *testing.T) {
	h := NewSnapshotHandler(seededRepo(t))

	rec := httptest.NewRecorder()
	h.HandleGetPicks(rec, httptest.NewRequest(http.MethodPost, "/api/picks", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleGetEvents(t *testing.T) {
	h := NewSnapshotHandler(seededRepo(t))

	rec := httptest.NewRecorder()
	h.HandleGetEvents(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RunID  string                `json:"runId"`
		Events []domain.ReclaimEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "2882", resp.Events[0].Symbol)
	assert.Equal(t, 2, resp.Events[0].ReclaimLag)
}

func TestHandleHealth(t *testing.T) {
	h := NewSnapshotHandler(seededRepo(t))

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "run-1", resp["runId"])
	assert.Equal(t, float64(1), resp["picks"])
	assert.Equal(t, float64(1), resp["events"])
}

func TestHandleHealthBeforeFirstRun(t *testing.T) {
	h := NewSnapshotHandler(repository.NewInMemorySnapshotRepository())

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "starting", resp["status"])
}

type memSubscribers struct {
	active map[string]string
}

func (m *memSubscribers) Register(_ context.Context, token, platform string) error {
	if m.active == nil {
		m.active = make(map[string]string)
	}
	m.active[token] = platform
	return nil
}

func (m *memSubscribers) Unregister(_ context.Context, token string) error {
	delete(m.active, token)
	return nil
}

func (m *memSubscribers) ListActive(context.Context) ([]string, error) {
	var out []string
	for t := range m.active {
		out = append(out, t)
	}
	return out, nil
}

func (m *memSubscribers) Count(context.Context) (int, error) { return len(m.active), nil }

func TestHandleRegisterToken(t *testing.T) {
	subs := &memSubscribers{}
	h := NewTokenHandler(subs)

	body := strings.NewReader(`{"token":"tok-1","platform":"ios"}`)
	rec := httptest.NewRecorder()
	h.HandleRegisterToken(rec, httptest.NewRequest(http.MethodPost, "/api/tokens/register", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "ios", subs.active["tok-1"])
}

func TestHandleRegisterTokenDefaultsPlatform(t *testing.T) {
	subs := &memSubscribers{}
	h := NewTokenHandler(subs)

	body := strings.NewReader(`{"token":"tok-2"}`)
	rec := httptest.NewRecorder()
	h.HandleRegisterToken(rec, httptest.NewRequest(http.MethodPost, "/api/tokens/register", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "android", subs.active["tok-2"])
}

func TestHandleRegisterTokenRequiresToken(t *testing.T) {
	h := NewTokenHandler(&memSubscribers{})

	rec := httptest.NewRecorder()
	h.HandleRegisterToken(rec, httptest.NewRequest(http.MethodPost, "/api/tokens/register", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUnregisterToken(t *testing.T) {
	subs := &memSubscribers{active: map[string]string{"tok-1": "android"}}
	h := NewTokenHandler(subs)

	body := strings.NewReader(`{"token":"tok-1"}`)
	rec := httptest.NewRecorder()
	h.HandleUnregisterToken(rec, httptest.NewRequest(http.MethodPost, "/api/tokens/unregister", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, subs.active)
}
