package http

import (
	"encoding/json"
	"net/http"

	"stock-screener-backend/internal/domain"
)

// SnapshotHandler serves the latest screening cycle output.
type SnapshotHandler struct {
	repo domain.SnapshotRepository
}

func NewSnapshotHandler(repo domain.SnapshotRepository) *SnapshotHandler {
	return &SnapshotHandler{repo: repo}
}

// HandleGetPicks returns the grouped screen results of the latest run.
func (h *SnapshotHandler) HandleGetPicks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, ok := h.repo.GetSnapshot()
	if !ok {
		http.Error(w, "No screening run completed yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		RunID string                `json:"runId"`
		Picks []domain.ScreenResult `json:"picks"`
	}{snap.RunID, snap.Picks})
}

// HandleGetEvents returns the reclaim events of the latest run.
func (h *SnapshotHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, ok := h.repo.GetSnapshot()
	if !ok {
		http.Error(w, "No screening run completed yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		RunID  string                `json:"runId"`
		Events []domain.ReclaimEvent `json:"events"`
	}{snap.RunID, snap.Events})
}

// HandleHealth reports run metadata and data-quality issues of the latest
// cycle, so "no signal" and "bad feed" are distinguishable from outside.
func (h *SnapshotHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type health struct {
		Status     string             `json:"status"`
		RunID      string             `json:"runId,omitempty"`
		Generated  string             `json:"generatedAt,omitempty"`
		DurationMs int64              `json:"durationMs,omitempty"`
		Symbols    int                `json:"symbols,omitempty"`
		Picks      int                `json:"picks"`
		Events     int                `json:"events"`
		DataIssues []domain.DataIssue `json:"dataIssues,omitempty"`
	}

	w.Header().Set("Content-Type", "application/json")
	snap, ok := h.repo.GetSnapshot()
	if !ok {
		json.NewEncoder(w).Encode(health{Status: "starting"})
		return
	}
	json.NewEncoder(w).Encode(health{
		Status:     "ok",
		RunID:      snap.RunID,
		Generated:  snap.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		DurationMs: snap.DurationMs,
		Symbols:    snap.Symbols,
		Picks:      len(snap.Picks),
		Events:     len(snap.Events),
		DataIssues: snap.DataIssues,
	})
}
