package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"stock-screener-backend/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// Handler streams the latest snapshot to connected clients. A client gets the
// current snapshot on connect and again whenever a newer run appears.
type Handler struct {
	repo domain.SnapshotRepository
	log  zerolog.Logger
}

func NewHandler(repo domain.SnapshotRepository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("component", "ws").Logger(),
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	h.log.Info().Str("remote", r.RemoteAddr).Msg("client connected")

	var lastRun string
	if snap, ok := h.repo.GetSnapshot(); ok {
		if err := conn.WriteJSON(snap); err != nil {
			h.log.Debug().Err(err).Msg("write failed")
			return
		}
		lastRun = snap.RunID
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			snap, ok := h.repo.GetSnapshot()
			if !ok || snap.RunID == lastRun {
				continue
			}
			if err := conn.WriteJSON(snap); err != nil {
				h.log.Debug().Err(err).Msg("write failed")
				return
			}
			lastRun = snap.RunID
		}
	}
}
