package websocket

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"projectpulse/internal/config"
	"projectpulse/internal/infrastructure"
)

// Handler upgrades HTTP requests and attaches the connection to the hub.
type Handler struct {
	hub        *Hub
	upgrader   websocket.Upgrader
	pingPeriod time.Duration
	pongWait   time.Duration
	logger     *slog.Logger
}

// NewHandler creates an upgrade handler. Zero values in cfg keep the
// defaults. An empty allowedOrigins list, or one containing "*", accepts any
// origin.
func NewHandler(hub *Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	h := &Handler{
		hub:        hub,
		pingPeriod: defaultPingPeriod,
		pongWait:   defaultPongWait,
		logger:     logger.With(slog.String("component", "websocket.handler")),
	}
	if cfg.PongWait > 0 {
		h.pongWait = cfg.PongWait
	}
	if cfg.PingPeriod > 0 && cfg.PingPeriod < h.pongWait {
		h.pingPeriod = cfg.PingPeriod
	} else if cfg.PongWait > 0 {
		h.pingPeriod = (h.pongWait * 9) / 10
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  orDefault(cfg.ReadBufferSize, 1024),
		WriteBufferSize: orDefault(cfg.WriteBufferSize, 1024),
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), allowedOrigins)
		},
	}
	return h
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" || len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		h.logger.WarnContext(ctx, "websocket upgrade failed",
			slog.String("origin", r.Header.Get("Origin")),
			slog.String("error", err.Error()))
		return
	}

	client := NewClient(h.hub, WrapConn(conn), infrastructure.GetTraceID(ctx), h.logger)
	client.pingPeriod = h.pingPeriod
	client.pongWait = h.pongWait
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
