package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fashionbreeze/lifecycle/internal/lifecycle"
	"github.com/fashionbreeze/lifecycle/internal/metrics"
)

// Hub is the outbound push boundary: a set of live websocket connections
// receiving every status-change event. Delivery is fire-and-forget with no
// durable queue and no replay; durability lives in the notification store.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP upgrades the request and parks the connection until the peer
// goes away. Inbound frames are read and discarded; the channel is outbound
// only.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.register(conn)
	defer h.unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	metrics.RealtimeClients.Set(float64(len(h.clients)))
	h.mu.Unlock()
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	metrics.RealtimeClients.Set(float64(len(h.clients)))
	h.mu.Unlock()
	_ = conn.Close()
}

type envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Emit pushes a payload to every live connection. Safe to call with none
// connected; the event is simply dropped.
func (h *Hub) Emit(event string, payload interface{}) {
	data, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("failed to encode realtime payload", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		metrics.RealtimePushesDroppedTotal.Inc()
		return
	}

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("dropping dead realtime client", zap.Error(err))
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
	metrics.RealtimeClients.Set(float64(len(h.clients)))
}

// HandleEvent adapts the hub to the event bus subscriber contract.
func (h *Hub) HandleEvent(_ context.Context, ev lifecycle.StatusChangeEvent) error {
	h.Emit(ev.Name, ev)
	return nil
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
	metrics.RealtimeClients.Set(0)
}
