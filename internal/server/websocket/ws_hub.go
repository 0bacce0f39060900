package websocket

import (
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

// WsHub fans order status events out to the owner's connected dashboard
// sessions.
type WsHub struct {
	Clients    map[string]map[*websocket.Conn]bool
	Broadcast  chan domain.OrderEvent
	Register   chan *WsClient
	Unregister chan *WsClient
	Logger     zerolog.Logger
}

type WsClient struct {
	UserID string
	Conn   *websocket.Conn
}

func NewWsHub(logger zerolog.Logger) *WsHub {
	return &WsHub{
		Clients:    make(map[string]map[*websocket.Conn]bool),
		Broadcast:  make(chan domain.OrderEvent, 100),
		Register:   make(chan *WsClient, 100),
		Unregister: make(chan *WsClient, 100),
		Logger:     logger,
	}
}

// NotifyOrder implements callbackservice.StatusNotifier. Non-blocking: a
// full broadcast buffer drops the event rather than stalling the callback
// path.
func (h *WsHub) NotifyOrder(event domain.OrderEvent) {
	select {
	case h.Broadcast <- event:
	default:
		h.Logger.Warn().Str("order_id", event.OrderID).Msg("Order event dropped, broadcast buffer full")
	}
}

func (h *WsHub) Run() {
	for {
		select {
		case client := <-h.Register:
			if h.Clients[client.UserID] == nil {
				h.Clients[client.UserID] = make(map[*websocket.Conn]bool)
			}
			h.Clients[client.UserID][client.Conn] = true
			h.Logger.Info().
				Str("user_id", client.UserID).
				Int("connection_count", len(h.Clients[client.UserID])).
				Msg("WebSocket client registered")

		case client := <-h.Unregister:
			if clients, ok := h.Clients[client.UserID]; ok {
				delete(clients, client.Conn)
				if len(clients) == 0 {
					delete(h.Clients, client.UserID)
				}
				client.Conn.Close()
				h.Logger.Info().
					Str("user_id", client.UserID).
					Int("connection_count", len(clients)).
					Msg("WebSocket client unregistered")
			}

		case event := <-h.Broadcast:
			for conn := range h.Clients[event.UserID] {
				if err := conn.WriteJSON(event); err != nil {
					h.Logger.Warn().Err(err).Str("user_id", event.UserID).Msg("Failed to write order event, dropping connection")
					conn.Close()
					delete(h.Clients[event.UserID], conn)
				}
			}
		}
	}
}
