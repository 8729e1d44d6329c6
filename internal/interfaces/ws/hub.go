// Package ws difunde eventos de stock confirmados a clientes WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
)

var _ inventory.EventPublisher = (*Hub)(nil)

// Client lo mínimo que el hub necesita de una conexión (*websocket.Conn lo cumple).
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub registra clientes y difunde mensajes. Publish nunca bloquea: si el buffer está lleno el evento se descarta.
type Hub struct {
	clients    map[Client]struct{}
	register   chan Client
	unregister chan Client
	broadcast  chan []byte
	done       chan struct{}
	mu         sync.RWMutex
	log        zerolog.Logger
}

// NewHub construye el hub con un buffer de difusión de tamaño buffer.
func NewHub(buffer int, log zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 256
	}
	return &Hub{
		clients:    make(map[Client]struct{}),
		register:   make(chan Client),
		unregister: make(chan Client),
		broadcast:  make(chan []byte, buffer),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run atiende registros y difusiones hasta que ctx se cancela; al salir cierra todas las conexiones.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				_ = c.Close()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			h.log.Debug().Int("clients", h.Len()).Msg("cliente ws conectado")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				_ = c.Close()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					h.log.Debug().Err(err).Msg("cliente ws descartado")
					_ = c.Close()
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register agrega un cliente. Bloquea hasta que Run lo atiende; si el hub ya terminó, cierra el cliente.
func (h *Hub) Register(c Client) {
	select {
	case h.register <- c:
	case <-h.done:
		_ = c.Close()
	}
}

// Unregister quita y cierra un cliente.
func (h *Hub) Unregister(c Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Len cantidad de clientes conectados.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish serializa el evento y lo encola para difusión.
func (h *Hub) Publish(event dto.StockEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Msg("no se pudo serializar el evento de stock")
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn().Int64("product_id", event.ProductID).Msg("buffer ws lleno; evento descartado")
	}
}

// UpgradeRequired rechaza con 426 las peticiones que no son upgrade a WebSocket.
func UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.SendStatus(fiber.StatusUpgradeRequired)
}

// Handler endpoint GET /ws/stock. Los mensajes entrantes se ignoran; solo mantienen viva la conexión.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		h.Register(c)
		defer h.Unregister(c)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	})
}
