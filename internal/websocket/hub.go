package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Типы уведомлений, рассылаемых подключенным клиентам.
// Фронтенд показывает их в ленте уведомлений и обновляет списки ивентов.
const (
	NotificationEventCreated      = "event_created"
	NotificationEventUpdated      = "event_updated"
	NotificationEventDeleted      = "event_deleted"
	NotificationParticipantJoined = "participant_joined"
	NotificationWinnerAwarded     = "winner_awarded"
)

// Notification — сообщение, отправляемое клиентам в JSON
type Notification struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub держит набор активных клиентов и рассылает им уведомления.
// Один hub на процесс; доставка best-effort — медленный клиент
// отключается, а не тормозит остальных.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

// NewHub создает новый hub уведомлений
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 256),
	}
}

// Run обрабатывает регистрацию клиентов и рассылку до отмены контекста
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Буфер клиента переполнен — отключаем, чтобы не копить отставание
					go func(c *Client) { h.unregister <- c }(client)
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			log.Println("[Hub] Завершение работы hub уведомлений")
			return
		}
	}
}

// Notify сериализует уведомление и ставит его в очередь рассылки.
// Никогда не блокирует вызывающего: при переполнении очереди сообщение
// отбрасывается с записью в лог.
func (h *Hub) Notify(notificationType string, payload interface{}) {
	msg, err := json.Marshal(Notification{
		Type:      notificationType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Printf("[Hub.Notify] Ошибка сериализации уведомления %s: %v", notificationType, err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		log.Printf("[Hub.Notify] Очередь рассылки переполнена, уведомление %s отброшено", notificationType)
	}
}

// ClientCount возвращает число подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
