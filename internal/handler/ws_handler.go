package handler

import (
	"github.com/gin-gonic/gin"

	ws "github.com/ItsBenaYT/starryevents/internal/websocket"
)

// WSHandler обрабатывает WebSocket соединения для живых уведомлений
// об ивентах (создание, изменение, присоединения, награды)
type WSHandler struct {
	hub *ws.Hub
}

// NewWSHandler создает новый обработчик WebSocket
func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleConnection апгрейдит запрос и подключает клиента к hub.
// Поток только серверный: клиенты ничего не отправляют.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	ws.ServeWS(h.hub, c.Writer, c.Request)
}
