package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/teamhub/collab-service/internal/bus"
	"github.com/teamhub/collab-service/internal/middleware"
	"github.com/teamhub/collab-service/internal/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size; clients only send control frames here.
	maxInboundSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, replace with proper origin checking
	},
}

// laggedNotice отправляется клиенту при переполнении буфера подписки:
// часть событий потеряна, клиент должен перечитать историю через HTTP.
var laggedNotice = []byte(`{"entity":"sync","op":"reconcile"}`)

// WSHandler мост между шиной событий и WebSocket-подключениями клиентов.
// Команды (send/edit/delete) идут через обычные HTTP эндпоинты; сокет
// используется только для доставки событий.
type WSHandler struct {
	chatService *service.ChatService
	logger      *slog.Logger
}

// NewWSHandler создает новый WSHandler
func NewWSHandler(chatService *service.ChatService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// Serve обрабатывает GET /teams/{teamID}/ws
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserIDFromContext(r.Context())
	teamID := chi.URLParam(r, "teamID")

	// Проверка членства до апгрейда, чтобы отдать обычный HTTP статус
	sub, err := h.chatService.Subscribe(context.Background(), teamID, actorID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		h.logger.Error("websocket upgrade failed", "error", err, "team_id", teamID)
		return
	}

	go h.writePump(conn, sub)
	go h.readPump(conn, sub)
}

// writePump переливает события подписки в сокет и поддерживает keepalive
// пингами. Завершается когда подписка или сокет закрыты.
func (h *WSHandler) writePump(conn *websocket.Conn, sub *bus.Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Close()
		conn.Close()
	}()

	for {
		select {
		case evt, ok := <-sub.Events():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			payload, err := json.Marshal(evt)
			if err != nil {
				h.logger.Error("failed to marshal bus event", "error", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

			if sub.TakeLagged() {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, laggedNotice); err != nil {
					return
				}
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump следит за состоянием подключения: читает pong-и и закрытие.
// Входящие текстовые кадры игнорируются.
func (h *WSHandler) readPump(conn *websocket.Conn, sub *bus.Subscription) {
	defer func() {
		sub.Close()
		conn.Close()
	}()

	conn.SetReadLimit(maxInboundSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
