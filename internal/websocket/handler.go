package websocket

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rajivgeraev/swapspot-api/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Источники проверяет обратный прокси
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler обрабатывает HTTP-запросы на установку WebSocket соединения.
// Работает на отдельном net/http сервере, т.к. Fiber использует fasthttp.
type Handler struct {
	manager    *Manager
	jwtService *utils.JWTService
}

// NewHandler создает новый экземпляр Handler
func NewHandler(manager *Manager, jwtService *utils.JWTService) *Handler {
	return &Handler{
		manager:    manager,
		jwtService: jwtService,
	}
}

// ServeHTTP апгрейдит соединение после проверки JWT из query-параметра token
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwtService.ExtractUserID(token)
	if err != nil {
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	if _, err := uuid.Parse(userID); err != nil {
		http.Error(w, "Invalid user ID", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Ошибка апгрейда WebSocket соединения: %v", err)
		return
	}

	client := NewClient(userID, conn, h.manager)
	client.Start()

	h.manager.SendToUser(userID, Event{
		Type:      EventConnected,
		UserID:    userID,
		Timestamp: time.Now(),
	})
}

// Serve запускает WebSocket сервер на отдельном адресе
func Serve(addr string, handler *Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", handler)

	log.Printf("✅ WebSocket сервер запущен на %s", addr)
	return http.ListenAndServe(addr, mux)
}
