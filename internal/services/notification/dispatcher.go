package notification

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapspot-api/internal/models"
	"github.com/rajivgeraev/swapspot-api/internal/storage"
	"github.com/rajivgeraev/swapspot-api/internal/websocket"
)

// Intent описывает намерение отправить уведомление. Ядро ставит его в очередь
// и сразу возвращается — доставкой занимается отдельный воркер.
type Intent struct {
	UserID  uuid.UUID
	Type    string
	Title   string
	Message string
	Data    map[string]any
}

// Dispatcher асинхронно доставляет уведомления: сохраняет в БД и проталкивает
// через WebSocket. Доставка best-effort: сбой логируется и никогда не влияет
// на вызвавший его переход состояния.
type Dispatcher struct {
	store storage.NotificationStore
	ws    *websocket.Manager
	queue chan Intent
	wg    sync.WaitGroup
}

// NewDispatcher создает новый экземпляр Dispatcher
func NewDispatcher(store storage.NotificationStore, ws *websocket.Manager) *Dispatcher {
	return &Dispatcher{
		store: store,
		ws:    ws,
		queue: make(chan Intent, 1024),
	}
}

// Start запускает воркер доставки
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop останавливает воркер, дождавшись доставки уже поставленных уведомлений
func (d *Dispatcher) Stop() {
	close(d.queue)
	d.wg.Wait()
}

// Notify ставит уведомление в очередь, не блокируя вызывающего.
// При переполненной очереди уведомление отбрасывается с записью в лог.
func (d *Dispatcher) Notify(intent Intent) {
	select {
	case d.queue <- intent:
	default:
		log.Printf("⚠️ Очередь уведомлений переполнена, уведомление для %s отброшено", intent.UserID)
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for intent := range d.queue {
		d.deliver(intent)
	}
}

func (d *Dispatcher) deliver(intent Intent) {
	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    intent.UserID,
		Type:      intent.Type,
		Title:     intent.Title,
		Message:   intent.Message,
		Data:      intent.Data,
		CreatedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.store.CreateNotification(ctx, notification); err != nil {
		log.Printf("Ошибка сохранения уведомления для %s: %v", intent.UserID, err)
		// Не прерываемся: real-time доставка независима от хранения
	}

	if d.ws == nil {
		return
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		log.Printf("Ошибка сериализации уведомления: %v", err)
		return
	}

	d.ws.SendToUser(intent.UserID.String(), websocket.Event{
		Type:      websocket.EventNotification,
		UserID:    intent.UserID.String(),
		Timestamp: notification.CreatedAt,
		Payload:   payload,
	})
}
