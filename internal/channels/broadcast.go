// Package channels holds the three alert sinks: SMS, websocket broadcast,
// and the durable history store.
package channels

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"garden-alert-service/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeTimeout = 10 * time.Second

// wsConn is the slice of *websocket.Conn that BroadcastChannel depends on.
// Narrowing to an interface lets tests substitute a fake transport without
// a real network connection.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// subscriber wraps one live connection. Writes are serialized per
// subscriber with a dedicated mutex since a websocket connection does not
// tolerate concurrent writers.
type subscriber struct {
	id   string
	conn wsConn
	mu   sync.Mutex
}

// broadcastMessage is the envelope pushed to every subscriber.
type broadcastMessage struct {
	Type string       `json:"type"`
	Data models.Alert `json:"data"`
}

// BroadcastChannel fans an alert out to every connected real-time
// subscriber. A send failure drops that subscriber without affecting the
// others or the caller.
type BroadcastChannel struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	logger      *zap.Logger
}

// NewBroadcastChannel builds an empty BroadcastChannel.
func NewBroadcastChannel(logger *zap.Logger) *BroadcastChannel {
	return &BroadcastChannel{
		subscribers: make(map[string]*subscriber),
		logger:      logger,
	}
}

// HandleConnection upgrades an HTTP request to a websocket and registers
// the resulting connection as a subscriber. Inbound messages are read and
// discarded; their only purpose is detecting disconnects.
func (b *BroadcastChannel) HandleConnection(w http.ResponseWriter, r *http.Request, id string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	b.addSubscriber(id, conn)
	go b.readPump(id, conn)
	return nil
}

// addSubscriberForTest registers a fake connection directly, bypassing the
// HTTP upgrade handshake.
func (b *BroadcastChannel) addSubscriberForTest(id string, conn wsConn) {
	b.addSubscriber(id, conn)
}

func (b *BroadcastChannel) addSubscriber(id string, conn wsConn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[id] = &subscriber{id: id, conn: conn}
	if b.logger != nil {
		b.logger.Info("subscriber connected", zap.String("id", id))
	}
}

// onDisconnect removes a subscriber by id. Safe to call more than once.
func (b *BroadcastChannel) onDisconnect(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.subscribers[id]; ok {
		s.conn.Close()
		delete(b.subscribers, id)
		if b.logger != nil {
			b.logger.Info("subscriber disconnected", zap.String("id", id))
		}
	}
}

// SubscriberCount reports the number of currently-connected subscribers.
func (b *BroadcastChannel) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Broadcast serializes alert and pushes it to every live subscriber. An
// empty subscriber set is a successful no-op. A subscriber whose write
// fails is dropped; this never aborts delivery to the rest.
func (b *BroadcastChannel) Broadcast(alert models.Alert) {
	data, err := json.Marshal(broadcastMessage{Type: "WEATHER_ALERT", Data: alert})
	if err != nil {
		if b.logger != nil {
			b.logger.Error("failed to marshal alert for broadcast", zap.Error(err))
		}
		return
	}

	b.mu.RLock()
	targets := make([]*subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		targets = append(targets, s)
	}
	b.mu.RUnlock()

	for _, s := range targets {
		if err := s.write(data); err != nil {
			if b.logger != nil {
				b.logger.Warn("dropping subscriber after send failure", zap.String("id", s.id), zap.Error(err))
			}
			b.onDisconnect(s.id)
		}
	}
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *BroadcastChannel) readPump(id string, conn wsConn) {
	defer func() {
		b.onDisconnect(id)
	}()

	conn.SetReadLimit(512 * 1024)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
