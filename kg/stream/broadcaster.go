package stream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Subscriber is one connected websocket client, identified by a uuid
// session id so a caller can later target or drop a specific connection.
type Subscriber struct {
	ID   string
	conn *websocket.Conn
	send chan *Report
}

// Broadcaster fans Reports out to every connected Subscriber.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]*Subscriber
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]*Subscriber)}
}

// Upgrade promotes an HTTP request to a websocket connection and
// registers the resulting Subscriber, returning its session id.
func (b *Broadcaster) Upgrade(w http.ResponseWriter, r *http.Request) (string, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return "", err
	}

	sub := &Subscriber{ID: uuid.NewString(), conn: conn, send: make(chan *Report, 32)}
	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.mu.Unlock()

	go b.writeLoop(sub)
	return sub.ID, nil
}

func (b *Broadcaster) writeLoop(sub *Subscriber) {
	defer b.remove(sub.ID)
	defer sub.conn.Close()
	for report := range sub.send {
		payload, err := json.Marshal(report)
		if err != nil {
			log.Printf("stream: marshal report for %s: %v", sub.ID, err)
			continue
		}
		if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (b *Broadcaster) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		close(sub.send)
		delete(b.subs, id)
	}
}

// Broadcast pushes report to every currently connected Subscriber,
// dropping it for any subscriber whose send buffer is full rather than
// blocking the reporting Window.
func (b *Broadcaster) Broadcast(report *Report) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		select {
		case sub.send <- report:
		default:
			log.Printf("stream: dropping report for slow subscriber %s", sub.ID)
		}
	}
}

// Count returns the number of connected subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
