// Package events fans out per-user change notifications (auth state, saved
// moods, subscription changes, reminders) to connected websocket clients.
package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"moodtrack-backend/internal/logger"
)

const (
	TypeSignedIn            = "auth.signed_in"
	TypeSignedOut           = "auth.signed_out"
	TypeMoodSaved           = "mood.saved"
	TypeSubscriptionChanged = "subscription.changed"
	TypeOnboardingChanged   = "onboarding.changed"
	TypeReminder            = "reminder"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	bufferSize   = 16
)

type Event struct {
	Type   string      `json:"type"`
	UserID uint        `json:"user_id"`
	Data   interface{} `json:"data,omitempty"`
	At     time.Time   `json:"at"`
}

type subscriber struct {
	ch chan Event
}

// Hub is safe for concurrent use. Slow subscribers lose events rather than block publishers.
type Hub struct {
	mu   sync.RWMutex
	subs map[uint]map[*subscriber]struct{}
	Now  func() time.Time
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint]map[*subscriber]struct{}), Now: time.Now}
}

// Subscribe registers a listener for userID. Call the returned func to leave.
func (h *Hub) Subscribe(userID uint) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, bufferSize)}
	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], sub)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
		})
	}
}

// Subscribers returns how many listeners userID has.
func (h *Hub) Subscribers(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Publish delivers an event to every listener of userID.
func (h *Hub) Publish(userID uint, typ string, data interface{}) {
	ev := Event{Type: typ, UserID: userID, Data: data, At: h.Now().UTC()}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[userID] {
		select {
		case sub.ch <- ev:
		default:
			logger.Warn("dropping event for slow subscriber", "user_id", userID, "type", typ)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Serve upgrades the request and streams userID's events until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, leave := h.Subscribe(userID)
	defer leave()

	// the client never sends anything useful; reading only notices the close
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case ev := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return err
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-done:
			return nil
		}
	}
}
