// Package notify delivers per-user notifications. The in-memory feed is
// the source of truth; connected websocket sessions get a best-effort
// live push of the same messages.
package notify

import (
	"sync"
	"time"

	"github.com/example/ride-marketplace/internal/models"
)

type Feed struct {
	mu    sync.RWMutex
	items []models.Notification
	ws    *WSRegistry // optional
}

func NewFeed(ws *WSRegistry) *Feed {
	return &Feed{ws: ws}
}

// Notify appends a message to the user's feed and pushes it to their
// websocket session if one is connected.
func (f *Feed) Notify(userID, message string) {
	n := models.Notification{UserID: userID, Message: message, CreatedAt: time.Now()}
	f.mu.Lock()
	f.items = append(f.items, n)
	f.mu.Unlock()
	if f.ws != nil {
		_ = f.ws.Push(userID, n)
	}
}

// NotifyAll fans one message out to several users.
func (f *Feed) NotifyAll(userIDs []string, message string) {
	for _, id := range userIDs {
		f.Notify(id, message)
	}
}

// For returns the messages addressed to a user, oldest first.
func (f *Feed) For(userID string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []string
	for _, n := range f.items {
		if n.UserID == userID {
			out = append(out, n.Message)
		}
	}
	return out
}
