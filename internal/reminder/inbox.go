// Package reminder produces medicine notifications and keeps the
// notification panel's inbox.
package reminder

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"meditrack/internal/model"
)

const defaultInboxSize = 50

// Inbox holds the most recent notifications, newest first.
type Inbox struct {
	mu    sync.RWMutex
	max   int
	items []model.Notification
}

// NewInbox creates an Inbox keeping at most max notifications. A
// non-positive max uses the default of 50.
func NewInbox(max int) *Inbox {
	if max <= 0 {
		max = defaultInboxSize
	}
	return &Inbox{max: max}
}

// Add stores n as unread, filling in ID and CreatedAt when missing, and
// returns the stored value.
func (in *Inbox) Add(n model.Notification) model.Notification {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.Unread = true

	in.mu.Lock()
	defer in.mu.Unlock()

	in.items = append([]model.Notification{n}, in.items...)
	if len(in.items) > in.max {
		in.items = in.items[:in.max]
	}
	return n
}

// List returns a copy of the notifications, newest first.
func (in *Inbox) List() []model.Notification {
	in.mu.RLock()
	defer in.mu.RUnlock()

	out := make([]model.Notification, len(in.items))
	copy(out, in.items)
	return out
}

// UnreadCount returns the number of unread notifications.
func (in *Inbox) UnreadCount() int {
	in.mu.RLock()
	defer in.mu.RUnlock()

	n := 0
	for _, it := range in.items {
		if it.Unread {
			n++
		}
	}
	return n
}

// MarkAllRead clears the unread flag on every notification.
func (in *Inbox) MarkAllRead() {
	in.mu.Lock()
	defer in.mu.Unlock()

	for i := range in.items {
		in.items[i].Unread = false
	}
}
