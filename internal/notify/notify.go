// Package notify is the in-process surface for transient user-facing
// messages. API failures are never fatal to the client; they end up here with
// a severity and an auto-dismiss deadline, and the shell renders whatever is
// still active.
package notify

import (
	"sync"
	"time"
)

// Severity classifies a notification for display.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarn    Severity = "warn"
	SeverityError   Severity = "error"
)

// Notification is a single transient message.
type Notification struct {
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Center collects notifications and prunes them once their dismiss deadline
// passes.
type Center struct {
	mu    sync.Mutex
	items []Notification
	now   func() time.Time
}

// NewCenter creates an empty notification center.
func NewCenter() *Center {
	return &Center{now: time.Now}
}

// dismissAfter returns how long a notification of the given severity stays
// visible before auto-dismissing.
func dismissAfter(sev Severity) time.Duration {
	switch sev {
	case SeveritySuccess, SeverityInfo:
		return 4 * time.Second
	case SeverityWarn:
		return 6 * time.Second
	default:
		return 8 * time.Second
	}
}

// Push records a notification.
func (c *Center) Push(sev Severity, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.items = append(c.items, Notification{
		Severity:  sev,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(dismissAfter(sev)),
	})
}

// Active returns notifications that have not auto-dismissed yet, pruning the
// rest.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	kept := c.items[:0]
	for _, n := range c.items {
		if n.ExpiresAt.After(now) {
			kept = append(kept, n)
		}
	}
	c.items = kept

	out := make([]Notification, len(kept))
	copy(out, kept)
	return out
}
