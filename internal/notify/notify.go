// Package notify holds the dismissible notifications shown to the operator.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Level is the kind of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a single message awaiting dismissal.
type Notification struct {
	ID      int
	Level   Level
	Message string
	Time    time.Time
}

// Notifier surfaces pass/fail results of backend calls.
type Notifier interface {
	Notify(level Level, message string)
}

// Center is a thread-safe Notifier that keeps notifications until dismissed.
type Center struct {
	mu     sync.Mutex
	items  []Notification
	nextID int
	limit  int
	logger *slog.Logger
}

// NewCenter keeps at most limit notifications; older ones fall off.
func NewCenter(limit int, logger *slog.Logger) *Center {
	if limit <= 0 {
		limit = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Center{limit: limit, logger: logger}
}

// Notify implements Notifier.
func (c *Center) Notify(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	c.items = append(c.items, Notification{ID: c.nextID, Level: level, Message: message, Time: time.Now()})
	if len(c.items) > c.limit {
		c.items = c.items[len(c.items)-c.limit:]
	}

	attrs := []any{slog.String("level", level.String()), slog.String("message", message)}
	if level == LevelError {
		c.logger.Warn("notification", attrs...)
	} else {
		c.logger.Info("notification", attrs...)
	}
}

func (c *Center) Success(message string) { c.Notify(LevelSuccess, message) }
func (c *Center) Error(message string)   { c.Notify(LevelError, message) }

// Active returns the undismissed notifications, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.items...)
}

// Latest returns the newest notification.
func (c *Center) Latest() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return Notification{}, false
	}
	return c.items[len(c.items)-1], true
}

// Dismiss removes the notification with the given id.
func (c *Center) Dismiss(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

var _ Notifier = (*Center)(nil)
