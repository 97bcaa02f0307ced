// Package notify holds the transient, user-facing messages (toasts) that the
// TUI, the web front and the CLI show after an action.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/equipx/internal/shared"
)

// Kind is the toast type.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
	Warning Kind = "warning"
)

const (
	DefaultTTL = 4 * time.Second
	DefaultMax = 5
)

// Toast is one queued message.
type Toast struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the toast should no longer be shown at now.
func (t Toast) Expired(now time.Time) bool { return !now.Before(t.ExpiresAt) }

// Queue is a bounded, time-limited list of toasts safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	toasts []Toast
	ttl    time.Duration
	max    int
	now    func() time.Time
}

// QueueOpts configures a Queue; zero values use the defaults.
type QueueOpts struct {
	TTL time.Duration
	Max int
	Now func() time.Time
}

func NewQueue(opts QueueOpts) *Queue {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Max <= 0 {
		opts.Max = DefaultMax
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Queue{ttl: opts.TTL, max: opts.Max, now: opts.Now}
}

// TTL is how long a pushed toast stays visible.
func (q *Queue) TTL() time.Duration { return q.ttl }

// Push appends a toast, dropping the oldest ones past the cap.
func (q *Queue) Push(kind Kind, message string) Toast {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	t := Toast{ID: shared.GenerateID(), Kind: kind, Message: message, CreatedAt: now, ExpiresAt: now.Add(q.ttl)}

	q.toasts = append(q.toasts, t)
	if over := len(q.toasts) - q.max; over > 0 {
		q.toasts = slices.Delete(q.toasts, 0, over)
	}
	return t
}

func (q *Queue) Success(message string) Toast { return q.Push(Success, message) }
func (q *Queue) Error(message string) Toast   { return q.Push(Error, message) }

// Dismiss removes the toast with id. It reports false for unknown ids.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := slices.IndexFunc(q.toasts, func(t Toast) bool { return t.ID == id })
	if i < 0 {
		return false
	}
	q.toasts = slices.Delete(q.toasts, i, i+1)
	return true
}

// Active prunes expired toasts and returns the rest in insertion order.
func (q *Queue) Active() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	q.toasts = slices.DeleteFunc(q.toasts, func(t Toast) bool { return t.Expired(now) })
	return slices.Clone(q.toasts)
}

// Drain returns and removes every active toast. Used by request-scoped UIs.
func (q *Queue) Drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	active := slices.DeleteFunc(q.toasts, func(t Toast) bool { return t.Expired(now) })
	q.toasts = nil
	return active
}
