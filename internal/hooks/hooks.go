// Package hooks fans lifecycle events out to registered observers. Dispatch
// is synchronous and at-most-once; a failing observer is logged and isolated,
// never surfaced to the operation that emitted the event.
package hooks

import (
	"context"
	"sync"

	"github.com/super-skeleton/auth-service/internal/logging"
	"github.com/super-skeleton/auth-service/internal/models"
)

type Event string

const (
	EventUserRegistered         Event = "userRegistered"
	EventUserLoggedIn           Event = "userLoggedIn"
	EventPasswordResetRequested Event = "passwordResetRequested"
	EventPasswordResetCompleted Event = "passwordResetCompleted"
	EventVerificationResent     Event = "verificationEmailResent"
	EventUserLoggedOut          Event = "userLoggedOut"
)

// Payload carries the event arguments. Which fields are set depends on the
// event: User for everything but logout, Token for registration/reset/resend,
// Method ("password"/"google") for logins, UserID+RefreshToken for logout.
type Payload struct {
	User         *models.User
	Token        string
	Method       string
	UserID       string
	RefreshToken string
}

type Handler func(ctx context.Context, p Payload)

// Dispatcher keeps an explicit observer list per event, invoked in
// registration order.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Event][]Handler
}

func New() *Dispatcher {
	return &Dispatcher{handlers: make(map[Event][]Handler)}
}

func (d *Dispatcher) On(e Event, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[e] = append(d.handlers[e], h)
}

// Emit invokes every observer registered for e. Panics are recovered per
// handler so one broken observer cannot starve the rest or the caller.
func (d *Dispatcher) Emit(ctx context.Context, e Event, p Payload) {
	d.mu.RLock()
	hs := d.handlers[e]
	d.mu.RUnlock()

	for _, h := range hs {
		d.invoke(ctx, e, h, p)
	}
}

func (d *Dispatcher) invoke(ctx context.Context, e Event, h Handler, p Payload) {
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error("hook_panic", "event", string(e), "panic", r)
		}
	}()
	h(ctx, p)
}
