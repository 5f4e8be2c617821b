package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/super-skeleton/auth-service/internal/models"
)

func TestDispatcher_InvokesInRegistrationOrder(t *testing.T) {
	t.Parallel()

	d := New()
	var order []int
	d.On(EventUserRegistered, func(ctx context.Context, p Payload) { order = append(order, 1) })
	d.On(EventUserRegistered, func(ctx context.Context, p Payload) { order = append(order, 2) })
	d.On(EventUserLoggedIn, func(ctx context.Context, p Payload) { order = append(order, 99) })

	d.Emit(context.Background(), EventUserRegistered, Payload{})

	assert.Equal(t, []int{1, 2}, order)
}

func TestDispatcher_PanickingObserverIsIsolated(t *testing.T) {
	t.Parallel()

	d := New()
	var reached bool
	d.On(EventUserLoggedIn, func(ctx context.Context, p Payload) { panic("observer broke") })
	d.On(EventUserLoggedIn, func(ctx context.Context, p Payload) { reached = true })

	assert.NotPanics(t, func() {
		d.Emit(context.Background(), EventUserLoggedIn, Payload{Method: "password"})
	})
	assert.True(t, reached, "later observers still run after a panic")
}

func TestDispatcher_EmitWithoutObserversIsNoop(t *testing.T) {
	t.Parallel()

	d := New()
	assert.NotPanics(t, func() {
		d.Emit(context.Background(), EventUserLoggedOut, Payload{UserID: "u1"})
	})
}

func TestDispatcher_PayloadDelivered(t *testing.T) {
	t.Parallel()

	d := New()
	var got Payload
	d.On(EventPasswordResetRequested, func(ctx context.Context, p Payload) { got = p })

	u := &models.User{ID: "u1", Email: "a@x.com"}
	d.Emit(context.Background(), EventPasswordResetRequested, Payload{User: u, Token: "tok"})

	assert.Equal(t, u, got.User)
	assert.Equal(t, "tok", got.Token)
}
