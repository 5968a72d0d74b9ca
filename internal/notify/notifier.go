// Package notify reacts to account events published on the event bus.
package notify

import (
	"context"
	"log/slog"

	"go-user-service/internal/event"
)

// Sender delivers a welcome message to a new account holder.
type Sender interface {
	SendWelcome(ctx context.Context, email string, fullName string) error
}

// LogSender only records that a welcome message would have been sent.
type LogSender struct{}

func (LogSender) SendWelcome(_ context.Context, email string, fullName string) error {
	slog.Info("welcome message sent", "email", email, "full_name", fullName)
	return nil
}

type Notifier struct {
	bus    event.Bus
	sender Sender
}

func NewNotifier(bus event.Bus, sender Sender) *Notifier {
	return &Notifier{bus: bus, sender: sender}
}

// Start subscribes synchronously and consumes in a new goroutine. The
// returned channel is closed once the consumer stops.
func (n *Notifier) Start(ctx context.Context) <-chan struct{} {
	events, unsubscribe := n.bus.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer unsubscribe()
		n.loop(ctx, events)
	}()

	return done
}

func (n *Notifier) loop(ctx context.Context, events <-chan event.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			n.handle(ctx, e)
		}
	}
}

func (n *Notifier) handle(ctx context.Context, e event.Event) {
	switch e.Type {
	case event.TypeUserRegistered, event.TypeUserCreated:
		if err := n.sender.SendWelcome(ctx, e.Payload.Email, e.Payload.FullName); err != nil {
			slog.Error("welcome message failed", "user_id", e.Payload.UserID, "event_id", e.ID, "error", err)
		}
	default:
		slog.Debug("event ignored", "type", e.Type, "user_id", e.Payload.UserID)
	}
}
