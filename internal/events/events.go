// Package events carries donation lifecycle events from the donation service
// to the components that react to them (search index, notifications).
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Type names a lifecycle transition.
type Type string

const (
	DonationCreated   Type = "donation.created"
	DonationAccepted  Type = "donation.accepted"
	DonationCompleted Type = "donation.completed"
	DonationDeleted   Type = "donation.deleted"
)

// Valid reports whether t is one of the known event types.
func (t Type) Valid() bool {
	switch t {
	case DonationCreated, DonationAccepted, DonationCompleted, DonationDeleted:
		return true
	default:
		return false
	}
}

// Event is published after a donation mutation has been committed.
type Event struct {
	ID         uuid.UUID  `json:"id"`
	Type       Type       `json:"type"`
	DonationID uuid.UUID  `json:"donation_id"`
	DonorID    uuid.UUID  `json:"donor_id"`
	ReceiverID *uuid.UUID `json:"receiver_id,omitempty"`
	Title      string     `json:"title"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type, donationID, donorID uuid.UUID, receiverID *uuid.UUID, title string) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		DonationID: donationID,
		DonorID:    donorID,
		ReceiverID: receiverID,
		Title:      title,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher hands events to their consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Handler reacts to a single event.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Dispatcher fans an event out to every registered handler.
// A failing handler does not stop the others; all failures are returned joined.
type Dispatcher struct {
	handlers []Handler
	logger   *zap.Logger
}

// NewDispatcher creates a Dispatcher over the given handlers. Nil handlers are skipped.
func NewDispatcher(logger *zap.Logger, handlers ...Handler) *Dispatcher {
	d := &Dispatcher{logger: logger.Named("events")}
	for _, h := range handlers {
		if h != nil {
			d.handlers = append(d.handlers, h)
		}
	}
	return d
}

// Dispatch runs every handler for event.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	if !event.Type.Valid() {
		return fmt.Errorf("unknown event type %q", event.Type)
	}
	var errs []error
	for _, h := range d.handlers {
		if err := h.Handle(ctx, event); err != nil {
			d.logger.Warn("Event handler failed",
				zap.String("type", string(event.Type)),
				zap.String("donationID", event.DonationID.String()),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LocalPublisher delivers events in-process, synchronously.
type LocalPublisher struct {
	dispatcher *Dispatcher
}

// NewLocalPublisher creates a publisher that calls the dispatcher directly.
func NewLocalPublisher(dispatcher *Dispatcher) *LocalPublisher {
	return &LocalPublisher{dispatcher: dispatcher}
}

func (p *LocalPublisher) Publish(ctx context.Context, event Event) error {
	return p.dispatcher.Dispatch(ctx, event)
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
