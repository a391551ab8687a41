// Package events publishes shop domain events (sign-ups, new styles, likes,
// feedback and contact messages) to a Redis stream or a RabbitMQ exchange.
// Publishing is fire-and-forget from the caller's point of view: failures are
// logged by Emit and never fail the user operation.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"omifemcuts/internal/util"
)

type Type string

const (
	UserRegistered    Type = "user.registered"
	StyleCreated      Type = "style.created"
	StyleDeleted      Type = "style.deleted"
	StyleLiked        Type = "style.liked"
	FeedbackSubmitted Type = "feedback.submitted"
	FeedbackApproved  Type = "feedback.approved"
	ContactReceived   Type = "contact.received"
)

type Event struct {
	ID         string            `json:"id"`
	Type       Type              `json:"type"`
	Subject    string            `json:"subject"`
	OccurredAt time.Time         `json:"occurredAt"`
	Data       map[string]string `json:"data,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type, subject string, data map[string]string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Emit publishes e and logs a failure instead of returning it.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		util.LoggerFromContext(ctx).Warn("event publish failed", "event", string(e.Type), "event_id", e.ID, "subject", e.Subject, "err", err)
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// RecordingPublisher keeps published events in memory; used by tests and dry runs.
type RecordingPublisher struct {
	events chan Event
}

func NewRecordingPublisher(capacity int) *RecordingPublisher {
	return &RecordingPublisher{events: make(chan Event, capacity)}
}

func (p *RecordingPublisher) Publish(_ context.Context, e Event) error {
	select {
	case p.events <- e:
	default:
	}
	return nil
}

func (p *RecordingPublisher) Close() error { return nil }

// Drain returns the events recorded so far.
func (p *RecordingPublisher) Drain() []Event {
	var out []Event
	for {
		select {
		case e := <-p.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func encodeData(data map[string]string) (string, error) {
	if len(data) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(data)
	return string(b), err
}
