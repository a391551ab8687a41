package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	amqp "github.com/rabbitmq/amqp091-go"
)

func TestRedisStreamPublishAndSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	p, err := NewRedisStreamPublisher(RedisStreamConfig{Addr: mr.Addr(), Stream: "test:events", Block: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.ensureGroup(ctx, "audit"); err != nil {
		t.Fatalf("ensure group: %v", err)
	}

	sent := New(StyleLiked, "style-1", map[string]string{"userId": "u-1"})
	if err := p.Publish(ctx, sent); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got := make(chan Event, 1)
	subCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- p.Subscribe(subCtx, "audit", "c-1", func(_ context.Context, e Event) error {
			got <- e
			return nil
		})
	}()

	select {
	case e := <-got:
		if e.ID != sent.ID || e.Type != StyleLiked || e.Subject != "style-1" || e.Data["userId"] != "u-1" {
			t.Fatalf("unexpected event %+v", e)
		}
		if !e.OccurredAt.Equal(sent.OccurredAt) {
			t.Fatalf("occurredAt = %v, want %v", e.OccurredAt, sent.OccurredAt)
		}
	case <-ctx.Done():
		t.Fatalf("event never delivered")
	}
	stop()
	if err := <-done; err != nil {
		t.Fatalf("subscribe returned %v", err)
	}

	pending, err := p.client.XPending(ctx, "test:events", "audit").Result()
	if err != nil {
		t.Fatalf("xpending: %v", err)
	}
	if pending.Count != 0 {
		t.Fatalf("handled event should be acked, pending=%d", pending.Count)
	}
}

func TestRedisStreamPublishFailsWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	p, _ := NewRedisStreamPublisher(RedisStreamConfig{Addr: mr.Addr()})
	defer p.Close()
	mr.Close()
	if err := p.Publish(context.Background(), New(ContactReceived, "c-1", nil)); err == nil {
		t.Fatalf("expected publish error with redis down")
	}
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, Event) error {
	f.calls++
	return errors.New("broker unavailable")
}
func (f *failingPublisher) Close() error { return nil }

func TestEmitSwallowsErrors(t *testing.T) {
	f := &failingPublisher{}
	Emit(context.Background(), f, New(UserRegistered, "u-1", nil))
	Emit(context.Background(), nil, New(UserRegistered, "u-1", nil))
	if f.calls != 1 {
		t.Fatalf("publish calls = %d, want 1 (no retry)", f.calls)
	}
}

func TestAMQPPublishingShape(t *testing.T) {
	e := New(FeedbackApproved, "f-1", map[string]string{"rating": "5"})
	msg, err := publishing(e)
	if err != nil {
		t.Fatalf("publishing: %v", err)
	}
	if msg.DeliveryMode != amqp.Persistent || msg.MessageId != e.ID || msg.Type != "feedback.approved" {
		t.Fatalf("unexpected publishing %+v", msg)
	}
	var decoded Event
	if err := json.Unmarshal(msg.Body, &decoded); err != nil || decoded.Subject != "f-1" || decoded.Data["rating"] != "5" {
		t.Fatalf("body = %s err=%v", msg.Body, err)
	}
}

func TestNewAMQPPublisherRejectsBadURL(t *testing.T) {
	if _, err := NewAMQPPublisher("http://not-amqp", ""); err == nil {
		t.Fatalf("expected bad scheme to fail")
	}
}

func TestRecordingPublisher(t *testing.T) {
	p := NewRecordingPublisher(4)
	_ = p.Publish(context.Background(), New(StyleCreated, "s-1", nil))
	_ = p.Publish(context.Background(), New(StyleDeleted, "s-1", nil))
	got := p.Drain()
	if len(got) != 2 || got[0].Type != StyleCreated || got[1].Type != StyleDeleted {
		t.Fatalf("drained %+v", got)
	}
}
