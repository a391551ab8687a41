package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStreamPublisher appends events to a capped Redis stream.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
	block  time.Duration

	groupOnce sync.Map
}

type RedisStreamConfig struct {
	Addr     string
	Password string
	Stream   string
	MaxLen   int64
	// Block is how long Subscribe waits for new entries per read.
	Block time.Duration
}

func NewRedisStreamPublisher(cfg RedisStreamConfig) (*RedisStreamPublisher, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		stream = "omifemcuts:events"
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	block := cfg.Block
	if block <= 0 {
		block = 5 * time.Second
	}
	return &RedisStreamPublisher{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password}),
		stream: stream,
		maxLen: maxLen,
		block:  block,
	}, nil
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, e Event) error {
	data, err := encodeData(e.Data)
	if err != nil {
		return fmt.Errorf("encode event data: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"id":          e.ID,
			"type":        string(e.Type),
			"subject":     e.Subject,
			"occurred_at": e.OccurredAt.UTC().Format(time.RFC3339Nano),
			"data":        data,
		},
	}).Err()
}

func (p *RedisStreamPublisher) Close() error {
	return p.client.Close()
}

// Subscribe reads new events as consumer within group and acknowledges each
// one handler accepts. Entries the handler rejects stay pending. It returns
// when ctx is cancelled.
func (p *RedisStreamPublisher) Subscribe(ctx context.Context, group, consumer string, handler func(context.Context, Event) error) error {
	if err := p.ensureGroup(ctx, group); err != nil {
		return err
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		streams, err := p.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{p.stream, ">"},
			Count:    10,
			Block:    p.block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read events: %w", err)
		}
		for _, s := range streams {
			for _, msg := range s.Messages {
				e, err := decodeMessage(msg)
				if err != nil {
					// Undecodable entries would otherwise stay pending forever.
					_ = p.client.XAck(ctx, p.stream, group, msg.ID).Err()
					continue
				}
				if err := handler(ctx, e); err != nil {
					continue
				}
				if err := p.client.XAck(ctx, p.stream, group, msg.ID).Err(); err != nil {
					return fmt.Errorf("ack event: %w", err)
				}
			}
		}
	}
}

func (p *RedisStreamPublisher) ensureGroup(ctx context.Context, group string) error {
	if _, done := p.groupOnce.Load(group); done {
		return nil
	}
	err := p.client.XGroupCreateMkStream(ctx, p.stream, group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	p.groupOnce.Store(group, struct{}{})
	return nil
}

func decodeMessage(msg redis.XMessage) (Event, error) {
	str := func(k string) string {
		v, _ := msg.Values[k].(string)
		return v
	}
	e := Event{ID: str("id"), Type: Type(str("type")), Subject: str("subject")}
	if e.ID == "" || e.Type == "" {
		return Event{}, errors.New("event missing id or type")
	}
	if ts := str("occurred_at"); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Event{}, fmt.Errorf("parse occurred_at: %w", err)
		}
		e.OccurredAt = t
	}
	if raw := str("data"); raw != "" && raw != "{}" {
		if err := json.Unmarshal([]byte(raw), &e.Data); err != nil {
			return Event{}, fmt.Errorf("decode data: %w", err)
		}
	}
	return e, nil
}
