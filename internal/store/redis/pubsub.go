package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PubSub holds the search index documents and the record change feed.
type PubSub struct {
	client *redis.Client
	ttl    time.Duration
}

func New(ctx context.Context, addr, password string, db int) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &PubSub{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *PubSub {
	return &PubSub{client: client}
}

// SetDocumentTTL expires index documents after ttl. Zero keeps them forever.
func (ps *PubSub) SetDocumentTTL(ttl time.Duration) { ps.ttl = ttl }

func (ps *PubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("redis.PubSub.Close: %w", err)
	}
	return nil
}

func (ps *PubSub) Ping(ctx context.Context) error {
	if err := ps.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Ping: %w", err)
	}
	return nil
}

// PutDocument replaces the search document of a record.
func (ps *PubSub) PutDocument(ctx context.Context, id uuid.UUID, doc []byte) error {
	if err := ps.client.Set(ctx, DocumentKey(id), doc, ps.ttl).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.PutDocument: %w", err)
	}
	return nil
}

// GetDocument returns the stored search document of a record. A missing
// document yields (nil, nil).
func (ps *PubSub) GetDocument(ctx context.Context, id uuid.UUID) ([]byte, error) {
	b, err := ps.client.Get(ctx, DocumentKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis.PubSub.GetDocument: %w", err)
	}
	return b, nil
}

func (ps *PubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ps.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Publish: %w", err)
	}
	return nil
}

func (ps *PubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := ps.client.Subscribe(ctx, channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.Subscribe: receive confirmation: %w", err)
	}

	out := make(chan []byte, 64)
	redisCh := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cleanup := func() {
		_ = sub.Close()
	}

	return out, cleanup, nil
}

// DocumentKey returns the key holding a record's search document.
func DocumentKey(recordID uuid.UUID) string {
	return "record:" + recordID.String()
}

// RecordsChannel carries change events for every record.
func RecordsChannel() string {
	return "records"
}

// RecordChannel returns the channel name for one record's change events.
func RecordChannel(recordID uuid.UUID) string {
	return "record:" + recordID.String()
}
