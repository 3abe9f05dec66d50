package streams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Consumer reads envelopes from a stream through a consumer group.
type Consumer struct {
	client   redis.Cmdable
	registry *SchemaRegistry
	group    string
	name     string
}

// ConsumerOption adjusts the XREADGROUP call.
type ConsumerOption func(*redis.XReadGroupArgs)

// WithBlock waits up to d for new entries.
func WithBlock(d time.Duration) ConsumerOption {
	return func(args *redis.XReadGroupArgs) {
		if d > 0 {
			args.Block = d
		}
	}
}

// WithCount caps the entries returned by one read.
func WithCount(n int64) ConsumerOption {
	return func(args *redis.XReadGroupArgs) {
		if n > 0 {
			args.Count = n
		}
	}
}

func NewConsumer(client redis.Cmdable, registry *SchemaRegistry, group, name string) *Consumer {
	return &Consumer{client: client, registry: registry, group: group, name: name}
}

// EnsureGroup creates group on stream, creating the stream if needed. start
// is the first entry ID the group will see; "$" means only new entries.
func EnsureGroup(ctx context.Context, client redis.Cmdable, stream, group, start string) error {
	if stream == "" || group == "" {
		return fmt.Errorf("stream and group must be provided")
	}
	if start == "" {
		start = "$"
	}
	if err := client.XGroupCreateMkStream(ctx, stream, group, start).Err(); err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			return nil
		}
		return fmt.Errorf("xgroup create: %w", err)
	}
	return nil
}

// Message is one decoded stream entry.
type Message struct {
	ID       string
	Envelope Envelope
}

// Read returns new entries for this consumer. Entries that cannot be decoded
// or fail validation are acknowledged and dropped.
func (c *Consumer) Read(ctx context.Context, stream string, opts ...ConsumerOption) ([]Message, error) {
	if stream == "" {
		return nil, fmt.Errorf("stream name is required")
	}
	if c.group == "" || c.name == "" {
		return nil, fmt.Errorf("consumer group and name must be configured")
	}
	args := &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{stream, ">"},
	}
	for _, opt := range opts {
		opt(args)
	}

	res, err := c.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}
	var out []Message
	for _, st := range res {
		for _, msg := range st.Messages {
			if decoded, ok := c.decode(ctx, stream, msg); ok {
				out = append(out, decoded)
			}
		}
	}
	return out, nil
}

func (c *Consumer) Ack(ctx context.Context, stream string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, stream, c.group, ids...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func (c *Consumer) decode(ctx context.Context, stream string, msg redis.XMessage) (Message, bool) {
	drop := func() (Message, bool) {
		_ = c.client.XAck(ctx, stream, c.group, msg.ID).Err()
		return Message{}, false
	}
	var raw []byte
	switch v := msg.Values["envelope"].(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case nil:
		return drop()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return drop()
		}
		raw = b
	}
	env, err := UnmarshalEnvelope(raw)
	if err != nil {
		return drop()
	}
	if c.registry != nil {
		if err := c.registry.Validate(env.EventType, env.PayloadVersion, env.Data); err != nil {
			return drop()
		}
	}
	return Message{ID: msg.ID, Envelope: env}, true
}
