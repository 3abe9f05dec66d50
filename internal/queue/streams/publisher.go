package streams

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Publisher appends schema-checked envelopes to Redis streams.
type Publisher struct {
	client   redis.Cmdable
	registry *SchemaRegistry
}

// PublishOption adjusts the XADD call.
type PublishOption func(*redis.XAddArgs)

// WithMaxLenApprox trims the stream to roughly maxLen entries.
func WithMaxLenApprox(maxLen int64) PublishOption {
	return func(args *redis.XAddArgs) {
		if maxLen > 0 {
			args.MaxLen = maxLen
			args.Approx = true
		}
	}
}

// NewPublisher returns a publisher. A nil registry skips payload validation.
func NewPublisher(client redis.Cmdable, registry *SchemaRegistry) *Publisher {
	return &Publisher{client: client, registry: registry}
}

// Publish validates envelope and appends it to stream, returning the entry ID.
func (p *Publisher) Publish(ctx context.Context, stream string, envelope Envelope, opts ...PublishOption) (string, error) {
	if stream == "" {
		return "", fmt.Errorf("stream name is required")
	}
	if envelope.EventID == "" {
		envelope.EventID = uuid.NewString()
	}
	if envelope.OccurredAt.IsZero() {
		envelope.OccurredAt = time.Now().UTC()
	}
	if err := envelope.ValidateBasic(); err != nil {
		return "", err
	}
	if p.registry != nil {
		if err := p.registry.Validate(envelope.EventType, envelope.PayloadVersion, envelope.Data); err != nil {
			return "", err
		}
	}

	raw, err := envelope.Marshal()
	if err != nil {
		return "", err
	}
	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"envelope": raw, "run_id": envelope.RunID},
	}
	for _, opt := range opts {
		opt(args)
	}
	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}
	return id, nil
}

// PublishPayload marshals payload into a v1 envelope and publishes it.
func (p *Publisher) PublishPayload(ctx context.Context, stream, eventType, runID string, payload any, opts ...PublishOption) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return p.Publish(ctx, stream, Envelope{
		EventType:      eventType,
		RunID:          runID,
		PayloadVersion: PayloadV1,
		Data:           data,
	}, opts...)
}
