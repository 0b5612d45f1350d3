package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/warden/pkg/config"
	"github.com/platinummonkey/warden/pkg/observability"
)

// eventField is the stream entry field carrying the JSON envelope.
const eventField = "event"

// StreamSubscriber drains a Redis stream through a consumer group and
// feeds each entry to a Consumer. Entries are acknowledged only when
// the consumer says so, anything else stays in the pending list and is
// reclaimed after ClaimMinIdle.
type StreamSubscriber struct {
	client   *redis.Client
	consumer *Consumer
	cfg      config.ConsumerConfig
	logger   *observability.Logger
}

// NewStreamSubscriber creates a subscriber reading from the configured
// stream.
func NewStreamSubscriber(client *redis.Client, consumer *Consumer, cfg config.ConsumerConfig, logger *observability.Logger) *StreamSubscriber {
	return &StreamSubscriber{
		client:   client,
		consumer: consumer,
		cfg:      cfg,
		logger:   logger.WithFields(map[string]interface{}{"stream": cfg.Stream, "group": cfg.Group}),
	}
}

// Run consumes the stream until ctx is cancelled.
func (s *StreamSubscriber) Run(ctx context.Context) error {
	if err := s.ensureGroup(ctx); err != nil {
		return err
	}

	s.logger.WithField("consumer", s.cfg.ConsumerName).Info("starting stream subscriber")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.claimStale(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.WithError(err).Warn("failed to reclaim stale entries")
		}

		entries, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.cfg.Group,
			Consumer: s.cfg.ConsumerName,
			Streams:  []string{s.cfg.Stream, ">"},
			Count:    int64(s.cfg.BatchSize),
			Block:    s.cfg.BlockInterval,
		}).Result()
		if err == redis.Nil {
			s.setLag(0)
			continue
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			s.logger.WithError(err).Error("failed to read from stream")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range entries {
			s.handleBatch(ctx, stream.Messages)
		}
	}
}

// ensureGroup creates the consumer group, tolerating one that already
// exists.
func (s *StreamSubscriber) ensureGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.cfg.Stream, s.cfg.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s: %w", s.cfg.Group, err)
	}
	return nil
}

// claimStale takes over entries another consumer read but never
// acknowledged.
func (s *StreamSubscriber) claimStale(ctx context.Context) error {
	messages, _, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   s.cfg.Stream,
		Group:    s.cfg.Group,
		Consumer: s.cfg.ConsumerName,
		MinIdle:  s.cfg.ClaimMinIdle,
		Start:    "0-0",
		Count:    int64(s.cfg.BatchSize),
	}).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	s.handleBatch(ctx, messages)
	return nil
}

func (s *StreamSubscriber) handleBatch(ctx context.Context, messages []redis.XMessage) {
	if len(messages) > 0 {
		s.setLag(entryAge(messages[0].ID, time.Now()))
	}
	for _, message := range messages {
		func() {
			defer observability.RecoverPanic(s.logger, "stream subscriber")
			if s.handleMessage(ctx, message) {
				if err := s.client.XAck(ctx, s.cfg.Stream, s.cfg.Group, message.ID).Err(); err != nil {
					s.logger.WithError(err).WithField("stream_id", message.ID).Error("failed to acknowledge entry")
				}
			}
		}()
	}
}

func (s *StreamSubscriber) setLag(seconds float64) {
	if s.consumer.metrics != nil {
		s.consumer.metrics.ConsumerLagSeconds.Set(seconds)
	}
}

// entryAge derives how long a stream entry has been waiting from its
// id, whose first component is a millisecond timestamp.
func entryAge(id string, now time.Time) float64 {
	ms, err := strconv.ParseInt(strings.SplitN(id, "-", 2)[0], 10, 64)
	if err != nil {
		return 0
	}
	age := now.Sub(time.UnixMilli(ms)).Seconds()
	if age < 0 {
		return 0
	}
	return age
}

func (s *StreamSubscriber) handleMessage(ctx context.Context, message redis.XMessage) bool {
	raw, ok := message.Values[eventField].(string)
	if !ok {
		s.logger.WithField("stream_id", message.ID).Warn("dropping entry without event field")
		return true
	}

	var msg DBEventMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		s.logger.WithError(err).WithField("stream_id", message.ID).Warn("dropping undecodable entry")
		return true
	}
	if msg.MessageID == "" {
		msg.MessageID = message.ID
	}

	return s.consumer.Process(ctx, &msg)
}

// Publish appends an event envelope to a stream. Services emitting
// change events use this, and so do tests.
func Publish(ctx context.Context, client *redis.Client, stream string, msg *DBEventMessage) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}
	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{eventField: string(data)},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish event: %w", err)
	}
	return id, nil
}
