// Package kafka provides a bounded snapshot reader backed by
// segmentio/kafka-go. The index build is a one-pass batch job, so the reader
// consumes a topic from the first offset up to the high watermark observed
// at connect time and then stops; messages published afterwards belong to
// the next build.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Harryjl046/eventsearch/pkg/config"
	"github.com/segmentio/kafka-go"
)

// MessageHandler is invoked for every message in the snapshot window.
type MessageHandler func(ctx context.Context, key, value []byte) error

// SnapshotReader reads one partition-0 topic snapshot.
type SnapshotReader struct {
	cfg    config.KafkaConfig
	topic  string
	logger *slog.Logger
}

// NewSnapshotReader creates a reader for the given topic.
func NewSnapshotReader(cfg config.KafkaConfig, topic string) *SnapshotReader {
	return &SnapshotReader{
		cfg:    cfg,
		topic:  topic,
		logger: slog.Default().With("component", "kafka-snapshot", "topic", topic),
	}
}

// Read consumes the topic from the first offset up to the last offset present
// when Read connects, calling handler for each message. Handler errors abort
// the read.
func (r *SnapshotReader) Read(ctx context.Context, handler MessageHandler) error {
	if len(r.cfg.Brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.DialLeader(ctx, "tcp", r.cfg.Brokers[0], r.topic, 0)
	if err != nil {
		return fmt.Errorf("dialing kafka leader for %s: %w", r.topic, err)
	}
	last, err := conn.ReadLastOffset()
	closeErr := conn.Close()
	if err != nil {
		return fmt.Errorf("reading last offset for %s: %w", r.topic, err)
	}
	if closeErr != nil {
		r.logger.Warn("closing leader connection", "error", closeErr)
	}
	if last == 0 {
		r.logger.Info("topic snapshot empty")
		return nil
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     r.cfg.Brokers,
		Topic:       r.topic,
		Partition:   0,
		MinBytes:    1e3,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	var count int64
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			return fmt.Errorf("reading message from %s: %w", r.topic, err)
		}
		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			return fmt.Errorf("handling message at offset %d: %w", msg.Offset, err)
		}
		count++
		if msg.Offset >= last-1 {
			break
		}
	}
	r.logger.Info("topic snapshot consumed", "messages", count, "last_offset", last)
	return nil
}

// DecodeJSON unmarshals a Kafka message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
