package corpus

import (
	"context"
	"fmt"

	"github.com/Harryjl046/eventsearch/pkg/config"
	"github.com/Harryjl046/eventsearch/pkg/kafka"
)

// KafkaSource consumes one snapshot of a tokenized-documents topic. Message
// values are JSON Documents; the key, when present, overrides the document
// id.
type KafkaSource struct {
	reader *kafka.SnapshotReader
}

// NewKafkaSource creates a source over the given topic.
func NewKafkaSource(cfg config.KafkaConfig, topic string) *KafkaSource {
	return &KafkaSource{reader: kafka.NewSnapshotReader(cfg, topic)}
}

// Each replays the snapshot window in offset order.
func (s *KafkaSource) Each(ctx context.Context, fn func(doc Document) error) error {
	return s.reader.Read(ctx, func(ctx context.Context, key, value []byte) error {
		doc, err := kafka.DecodeJSON[Document](value)
		if err != nil {
			return err
		}
		if len(key) > 0 {
			doc.ID = string(key)
		}
		if doc.ID == "" {
			return fmt.Errorf("corpus message has no document id")
		}
		return fn(doc)
	})
}
