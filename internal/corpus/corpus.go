// Package corpus supplies pre-tokenized documents to the index builder.
// Tokenization itself happens upstream; every source yields documents whose
// tokens are already normalized, one token per index position.
package corpus

import (
	"context"
	"fmt"

	"github.com/Harryjl046/eventsearch/pkg/config"
)

// Document is one tokenized document. Tokens are in document order; a
// token's slice index is its position in the positional index.
type Document struct {
	ID     string   `json:"doc"`
	Tokens []string `json:"tokens"`
}

// Source streams a corpus document by document. Each stops on the first
// callback error and propagates it.
type Source interface {
	Each(ctx context.Context, fn func(doc Document) error) error
}

// Open constructs the source selected by the corpus configuration.
func Open(cfg *config.Config) (Source, error) {
	switch cfg.Corpus.Source {
	case "dir":
		return NewDirSource(cfg.Corpus.Dir), nil
	case "postgres":
		return NewPostgresSource(cfg.Postgres, cfg.Corpus.Table)
	case "kafka":
		return NewKafkaSource(cfg.Kafka, cfg.Corpus.Topic), nil
	default:
		return nil, fmt.Errorf("unknown corpus source %q", cfg.Corpus.Source)
	}
}
