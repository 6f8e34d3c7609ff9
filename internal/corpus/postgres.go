package corpus

import (
	"context"
	"fmt"
	"strings"

	"github.com/Harryjl046/eventsearch/pkg/config"
	"github.com/Harryjl046/eventsearch/pkg/postgres"
	"github.com/lib/pq"
)

// PostgresSource streams tokenized documents from a table with columns
// doc_id (text) and tokens (text[]).
type PostgresSource struct {
	client *postgres.Client
	table  string
}

// NewPostgresSource connects to PostgreSQL and validates the table name.
func NewPostgresSource(cfg config.PostgresConfig, table string) (*PostgresSource, error) {
	if !validTableName(table) {
		return nil, fmt.Errorf("invalid corpus table name %q", table)
	}
	client, err := postgres.New(cfg)
	if err != nil {
		return nil, err
	}
	return &PostgresSource{client: client, table: table}, nil
}

// Each streams every row ordered by doc_id so downstream builds are
// deterministic.
func (s *PostgresSource) Each(ctx context.Context, fn func(doc Document) error) error {
	query := fmt.Sprintf("SELECT doc_id, tokens FROM %s ORDER BY doc_id", s.table)
	rows, err := s.client.DB.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("querying corpus table %s: %w", s.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, pq.Array(&doc.Tokens)); err != nil {
			return fmt.Errorf("scanning corpus row: %w", err)
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating corpus rows: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *PostgresSource) Close() error {
	return s.client.Close()
}

// validTableName permits only identifier characters, since the table name is
// interpolated into the query text.
func validTableName(table string) bool {
	if table == "" {
		return false
	}
	for _, r := range table {
		ok := r == '_' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return false
		}
	}
	return !strings.HasPrefix(table, ".")
}
