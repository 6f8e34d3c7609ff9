package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirSource reads a directory of tokenized .txt files. The file stem is the
// document id and whitespace-separated words are the tokens.
type DirSource struct {
	dir string
}

// NewDirSource creates a source over the given directory.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Each visits the directory's .txt files in lexical order.
func (s *DirSource) Each(ctx context.Context, fn func(doc Document) error) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading corpus directory %s: %w", s.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return fmt.Errorf("reading corpus file %s: %w", name, err)
		}
		doc := Document{
			ID:     strings.TrimSuffix(name, ".txt"),
			Tokens: strings.Fields(string(data)),
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}
