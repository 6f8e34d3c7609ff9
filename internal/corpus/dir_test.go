package corpus

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDirSourceEach(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b-doc.txt": "new york tech workshop",
		"a-doc.txt": "new york  meetup\ngroup",
		"notes.md":  "should be ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing fixture %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755); err != nil {
		t.Fatalf("creating subdirectory: %v", err)
	}

	var docs []Document
	err := NewDirSource(dir).Each(context.Background(), func(doc Document) error {
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		t.Fatalf("Each: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2: %+v", len(docs), docs)
	}
	// Lexical order by file name; ids are the file stems.
	if docs[0].ID != "a-doc" || docs[1].ID != "b-doc" {
		t.Fatalf("doc order = [%s %s]", docs[0].ID, docs[1].ID)
	}
	want := []string{"new", "york", "meetup", "group"}
	if !reflect.DeepEqual(docs[0].Tokens, want) {
		t.Fatalf("tokens = %v, want %v", docs[0].Tokens, want)
	}
}

func TestDirSourceMissingDir(t *testing.T) {
	err := NewDirSource("/nonexistent/corpus").Each(context.Background(), func(Document) error {
		return nil
	})
	if err == nil {
		t.Fatal("Each on a missing directory succeeded")
	}
}

func TestDirSourceCallbackError(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
	}
	calls := 0
	err := NewDirSource(dir).Each(context.Background(), func(Document) error {
		calls++
		return os.ErrClosed
	})
	if err == nil {
		t.Fatal("callback error not propagated")
	}
	if calls != 1 {
		t.Fatalf("Each continued after callback error: %d calls", calls)
	}
}

func TestDirSourceContextCancelled(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewDirSource(dir).Each(ctx, func(Document) error { return nil })
	if err == nil {
		t.Fatal("cancelled context not honoured")
	}
}

func TestOpenUnknownSource(t *testing.T) {
	cfg := testConfig()
	cfg.Corpus.Source = "carrier-pigeon"
	if _, err := Open(cfg); err == nil {
		t.Fatal("unknown source accepted")
	}
}

func TestOpenDirSource(t *testing.T) {
	cfg := testConfig()
	cfg.Corpus.Source = "dir"
	src, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := src.(*DirSource); !ok {
		t.Fatalf("Open returned %T, want *DirSource", src)
	}
}
