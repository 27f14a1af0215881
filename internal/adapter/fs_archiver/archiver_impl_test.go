package fs_archiver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/frontier-crawler/internal/repository"
)

func TestSaveCreatesDirectoryAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "result")
	a := NewFileArchiver(dir)

	if err := a.Save(context.Background(), "https://ex.co/a?b=1", "<html>a</html>"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "https%3A%2F%2Fex.co%2Fa%3Fb%3D1.html"))
	if err != nil {
		t.Fatalf("read archived file: %v", err)
	}
	if string(got) != "<html>a</html>" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestSaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	a := NewFileArchiver(dir)
	ctx := context.Background()

	_ = a.Save(ctx, "https://ex.co/", "old")
	if err := a.Save(ctx, "https://ex.co/", "new"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := os.ReadFile(filepath.Join(dir, FileName("https://ex.co/")))
	if string(got) != "new" {
		t.Fatalf("expected overwrite, got %q", got)
	}
}

func TestFileNameFallsBackToHashForLongURLs(t *testing.T) {
	long := "https://ex.co/" + strings.Repeat("x", 300)
	name := FileName(long)
	if len(name) != 64+len(".html") {
		t.Fatalf("expected a sha256 name, got %q", name)
	}
	if FileName(long) != name {
		t.Fatal("expected a stable name")
	}
}

func TestSaveFailureIsArchiveError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	err := NewFileArchiver(file).Save(context.Background(), "https://ex.co/", "x")
	if !errors.Is(err, repository.ErrArchiveFailed) {
		t.Fatalf("expected ErrArchiveFailed, got %v", err)
	}
}
