package fs_archiver

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/user/frontier-crawler/internal/repository"
	"github.com/user/frontier-crawler/pkg/utils"
)

// maxNameLen is the common filesystem limit on a single path component.
const maxNameLen = 255

// FileArchiver writes each page to <dir>/<escaped url>.html.
type FileArchiver struct {
	dir string
}

func NewFileArchiver(dir string) *FileArchiver {
	return &FileArchiver{dir: dir}
}

func (a *FileArchiver) Save(_ context.Context, pageURL, html string) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", repository.ErrArchiveFailed, a.dir, err)
	}
	path := filepath.Join(a.dir, FileName(pageURL))
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", repository.ErrArchiveFailed, pageURL, err)
	}
	return nil
}

// FileName is the query-escaped URL plus ".html". URLs whose escaped form would not fit in one
// path component are named by their SHA-256 instead.
func FileName(pageURL string) string {
	name := url.QueryEscape(pageURL) + ".html"
	if len(name) > maxNameLen {
		return utils.HashURL(pageURL) + ".html"
	}
	return name
}
