package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirDownloader saves payloads into a directory. Files are written to a
// temporary name and moved into place; an existing file is never replaced.
type DirDownloader struct {
	dir string
}

// NewDirDownloader returns a downloader rooted at dir.
func NewDirDownloader(dir string) *DirDownloader {
	return &DirDownloader{dir: dir}
}

// Save implements Downloader.
func (d *DirDownloader) Save(ctx context.Context, p Payload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(d.dir, ".download-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(p.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return "", fmt.Errorf("chmod temp file: %w", err)
	}

	ext := filepath.Ext(p.Filename)
	base := strings.TrimSuffix(p.Filename, ext)
	for i := 0; i < 1000; i++ {
		name := p.Filename
		if i > 0 {
			name = fmt.Sprintf("%s (%d)%s", base, i, ext)
		}
		dest := filepath.Join(d.dir, name)
		err := os.Link(tmpPath, dest)
		if err == nil {
			return dest, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		// Filesystems without hard links: rename when the name is free.
		if _, statErr := os.Stat(dest); errors.Is(statErr, fs.ErrNotExist) {
			if err := os.Rename(tmpPath, dest); err != nil {
				return "", fmt.Errorf("move into place: %w", err)
			}
			return dest, nil
		}
	}
	return "", fmt.Errorf("no free file name for %s in %s", p.Filename, d.dir)
}
