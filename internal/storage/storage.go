// Package storage publishes finished export archives to a local directory or
// an S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Publisher copies an archive at localPath to durable storage under name and
// returns where it ended up.
type Publisher interface {
	Publish(ctx context.Context, name, localPath string) (string, error)
}

// ObjectKey returns "<prefix>/<YYYYMMDD>/<name>". An empty prefix is omitted.
func ObjectKey(prefix string, now time.Time, name string) string {
	return path.Join(prefix, now.UTC().Format("20060102"), name)
}

// Local publishes into a directory tree laid out like the object keys.
type Local struct {
	dir    string
	now    func() time.Time
	logger *zap.Logger
}

// NewLocal creates a publisher rooted at dir.
func NewLocal(dir string, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{dir: dir, now: time.Now, logger: logger}
}

// Publish copies localPath to <dir>/<YYYYMMDD>/<name> and returns that path.
func (l *Local) Publish(ctx context.Context, name, localPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(l.dir, filepath.FromSlash(ObjectKey("", l.now(), name)))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create publish directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = src.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".publish-*")
	if err != nil {
		return "", fmt.Errorf("create published file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("copy archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("copy archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("publish archive: %w", err)
	}

	l.logger.Info("archive published", zap.String("path", dst))
	return dst, nil
}
