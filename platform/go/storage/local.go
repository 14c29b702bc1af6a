package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalWriter mirrors the bucket layout under a root directory: <root>/<bucket>/<path>.
type LocalWriter struct {
	root string
}

func NewLocalWriter(root string) *LocalWriter {
	return &LocalWriter{root: root}
}

func (l *LocalWriter) Put(ctx context.Context, loc ObjectLocation, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := filepath.Join(l.root, loc.Bucket, filepath.FromSlash(loc.FullPath))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, target)
}

var (
	_ Writer = (*LocalWriter)(nil)
	_ Writer = (*GCSWriter)(nil)
)
