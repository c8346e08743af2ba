package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wonny/fundlens/pkg/logger"
)

// FileStore keeps one JSON file per (identifier, kind) pair under a root
// directory. It is the default backend: no services to run, and a corrupt
// file simply reads as a miss.
type FileStore struct {
	dir string
	log *logger.Logger
}

// NewFileStore creates the root directory if needed.
func NewFileStore(dir string, log *logger.Logger) (*FileStore, error) {
	if log == nil {
		log = logger.Nop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, log: log.WithComponent("cache.file")}, nil
}

// Get implements Store.
func (f *FileStore) Get(_ context.Context, id string, kind Kind) (*Entry, error) {
	path := f.path(id, kind)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		f.log.WithError(err).WithField("path", path).Warn("cache read failed, treating as miss")
		return nil, ErrMiss
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		f.log.WithError(err).WithField("path", path).Warn("corrupt cache entry, treating as miss")
		return nil, ErrMiss
	}

	if entry.Stale(kind) {
		return nil, ErrMiss
	}

	return &entry, nil
}

// Put implements Store. The file is written through a temp file and renamed
// so concurrent readers never see a half-written entry.
func (f *FileStore) Put(_ context.Context, id string, kind Kind, e *Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	path := f.path(id, kind)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write cache entry %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename cache entry %s: %w", path, err)
	}
	return nil
}

// Delete implements Store.
func (f *FileStore) Delete(_ context.Context, id string, kind Kind) error {
	err := os.Remove(f.path(id, kind))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Purge implements Store.
func (f *FileStore) Purge(_ context.Context) error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, de.Name())); err != nil {
			return fmt.Errorf("purge cache entry %s: %w", de.Name(), err)
		}
	}
	return nil
}

// Stats implements Store.
func (f *FileStore) Stats(_ context.Context) (Stats, error) {
	var stats Stats

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return stats, fmt.Errorf("read cache dir: %w", err)
	}

	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		stats.Entries++

		if info, err := de.Info(); err == nil {
			stats.Bytes += info.Size()
		}

		raw, err := os.ReadFile(filepath.Join(f.dir, name))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			stats.Expired++
			continue
		}
		if entry.Stale(kindFromFilename(name)) {
			stats.Expired++
		}
	}

	return stats, nil
}

func (f *FileStore) path(id string, kind Kind) string {
	return filepath.Join(f.dir, sanitize(id)+"_"+string(kind)+".json")
}

func kindFromFilename(name string) Kind {
	name = strings.TrimSuffix(name, ".json")
	if i := strings.LastIndex(name, "_"); i >= 0 {
		return Kind(name[i+1:])
	}
	return KindHistorical
}

// sanitize keeps identifiers filesystem-safe. ISINs and tickers are already
// alphanumeric; anything else collapses to underscores.
func sanitize(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
