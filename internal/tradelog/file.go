package tradelog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gw/optlog/internal/trade"
)

// FileStore keeps the trade collection as a pretty-printed JSON array.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// Load reads the file. A missing or empty file is an empty collection.
func (s *FileStore) Load(ctx context.Context) ([]trade.Raw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raws []trade.Raw
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, err)
	}
	return raws, nil
}

// Save writes records to a temp file next to the target and renames it
// into place, so readers never see a partial file.
func (s *FileStore) Save(ctx context.Context, records []trade.Record) error {
	if records == nil {
		records = []trade.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding trades: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeFileAtomic(s.path, data)
}

func (s *FileStore) Close() error { return nil }

func writeFileAtomic(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	return nil
}
