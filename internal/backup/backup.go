// Package backup writes timestamped snapshots of the trade collection.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gw/optlog/internal/trade"
	"github.com/gw/optlog/internal/tradelog"
)

const (
	filePrefix = "trades-"
	fileSuffix = ".json"
	stampFmt   = "20060102-150405"
)

// Source is anything that can list the current collection.
type Source interface {
	List() []trade.Record
}

type Snapshotter struct {
	dir  string
	keep int
	src  Source
	log  *zap.Logger
	now  func() time.Time
}

// NewSnapshotter keeps the newest keep snapshots in dir; keep <= 0 keeps all.
func NewSnapshotter(dir string, keep int, src Source, log *zap.Logger) *Snapshotter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Snapshotter{dir: dir, keep: keep, src: src, log: log, now: time.Now}
}

// Snapshot writes the collection to a new file and prunes old ones.
func (s *Snapshotter) Snapshot(ctx context.Context) (string, error) {
	records := s.src.List()
	path := filepath.Join(s.dir, filePrefix+s.now().UTC().Format(stampFmt)+fileSuffix)
	if err := tradelog.NewFileStore(path).Save(ctx, records); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	s.log.Info("snapshot written", zap.String("path", path), zap.Int("trades", len(records)))

	if err := s.prune(); err != nil {
		s.log.Warn("pruning snapshots", zap.Error(err))
	}
	return path, nil
}

// List returns existing snapshot paths, oldest first.
func (s *Snapshotter) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *Snapshotter) prune() error {
	if s.keep <= 0 {
		return nil
	}
	paths, err := s.List()
	if err != nil {
		return err
	}
	for len(paths) > s.keep {
		if err := os.Remove(paths[0]); err != nil {
			return err
		}
		paths = paths[1:]
	}
	return nil
}

// Schedule registers a snapshot job on r.
func Schedule(r *Runner, spec string, s *Snapshotter) error {
	_, err := r.Add(spec, func(ctx context.Context) {
		if _, err := s.Snapshot(ctx); err != nil {
			s.log.Error("scheduled snapshot failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	return nil
}
