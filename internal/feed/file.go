// Package feed delivers flow snapshots to a timeline. FileSource follows a
// snapshot file on disk and emits the completion signal the first time the
// flow's main execution is reported as ended.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/flowline/internal/flow"
)

// DefaultDebounce coalesces bursts of writes to the same snapshot.
const DefaultDebounce = 100 * time.Millisecond

// ErrNoSnapshots is returned when a directory holds no snapshot files.
var ErrNoSnapshots = errors.New("no snapshot files found")

// Sink receives snapshots and the completion signal. timeline.Session
// implements it.
type Sink interface {
	Push(g *flow.Graph)
	Complete()
}

// FileSource reads one snapshot file and re-reads it whenever it changes.
type FileSource struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
}

// NewFileSource resolves path to a snapshot file. A directory resolves to
// its most recently modified snapshot.
func NewFileSource(path string, logger *slog.Logger) (*FileSource, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot path: %w", err)
	}
	if info.IsDir() {
		latest, err := LatestSnapshot(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("following newest snapshot", "dir", path, "file", latest)
		path = latest
	}
	if _, err := flow.FormatFromPath(path); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve snapshot path: %w", err)
	}
	return &FileSource{path: abs, debounce: DefaultDebounce, logger: logger}, nil
}

// Path returns the snapshot file being followed.
func (s *FileSource) Path() string {
	return s.path
}

// Load reads the current snapshot.
func (s *FileSource) Load() (*flow.Graph, error) {
	return flow.Load(s.path)
}

// Run pushes the current snapshot, then every change to it, until ctx is
// cancelled. Unreadable intermediate writes are logged and skipped.
func (s *FileSource) Run(ctx context.Context, sink Sink) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory so editors that replace the file are followed.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.path), err)
	}

	completed := false
	deliver := func() {
		g, err := s.Load()
		if err != nil {
			s.logger.Warn("skipping unreadable snapshot", "file", s.path, "error", err)
			return
		}
		sink.Push(g)
		if g.MainDone() && !completed {
			completed = true
			s.logger.Info("flow completed", "graph", g.ID)
			sink.Complete()
		}
	}

	deliver()

	debounce := time.NewTimer(s.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			debounce.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(s.debounce)

		case <-debounce.C:
			s.logger.Debug("snapshot changed", "file", s.path)
			deliver()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// LatestSnapshot returns the most recently modified snapshot file in dir.
func LatestSnapshot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var (
		latest  string
		latestT time.Time
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := flow.FormatFromPath(e.Name()); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestT) {
			latest = filepath.Join(dir, e.Name())
			latestT = info.ModTime()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("%w in %s", ErrNoSnapshots, dir)
	}
	return latest, nil
}
