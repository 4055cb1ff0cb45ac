// Package watcher polls local files and reports when they change.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

type stamp struct {
	modTime time.Time
	size    int64
	exists  bool
}

// Service tracks the modification time and size of a set of files.
type Service struct {
	paths []string
	mu    sync.Mutex
	seen  map[string]stamp
	log   *slog.Logger
}

// NewService starts tracking paths from their current state, so files that
// already exist are not reported as changed on the first check.
func NewService(logger *slog.Logger, paths ...string) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		paths: paths,
		seen:  make(map[string]stamp, len(paths)),
		log:   logger,
	}
	for _, p := range paths {
		st := statFile(p)
		if !st.exists {
			logger.Warn("Watcher: file does not exist yet", "path", p)
		}
		s.seen[p] = st
	}
	return s
}

func statFile(path string) stamp {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return stamp{}
	}
	return stamp{modTime: info.ModTime(), size: info.Size(), exists: true}
}

// CheckChanged returns the paths whose content appeared or changed since the
// previous check. Deleted files are not reported; they count as new again
// once they reappear.
func (s *Service) CheckChanged() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []string
	for _, p := range s.paths {
		cur := statFile(p)
		prev := s.seen[p]
		s.seen[p] = cur
		if !cur.exists {
			continue
		}
		if !prev.exists || !cur.modTime.Equal(prev.modTime) || cur.size != prev.size {
			s.log.Info("Watcher: file changed", "path", p, "size", cur.size)
			changed = append(changed, p)
		}
	}
	return changed
}

// Run polls every interval until ctx is done and calls onChange with each
// batch of changed paths. onChange runs on the polling goroutine.
func (s *Service) Run(ctx context.Context, interval time.Duration, onChange func(ctx context.Context, paths []string)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if changed := s.CheckChanged(); len(changed) > 0 {
				onChange(ctx, changed)
			}
		}
	}
}
