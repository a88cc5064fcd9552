package toolserver

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/evo-hydra/seraph/internal/config"
)

// liveConfig is swapped atomically by watchConfig so in-flight requests
// never observe a torn read, and each request sees a fully-resolved Config.
type liveConfig struct {
	repoPath string
	log      *slog.Logger
	current  atomic.Pointer[config.Config]
}

func newLiveConfig(repoPath string, log *slog.Logger) (*liveConfig, error) {
	cfg, err := config.Load(repoPath)
	if err != nil {
		return nil, err
	}
	l := &liveConfig{repoPath: repoPath, log: log}
	l.current.Store(cfg)
	return l, nil
}

func (l *liveConfig) get() *config.Config {
	return l.current.Load()
}

func (l *liveConfig) reload() {
	cfg, err := config.Load(l.repoPath)
	if err != nil {
		l.log.Warn("config reload failed, keeping previous configuration", "error", err)
		return
	}
	l.current.Store(cfg)
	l.log.Info("configuration reloaded", "level", cfg.Logging.Level)
}

// watchConfig watches <repoPath>/.seraph/config.toml for edits and reloads l
// on write/create/rename events, debounced to coalesce editor saves that emit
// several events per write. Scoped down from BeadsLog's cmd/bd FileWatcher:
// one path, no polling fallback, no git-ref watching — if fsnotify can't be
// initialized the server simply runs without hot-reload.
func watchConfig(ctx context.Context, l *liveConfig) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		l.log.Warn("config hot-reload disabled, fsnotify unavailable", "error", err)
		return
	}
	defer watcher.Close()

	dir := filepath.Join(l.repoPath, ".seraph")
	if err := watcher.Add(dir); err != nil {
		l.log.Warn("config hot-reload disabled, cannot watch directory", "dir", dir, "error", err)
		return
	}

	target := filepath.Join(dir, "config.toml")
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(250*time.Millisecond, l.reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.log.Warn("config watcher error", "error", err)
		}
	}
}
