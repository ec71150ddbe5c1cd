package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/trebuchet-org/rtt/internal/domain/config"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

const defaultNotifyDebounce = 200 * time.Millisecond

// NotifierAdapter turns filesystem events on watched paths into wake-ups for
// the watch loop. Parent directories are watched rather than the files
// themselves so files that are replaced on save, or created later, still
// produce events.
type NotifierAdapter struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	paths    map[string]struct{}
	wake     chan struct{}
	debounce time.Duration
	log      *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewNotifierAdapter creates a new NotifierAdapter
func NewNotifierAdapter(cfg *config.RuntimeConfig, log *slog.Logger) *NotifierAdapter {
	return &NotifierAdapter{
		paths:    make(map[string]struct{}),
		wake:     make(chan struct{}, 1),
		debounce: lo.Ternary(cfg.Watch.NotifyDebounce > 0, cfg.Watch.NotifyDebounce, defaultNotifyDebounce),
		log:      log.With("component", "notifier"),
	}
}

// Watch starts watching the parent directories of paths. It does not block.
func (n *NotifierAdapter) Watch(ctx context.Context, paths []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = filepath.Clean(p)
		}
		n.paths[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	added := 0
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			n.log.Debug("cannot watch directory", "dir", dir, "error", err)
			continue
		}
		added++
	}
	if added == 0 && len(dirs) > 0 {
		watcher.Close()
		return fmt.Errorf("none of the %d watched directories could be added", len(dirs))
	}

	n.watcher = watcher
	n.stopCh = make(chan struct{})
	n.doneCh = make(chan struct{})
	n.running = true

	go n.run(ctx, watcher, n.stopCh, n.doneCh)
	return nil
}

// Wake returns the channel signalled after a burst of relevant events
func (n *NotifierAdapter) Wake() <-chan struct{} {
	return n.wake
}

// Close stops the watcher and waits for its goroutine to exit
func (n *NotifierAdapter) Close() error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil
	}
	n.running = false
	stopCh, doneCh, watcher := n.stopCh, n.doneCh, n.watcher
	n.mu.Unlock()

	close(stopCh)
	<-doneCh
	return watcher.Close()
}

func (n *NotifierAdapter) run(ctx context.Context, watcher *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	timer := time.NewTimer(n.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !n.relevant(event) {
				continue
			}
			n.log.Debug("file event", "path", event.Name, "op", event.Op.String())
			timer.Reset(n.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			n.log.Warn("file watcher error", "error", err)
		case <-timer.C:
			select {
			case n.wake <- struct{}{}:
			default:
			}
		}
	}
}

func (n *NotifierAdapter) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	_, ok := n.paths[filepath.Clean(event.Name)]
	return ok
}

// Ensure the adapter implements the interface
var _ usecase.ChangeNotifier = (*NotifierAdapter)(nil)
