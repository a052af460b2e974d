// Package controller owns the current ledger snapshot. It runs the loader
// and evaluator on startup and after every file change, then swaps the
// snapshot atomically: readers always see either the old or the new state,
// never a partial one.
//
// Scheduling is single-writer, multi-reader. Builds run on the debounce
// timer's goroutine (never on the reader path), file events are debounced and
// coalesced, and when builds overlap logically the most recently completed
// snapshot wins.
package controller

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/KushNee/zhang/ledger"
	"github.com/KushNee/zhang/loader"
	"github.com/KushNee/zhang/telemetry"
)

// debounceDelay coalesces rapid event bursts (editor save + backup, atomic
// rename sequences) into one rebuild.
const debounceDelay = 250 * time.Millisecond

// Controller loads, watches, and serves a ledger.
type Controller struct {
	rootFile string
	watch    bool

	mu       sync.RWMutex
	snapshot *ledger.Snapshot
	version  uint64
	files    []string
	changed  chan struct{}

	watcher *fsnotify.Watcher

	subMu       sync.Mutex
	subscribers map[chan uint64]struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithoutWatch disables the filesystem watcher; rebuilds then only happen
// through explicit Rebuild calls.
func WithoutWatch() Option {
	return func(c *Controller) { c.watch = false }
}

// New creates a controller for the ledger rooted at the given file.
func New(rootFile string, opts ...Option) *Controller {
	c := &Controller{
		rootFile:    rootFile,
		watch:       true,
		changed:     make(chan struct{}),
		subscribers: make(map[chan uint64]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start performs the initial build and, when watching is enabled, starts the
// filesystem watcher goroutine. The initial build must succeed; afterwards a
// failing rebuild keeps the previous snapshot in place.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.Rebuild(ctx); err != nil {
		return err
	}

	if !c.watch {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	c.watcher = watcher

	c.mu.RLock()
	files := append([]string(nil), c.files...)
	c.mu.RUnlock()
	for _, file := range files {
		if err := watcher.Add(file); err != nil {
			log.Printf("warning: failed to watch %s: %v", file, err)
		}
	}

	go c.runWatcher(ctx)
	return nil
}

// Snapshot returns the current snapshot. The returned value is immutable.
func (c *Controller) Snapshot() *ledger.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Version returns the current snapshot version.
func (c *Controller) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Rebuild runs the loader and evaluator and swaps in the produced snapshot.
// An I/O failure leaves the previous snapshot in place and is returned.
func (c *Controller) Rebuild(ctx context.Context) error {
	timer := telemetry.FromContext(ctx).Start("controller.rebuild")
	defer timer.End()

	result, err := loader.New().Load(ctx, c.rootFile)
	if err != nil {
		return err
	}

	l := ledger.New()
	l.AddErrors(result.Errs...)
	l.Process(ctx, result.AST)
	snapshot := l.Snapshot()

	files := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		files = append(files, f.Path)
	}

	c.swap(snapshot, files)
	return nil
}

// WaitForVersion blocks until the snapshot version exceeds after, returning
// the new snapshot. Mutation callers use it to observe their own write.
func (c *Controller) WaitForVersion(ctx context.Context, after uint64) (*ledger.Snapshot, error) {
	for {
		c.mu.RLock()
		snapshot, version, changed := c.snapshot, c.version, c.changed
		c.mu.RUnlock()

		if version > after {
			return snapshot, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-changed:
		}
	}
}

// Subscribe returns a channel receiving the version of every new snapshot.
func (c *Controller) Subscribe() chan uint64 {
	ch := make(chan uint64, 8)
	c.subMu.Lock()
	c.subscribers[ch] = struct{}{}
	c.subMu.Unlock()
	return ch
}

// Unsubscribe removes a subscription channel.
func (c *Controller) Unsubscribe(ch chan uint64) {
	c.subMu.Lock()
	delete(c.subscribers, ch)
	c.subMu.Unlock()
}

// Close shuts the watcher down.
func (c *Controller) Close() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

// swap publishes a new snapshot and wakes waiters and subscribers.
func (c *Controller) swap(snapshot *ledger.Snapshot, files []string) {
	c.mu.Lock()
	c.version++
	snapshot.Version = c.version
	c.snapshot = snapshot
	c.files = files
	version := c.version
	close(c.changed)
	c.changed = make(chan struct{})
	c.mu.Unlock()

	c.subMu.Lock()
	for ch := range c.subscribers {
		select {
		case ch <- version:
		default:
			// Subscriber buffer full, skip
		}
	}
	c.subMu.Unlock()
}

// runWatcher processes filesystem events with debouncing. Editors often
// write files in several steps; remove/rename events are common in atomic
// saves, so the watch list is refreshed after every rebuild.
func (c *Controller) runWatcher(ctx context.Context) {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
		_ = c.watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				c.handleChange(ctx)
			})

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("file watcher error: %v", err)
		}
	}
}

// handleChange rebuilds the ledger and refreshes the watch list, since the
// include set may have changed.
func (c *Controller) handleChange(ctx context.Context) {
	c.mu.RLock()
	old := make(map[string]bool, len(c.files))
	for _, f := range c.files {
		old[f] = true
	}
	c.mu.RUnlock()

	if err := c.Rebuild(ctx); err != nil {
		log.Printf("rebuild failed, keeping previous snapshot: %v", err)
		return
	}

	c.mu.RLock()
	current := make(map[string]bool, len(c.files))
	for _, f := range c.files {
		current[f] = true
	}
	c.mu.RUnlock()

	for file := range old {
		if !current[file] {
			_ = c.watcher.Remove(file)
		}
	}
	// Re-add current files to catch re-created ones
	for file := range current {
		if err := c.watcher.Add(file); err != nil {
			log.Printf("warning: failed to watch %s: %v", file, err)
		}
	}
}
