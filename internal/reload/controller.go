// Package reload implements the ReloadController: the reader-preferred
// RWMutex-guarded state machine that rebuilds and atomically hot-swaps a
// dataset generation.
package reload

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dearrowbrowser.dev/server/internal/ingest"
	"dearrowbrowser.dev/server/internal/snapshot"
	"dearrowbrowser.dev/server/internal/stringpool"
)

// Controller owns the live (pool, snapshot) pair and serializes reloads.
// Readers take Current() under a read lock; a reload briefly takes a write
// lock twice (to claim the "updating" flag, and to publish), doing the
// actual ingestion work in between without holding any lock.
type Controller struct {
	mu sync.RWMutex

	pool        *stringpool.Pool
	snap        *snapshot.Snapshot
	updatingNow bool
	lastError   error

	mirrorDir string
}

// NewController returns a Controller with no snapshot yet published; call
// Load once before serving traffic.
func NewController(mirrorDir string) *Controller {
	return &Controller{pool: stringpool.New(), mirrorDir: mirrorDir}
}

// Current returns the live pool and snapshot. Safe for concurrent use with
// Reload; never blocks a reload in progress and is never blocked by one for
// longer than the two short critical sections around the rebuild.
func (c *Controller) Current() (*stringpool.Pool, *snapshot.Snapshot) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pool, c.snap
}

// Status reports whether a reload is in flight and the most recent fatal
// load error, if any.
func (c *Controller) Status() (updatingNow bool, lastError error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatingNow, c.lastError
}

// Load performs a synchronous rebuild, for use at startup before the server
// begins accepting requests.
func (c *Controller) Load() error {
	return c.doReload()
}

// Reload runs a rebuild on its own goroutine and blocks until it finishes —
// the caller's goroutine is not pinned to any OS thread doing CSV parsing,
// but from the HTTP handler's perspective this call behaves synchronously,
// mirroring the original server's `spawn_blocking(...).await`.
func (c *Controller) Reload() error {
	done := make(chan error, 1)
	go func() { done <- c.doReload() }()
	return <-done
}

func (c *Controller) doReload() error {
	c.mu.Lock()
	if c.updatingNow {
		c.mu.Unlock()
		return fmt.Errorf("already updating")
	}
	c.updatingNow = true
	c.mu.Unlock()

	c.mu.RLock()
	poolClone := c.pool.Clone()
	c.mu.RUnlock()

	paths := ingest.DirPaths(c.mirrorDir)
	result, err := ingest.Load(poolClone, paths)
	if err != nil {
		c.mu.Lock()
		c.updatingNow = false
		c.lastError = err
		c.mu.Unlock()
		return err
	}

	lastUpdated := time.Now().UnixMilli()
	lastModified := mtimeMillis(filepath.Join(c.mirrorDir, "titles.csv"))
	snap := snapshot.Build(poolClone, result, lastUpdated, lastModified)

	c.mu.Lock()
	c.pool = poolClone
	c.snap = snap
	c.updatingNow = false
	c.lastError = nil
	// Prune while still holding the write lock: readers must never observe
	// the published pool mid-sweep.
	poolClone.Prune(snap.Reachable)
	c.mu.Unlock()

	return nil
}

// mtimeMillis returns path's modification time in Unix milliseconds, or 0 if
// it cannot be stat'd, matching the original's lenient get_mtime helper.
func mtimeMillis(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().UnixMilli()
}
