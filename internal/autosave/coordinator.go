// Package autosave debounces edit notifications into trailing-edge saves and
// suppresses the feedback loops that hydration and save echoes would otherwise
// cause.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultDelay is the debounce window between the last edit and the save.
const DefaultDelay = time.Second

// SaveFunc persists the current state of the entity. It is called at most once
// per quiet period, with the latest state at fire time.
type SaveFunc func(ctx context.Context, id string) error

// entry tracks one watched entity.
type entry struct {
	timer *time.Timer
	// version counts edits; savedVersion is the version the last completed
	// save covered. The entity is dirty while they differ.
	version      uint64
	savedVersion uint64
	// suppressNext swallows exactly one edit notification: set on hydration
	// (the form population fires a change event) and again when a completed
	// save is synced back into the editor.
	suppressNext bool
}

// Coordinator schedules debounced saves per entity. All methods are safe for
// concurrent use.
type Coordinator struct {
	mu      sync.Mutex
	entries map[string]*entry
	delay   time.Duration
	save    SaveFunc
	logger  hclog.Logger
}

// New creates a coordinator with the given debounce delay; zero means
// DefaultDelay.
func New(delay time.Duration, save SaveFunc, logger hclog.Logger) *Coordinator {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Coordinator{
		entries: make(map[string]*entry),
		delay:   delay,
		save:    save,
		logger:  logger.Named("autosave"),
	}
}

// Hydrate registers an entity that was just loaded into the editor. The edit
// notification produced by populating the editor is swallowed instead of
// scheduling a save.
func (c *Coordinator) Hydrate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[id]
	if e == nil {
		e = &entry{}
		c.entries[id] = e
	} else if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.suppressNext = true
	e.savedVersion = e.version
}

// Edit records an edit to the entity. The save fires after the debounce window
// elapses with no further edits; every edit restarts the window.
func (c *Coordinator) Edit(ctx context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[id]
	if e == nil {
		e = &entry{}
		c.entries[id] = e
	}
	if e.suppressNext {
		e.suppressNext = false
		return
	}

	e.version++
	version := e.version
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(c.delay, func() {
		c.fire(ctx, id, version)
	})
}

// Flush saves the entity immediately if it is dirty, cancelling any pending
// timer. Used when the entity is about to leave the editor.
func (c *Coordinator) Flush(ctx context.Context, id string) {
	c.mu.Lock()
	e := c.entries[id]
	if e == nil || e.version == e.savedVersion {
		c.mu.Unlock()
		return
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	version := e.version
	c.mu.Unlock()

	c.runSave(ctx, id, version)
}

// Detach stops tracking the entity, discarding any pending save.
func (c *Coordinator) Detach(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e := c.entries[id]; e != nil && e.timer != nil {
		e.timer.Stop()
	}
	delete(c.entries, id)
}

// Dirty reports whether the entity has edits not yet covered by a completed
// save.
func (c *Coordinator) Dirty(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[id]
	return e != nil && e.version != e.savedVersion
}

// fire is the timer callback: skip if newer edits restarted the window.
func (c *Coordinator) fire(ctx context.Context, id string, version uint64) {
	c.mu.Lock()
	e := c.entries[id]
	if e == nil || e.version != version {
		c.mu.Unlock()
		return
	}
	e.timer = nil
	c.mu.Unlock()

	c.runSave(ctx, id, version)
}

// runSave performs the save and records its outcome. A save that completes
// after further edits landed is stale: it neither clears the dirty state nor
// arms the echo guard, so the newer edits still get their own save.
func (c *Coordinator) runSave(ctx context.Context, id string, version uint64) {
	if err := c.save(ctx, id); err != nil {
		c.logger.Warn("autosave failed, entity stays dirty", "id", id, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[id]
	if e == nil || e.version != version {
		return
	}
	e.savedVersion = version
	// Syncing the saved record back into the editor fires one more change
	// event; swallow it.
	e.suppressNext = true
}
