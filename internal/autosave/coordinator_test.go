package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSave records save invocations and optionally blocks or fails.
type countingSave struct {
	mu    sync.Mutex
	calls []string
	err   error
	gate  chan struct{}
}

func (s *countingSave) fn(ctx context.Context, id string) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, id)
	return s.err
}

func (s *countingSave) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func TestEditDebounce(t *testing.T) {
	t.Run("rapid edits collapse into one save", func(t *testing.T) {
		save := &countingSave{}
		c := New(30*time.Millisecond, save.fn, nil)
		ctx := context.Background()

		for i := 0; i < 5; i++ {
			c.Edit(ctx, "r1")
			time.Sleep(5 * time.Millisecond)
		}

		waitFor(t, func() bool { return save.count() == 1 })
		time.Sleep(60 * time.Millisecond)
		assert.Equal(t, 1, save.count())
	})

	t.Run("edits after the window fire separate saves", func(t *testing.T) {
		save := &countingSave{}
		c := New(20*time.Millisecond, save.fn, nil)
		ctx := context.Background()

		c.Edit(ctx, "r1")
		waitFor(t, func() bool { return save.count() == 1 })
		c.Edit(ctx, "r1")
		waitFor(t, func() bool { return save.count() == 2 })
	})

	t.Run("entities debounce independently", func(t *testing.T) {
		save := &countingSave{}
		c := New(20*time.Millisecond, save.fn, nil)
		ctx := context.Background()

		c.Edit(ctx, "r1")
		c.Edit(ctx, "r2")

		waitFor(t, func() bool { return save.count() == 2 })
	})
}

func TestSuppression(t *testing.T) {
	t.Run("hydration swallows the first edit", func(t *testing.T) {
		save := &countingSave{}
		c := New(20*time.Millisecond, save.fn, nil)
		ctx := context.Background()

		c.Hydrate("r1")
		c.Edit(ctx, "r1")

		time.Sleep(60 * time.Millisecond)
		assert.Zero(t, save.count())

		// The next real edit saves normally.
		c.Edit(ctx, "r1")
		waitFor(t, func() bool { return save.count() == 1 })
	})

	t.Run("save echo swallows exactly one edit", func(t *testing.T) {
		save := &countingSave{}
		c := New(20*time.Millisecond, save.fn, nil)
		ctx := context.Background()

		c.Edit(ctx, "r1")
		waitFor(t, func() bool { return save.count() == 1 })

		// The editor syncing the saved record back fires one change event.
		c.Edit(ctx, "r1")
		time.Sleep(60 * time.Millisecond)
		assert.Equal(t, 1, save.count())
		assert.False(t, c.Dirty("r1"))
	})
}

func TestStaleSaveDiscard(t *testing.T) {
	save := &countingSave{gate: make(chan struct{})}
	c := New(10*time.Millisecond, save.fn, nil)
	ctx := context.Background()

	c.Edit(ctx, "r1")
	// Let the timer fire; the save blocks on the gate.
	time.Sleep(30 * time.Millisecond)

	// A newer edit lands while the save is in flight.
	c.Edit(ctx, "r1")
	close(save.gate)

	// The completed save covered the old version, so the entity stays dirty
	// until the newer edit's save lands too.
	waitFor(t, func() bool { return save.count() == 2 })
	waitFor(t, func() bool { return !c.Dirty("r1") })
}

func TestFlush(t *testing.T) {
	t.Run("saves immediately when dirty", func(t *testing.T) {
		save := &countingSave{}
		c := New(time.Hour, save.fn, nil)
		ctx := context.Background()

		c.Edit(ctx, "r1")
		require.True(t, c.Dirty("r1"))

		c.Flush(ctx, "r1")
		assert.Equal(t, 1, save.count())
		assert.False(t, c.Dirty("r1"))
	})

	t.Run("clean entity is not saved", func(t *testing.T) {
		save := &countingSave{}
		c := New(time.Hour, save.fn, nil)

		c.Flush(context.Background(), "r1")
		assert.Zero(t, save.count())
	})
}

func TestDetach(t *testing.T) {
	save := &countingSave{}
	c := New(20*time.Millisecond, save.fn, nil)
	ctx := context.Background()

	c.Edit(ctx, "r1")
	c.Detach("r1")

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, save.count())
	assert.False(t, c.Dirty("r1"))
}

func TestFailedSaveStaysDirty(t *testing.T) {
	save := &countingSave{err: errors.New("disk full")}
	c := New(10*time.Millisecond, save.fn, nil)
	ctx := context.Background()

	c.Edit(ctx, "r1")
	waitFor(t, func() bool { return save.count() == 1 })
	assert.True(t, c.Dirty("r1"))
}
