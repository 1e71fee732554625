// Package dragdrop interprets drag gestures over the sidebar into re-parent,
// move and reorder mutations, and guards the structural invariants of the
// collection forest.
package dragdrop

import (
	"context"
	"errors"
	"sync"

	"github.com/d-elbel/curlew/internal/core"
	"github.com/d-elbel/curlew/internal/interfaces"
)

// SubjectType identifies what is being dragged.
type SubjectType string

const (
	SubjectRequest    SubjectType = "request"
	SubjectCollection SubjectType = "collection"
)

// TargetType identifies what a gesture was dropped onto.
type TargetType string

const (
	TargetCollection    TargetType = "collection"
	TargetUncategorized TargetType = "uncategorized"
	TargetReorderSlot   TargetType = "reorder-slot"
)

// State is the phase of the single in-flight gesture.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateApplying
)

// Subject captures the dragged entity at gesture start. For requests the
// current collection scope and sibling position are captured so reorder drops
// can be validated against them.
type Subject struct {
	Type         SubjectType
	ID           string
	CollectionID *string
	// Position is the request's index among its scope siblings when the
	// gesture started.
	Position int
}

// Target is a resolved drop location.
type Target struct {
	Type TargetType
	// ID is the target collection for collection drops.
	ID string
	// ScopeID is the collection scope of a reorder slot (nil means the
	// uncategorized scope).
	ScopeID *string
	// Index is the slot position for reorders: 0 is before the first item, N
	// is after the last.
	Index int
}

// MoveIntent is the resolved semantic meaning of a completed gesture. It is
// consumed exactly once and never persisted.
type MoveIntent struct {
	SubjectType SubjectType
	SubjectID   string
	TargetType  TargetType
	TargetID    *string
	TargetIndex int
}

var (
	// ErrGestureInProgress is returned when a drag starts while another
	// gesture is still being applied.
	ErrGestureInProgress = errors.New("a drag gesture is already in progress")

	// ErrNoGesture is returned when a drop arrives with no active gesture.
	ErrNoGesture = errors.New("no drag gesture in progress")
)

// Coordinator runs the single-gesture state machine. Illegal or no-op drops
// are silently ignored: no mutation, no persistence call.
type Coordinator struct {
	mu          sync.Mutex
	state       State
	subject     Subject
	persist     interfaces.Persistence
	collections func() []*core.Collection
	reload      func(ctx context.Context) error
}

// New creates a coordinator. collections supplies the current flat collection
// snapshot for cycle checks; reload is invoked after every successful
// mutation so ordering and parent links are re-derived from storage.
func New(persist interfaces.Persistence, collections func() []*core.Collection, reload func(ctx context.Context) error) *Coordinator {
	return &Coordinator{
		persist:     persist,
		collections: collections,
		reload:      reload,
	}
}

// State returns the current gesture phase.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins a gesture for the given subject.
func (c *Coordinator) Start(subject Subject) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrGestureInProgress
	}
	c.state = StateDragging
	c.subject = subject
	return nil
}

// Cancel abandons the in-flight gesture, if any. A gesture that is already
// applying is not interrupted.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDragging {
		c.state = StateIdle
		c.subject = Subject{}
	}
}

// Drop completes the gesture against the given target. A legal drop emits
// exactly one persistence mutation followed by a full reload; anything else
// returns to idle without side effects. The returned intent is nil when the
// drop was a no-op.
func (c *Coordinator) Drop(ctx context.Context, target *Target) (*MoveIntent, error) {
	c.mu.Lock()
	if c.state != StateDragging {
		c.mu.Unlock()
		return nil, ErrNoGesture
	}
	subject := c.subject
	intent := c.resolve(subject, target)
	if intent == nil {
		c.state = StateIdle
		c.subject = Subject{}
		c.mu.Unlock()
		return nil, nil
	}
	c.state = StateApplying
	c.mu.Unlock()

	err := c.apply(ctx, intent)

	c.mu.Lock()
	c.state = StateIdle
	c.subject = Subject{}
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return intent, nil
}

// resolve validates the gesture and computes its intent. Nil means no-op.
func (c *Coordinator) resolve(subject Subject, target *Target) *MoveIntent {
	if target == nil {
		return nil
	}

	switch subject.Type {
	case SubjectRequest:
		return c.resolveRequestDrop(subject, target)
	case SubjectCollection:
		return c.resolveCollectionDrop(subject, target)
	default:
		return nil
	}
}

func (c *Coordinator) resolveRequestDrop(subject Subject, target *Target) *MoveIntent {
	switch target.Type {
	case TargetCollection, TargetUncategorized:
		var targetID *string
		if target.Type == TargetCollection {
			id := target.ID
			targetID = &id
		}
		if sameScope(subject.CollectionID, targetID) {
			return nil
		}
		return &MoveIntent{
			SubjectType: SubjectRequest,
			SubjectID:   subject.ID,
			TargetType:  target.Type,
			TargetID:    targetID,
		}

	case TargetReorderSlot:
		// Cross-collection drops onto a slot are rejected outright, not
		// reinterpreted as a collection move.
		if !sameScope(subject.CollectionID, target.ScopeID) {
			return nil
		}
		// The request's own slot.
		if target.Index == subject.Position {
			return nil
		}
		return &MoveIntent{
			SubjectType: SubjectRequest,
			SubjectID:   subject.ID,
			TargetType:  TargetReorderSlot,
			TargetID:    target.ScopeID,
			TargetIndex: target.Index,
		}

	default:
		return nil
	}
}

func (c *Coordinator) resolveCollectionDrop(subject Subject, target *Target) *MoveIntent {
	switch target.Type {
	case TargetCollection:
		if target.ID == subject.ID {
			return nil
		}
		if c.isDescendant(target.ID, subject.ID) {
			return nil
		}
		id := target.ID
		return &MoveIntent{
			SubjectType: SubjectCollection,
			SubjectID:   subject.ID,
			TargetType:  TargetCollection,
			TargetID:    &id,
		}

	case TargetUncategorized:
		return &MoveIntent{
			SubjectType: SubjectCollection,
			SubjectID:   subject.ID,
			TargetType:  TargetUncategorized,
		}

	default:
		return nil
	}
}

// isDescendant reports whether candidate sits below ancestor in the current
// forest. The walk carries a visited set so malformed parent chains cannot
// loop.
func (c *Coordinator) isDescendant(candidate, ancestor string) bool {
	parents := make(map[string]*string)
	for _, col := range c.collections() {
		parents[col.ID()] = col.ParentID()
	}

	visited := make(map[string]bool)
	for id := candidate; ; {
		parent, ok := parents[id]
		if !ok || parent == nil || visited[id] {
			return false
		}
		if *parent == ancestor {
			return true
		}
		visited[id] = true
		id = *parent
	}
}

// apply emits the single mutation for the intent, then reloads.
func (c *Coordinator) apply(ctx context.Context, intent *MoveIntent) error {
	var err error
	switch {
	case intent.SubjectType == SubjectRequest && intent.TargetType == TargetReorderSlot:
		err = c.persist.SetRequestSortOrder(ctx, intent.SubjectID, intent.TargetIndex)
	case intent.SubjectType == SubjectRequest:
		err = c.persist.SetRequestCollection(ctx, intent.SubjectID, intent.TargetID)
	default:
		err = c.persist.SetCollectionParent(ctx, intent.SubjectID, intent.TargetID)
	}
	if err != nil {
		return err
	}
	return c.reload(ctx)
}

func sameScope(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
