package core

import (
	"time"

	"github.com/google/uuid"
)

// Collection is a named folder grouping requests and sub-collections. The
// parent reference forms a forest: collections are stored flat and the tree
// view is derived on demand. Cycle prevention happens at the single mutation
// point that changes a parent reference, not here.
type Collection struct {
	id          string
	name        string
	description string
	parentID    *string
	createdAt   time.Time
	updatedAt   time.Time
}

// NewCollection creates a new collection with the given name.
func NewCollection(name, description string, parentID *string) *Collection {
	now := time.Now()
	return &Collection{
		id:          uuid.New().String(),
		name:        name,
		description: description,
		parentID:    parentID,
		createdAt:   now,
		updatedAt:   now,
	}
}

// NewCollectionWithID creates a collection with a specific ID (for loading
// from storage).
func NewCollectionWithID(id, name string) *Collection {
	c := NewCollection(name, "", nil)
	c.id = id
	return c
}

func (c *Collection) ID() string           { return c.id }
func (c *Collection) Name() string         { return c.name }
func (c *Collection) Description() string  { return c.description }
func (c *Collection) CreatedAt() time.Time { return c.createdAt }
func (c *Collection) UpdatedAt() time.Time { return c.updatedAt }

// ParentID returns the parent collection ID, or nil for a root collection.
func (c *Collection) ParentID() *string { return c.parentID }

func (c *Collection) SetName(name string) {
	c.name = name
	c.touch()
}

func (c *Collection) SetDescription(desc string) {
	c.description = desc
	c.touch()
}

func (c *Collection) SetParentID(id *string) {
	c.parentID = id
	c.touch()
}

// SetTimestamps sets created and updated timestamps (for loading from storage).
func (c *Collection) SetTimestamps(created, updated time.Time) {
	c.createdAt = created
	c.updatedAt = updated
}

func (c *Collection) touch() {
	c.updatedAt = time.Now()
}

// Clone creates a copy of the collection.
func (c *Collection) Clone() *Collection {
	clone := *c
	if c.parentID != nil {
		id := *c.parentID
		clone.parentID = &id
	}
	return &clone
}
