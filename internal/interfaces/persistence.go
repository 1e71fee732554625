// Package interfaces defines the collaborator contracts the workspace core
// consumes. The core never talks to storage, transport or import machinery
// directly; it goes through these.
package interfaces

import (
	"context"
	"errors"

	"github.com/d-elbel/curlew/internal/core"
)

var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreClosed is returned when an operation hits a closed store.
	ErrStoreClosed = errors.New("store is closed")
)

// Persistence is the durable storage collaborator for requests and
// collections.
type Persistence interface {
	// ListRequests returns all requests (list fields only; no cached
	// responses).
	ListRequests(ctx context.Context) ([]*core.Request, error)

	// ListCollections returns all collections.
	ListCollections(ctx context.Context) ([]*core.Collection, error)

	// GetRequest retrieves a request with its full detail, including the most
	// recent cached response if one exists.
	GetRequest(ctx context.Context, id string) (*core.Request, error)

	// CreateRequest persists a new request and returns the stored record.
	CreateRequest(ctx context.Context, r *core.Request) (*core.Request, error)

	// UpdateRequest persists changes to an existing request and returns the
	// stored record.
	UpdateRequest(ctx context.Context, r *core.Request) (*core.Request, error)

	// DeleteRequest removes a request.
	DeleteRequest(ctx context.Context, id string) error

	// SearchRequests finds requests whose name, URL or body match the term.
	SearchRequests(ctx context.Context, term string) ([]*core.Request, error)

	// CreateCollection persists a new collection.
	CreateCollection(ctx context.Context, name, description string, parentID *string) (*core.Collection, error)

	// DeleteCollection removes a collection. Its child collections and
	// requests are orphaned to the root, never deleted.
	DeleteCollection(ctx context.Context, id string) error

	// SetRequestCollection moves a request into a collection, or to
	// uncategorized when collectionID is nil.
	SetRequestCollection(ctx context.Context, id string, collectionID *string) error

	// SetRequestSortOrder assigns an explicit position within the request's
	// sort scope.
	SetRequestSortOrder(ctx context.Context, id string, index int) error

	// SetCollectionParent re-parents a collection, or moves it to the root
	// when parentID is nil.
	SetCollectionParent(ctx context.Context, id string, parentID *string) error

	// SaveResponse attaches an execution result to a request.
	SaveResponse(ctx context.Context, requestID string, resp *core.Response) error
}

// EnvironmentSource lists the environment files available for variable
// resolution.
type EnvironmentSource interface {
	ListEnvironments(ctx context.Context) ([]*core.EnvironmentFile, error)
}

// ExecutionPlan is a fully resolved request ready for transport: placeholders
// substituted, headers normalized, body encoded.
type ExecutionPlan struct {
	Method      string
	URL         string
	Headers     []core.HeaderPair
	Body        string
	ContentType string
	Auth        string
}

// Executor is the black-box transport collaborator. A transport failure is
// returned as an error; the core surfaces its message and does not retry.
type Executor interface {
	Execute(ctx context.Context, plan ExecutionPlan) (*core.Response, error)
}

// Importer parses an external collection export and creates the corresponding
// collections and requests. Malformed input fails with a parse error surfaced
// verbatim to the caller.
type Importer interface {
	ImportBundle(ctx context.Context, serialized string) error
}
