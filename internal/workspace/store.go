// Package workspace is the aggregate root: it owns the in-memory view of
// requests, collections and environments, and coordinates persistence,
// execution, autosave and drag gestures.
package workspace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/d-elbel/curlew/internal/autosave"
	"github.com/d-elbel/curlew/internal/classify"
	"github.com/d-elbel/curlew/internal/core"
	"github.com/d-elbel/curlew/internal/dragdrop"
	"github.com/d-elbel/curlew/internal/interfaces"
	"github.com/d-elbel/curlew/internal/interpolate"
	"github.com/d-elbel/curlew/internal/tree"
)

// ExecutionResult is an executed response plus its display classification.
type ExecutionResult struct {
	Response      *core.Response
	Kind          classify.Kind
	FormattedBody string
}

// Store holds the workspace state. All reads serve from memory; every
// mutation writes through to persistence and the in-memory view follows.
type Store struct {
	mu           sync.RWMutex
	requests     []*core.Request
	collections  []*core.Collection
	environments []*core.EnvironmentFile
	activeEnv    string

	persist  interfaces.Persistence
	envs     interfaces.EnvironmentSource
	executor interfaces.Executor
	importer interfaces.Importer

	saver   *autosave.Coordinator
	dragger *dragdrop.Coordinator
	logger  hclog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithExecutor sets the transport used by Execute.
func WithExecutor(executor interfaces.Executor) Option {
	return func(s *Store) { s.executor = executor }
}

// WithImporter sets the bundle importer.
func WithImporter(imp interfaces.Importer) Option {
	return func(s *Store) { s.importer = imp }
}

// WithAutosaveDelay overrides the debounce window.
func WithAutosaveDelay(delay time.Duration) Option {
	return func(s *Store) {
		s.saver = autosave.New(delay, s.saveForAutosave, s.logger)
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(s *Store) { s.logger = logger.Named("workspace") }
}

// New creates a workspace store over the given collaborators.
func New(persist interfaces.Persistence, envs interfaces.EnvironmentSource, opts ...Option) *Store {
	s := &Store{
		persist: persist,
		envs:    envs,
		logger:  hclog.NewNullLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.saver == nil {
		s.saver = autosave.New(autosave.DefaultDelay, s.saveForAutosave, s.logger)
	}
	s.dragger = dragdrop.New(persist, s.Collections, s.LoadAll)

	return s
}

// LoadAll replaces the in-memory state with a fresh read of everything.
func (s *Store) LoadAll(ctx context.Context) error {
	requests, err := s.persist.ListRequests(ctx)
	if err != nil {
		return fmt.Errorf("failed to load requests: %w", err)
	}
	collections, err := s.persist.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to load collections: %w", err)
	}

	var environments []*core.EnvironmentFile
	if s.envs != nil {
		environments, err = s.envs.ListEnvironments(ctx)
		if err != nil {
			// A broken environments directory should not take the whole
			// workspace down.
			s.logger.Warn("failed to load environments", "error", err)
			environments = nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = requests
	s.collections = collections
	s.environments = environments
	if s.activeEnv != "" && s.findEnvironment(s.activeEnv) == nil {
		s.logger.Info("active environment disappeared, deactivating", "name", s.activeEnv)
		s.activeEnv = ""
	}
	return nil
}

// Requests returns the current flat request list.
func (s *Store) Requests() []*core.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*core.Request, len(s.requests))
	copy(result, s.requests)
	return result
}

// Collections returns the current flat collection list.
func (s *Store) Collections() []*core.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*core.Collection, len(s.collections))
	copy(result, s.collections)
	return result
}

// Tree derives the collection tree from the flat list.
func (s *Store) Tree() []*tree.Node {
	return tree.Build(s.Collections())
}

// RequestsIn returns the requests in a collection, in display order.
func (s *Store) RequestsIn(collectionID string) []*core.Request {
	return s.requestsInScope(&collectionID)
}

// Uncategorized returns the requests outside any collection, in display order.
func (s *Store) Uncategorized() []*core.Request {
	return s.requestsInScope(nil)
}

func (s *Store) requestsInScope(collectionID *string) []*core.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scoped []*core.Request
	for _, r := range s.requests {
		if sameScope(r.CollectionID(), collectionID) {
			scoped = append(scoped, r)
		}
	}
	return tree.OrderRequests(scoped)
}

// GetRequest loads the full request detail, including the latest cached
// response.
func (s *Store) GetRequest(ctx context.Context, id string) (*core.Request, error) {
	return s.persist.GetRequest(ctx, id)
}

// SearchRequests finds requests matching the term.
func (s *Store) SearchRequests(ctx context.Context, term string) ([]*core.Request, error) {
	return s.persist.SearchRequests(ctx, term)
}

// SaveRequest writes the request through to persistence, creating it when it
// is not yet stored, and upserts it into the in-memory list.
func (s *Store) SaveRequest(ctx context.Context, r *core.Request) (*core.Request, error) {
	stored, err := s.persist.UpdateRequest(ctx, r)
	if err == interfaces.ErrNotFound {
		stored, err = s.persist.CreateRequest(ctx, r)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.requests {
		if existing.ID() == stored.ID() {
			s.requests[i] = stored
			return stored, nil
		}
	}
	s.requests = append(s.requests, stored)
	return stored, nil
}

// DeleteRequest removes a request everywhere.
func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	if err := s.persist.DeleteRequest(ctx, id); err != nil {
		return err
	}
	s.saver.Detach(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.requests {
		if r.ID() == id {
			s.requests = append(s.requests[:i], s.requests[i+1:]...)
			break
		}
	}
	return nil
}

// CreateCollection creates a collection and adds it to the in-memory list.
func (s *Store) CreateCollection(ctx context.Context, name, description string, parentID *string) (*core.Collection, error) {
	c, err := s.persist.CreateCollection(ctx, name, description, parentID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.collections = append(s.collections, c)
	s.mu.Unlock()
	return c, nil
}

// DeleteCollection removes a collection. Children are orphaned by the store;
// the full state is reloaded so the view reflects the re-rooted entities.
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	if err := s.persist.DeleteCollection(ctx, id); err != nil {
		return err
	}
	return s.LoadAll(ctx)
}

// Environments returns the loaded environment files.
func (s *Store) Environments() []*core.EnvironmentFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*core.EnvironmentFile, len(s.environments))
	copy(result, s.environments)
	return result
}

// SetActiveEnvironment selects the environment used for variable resolution.
// An empty name deactivates resolution entirely.
func (s *Store) SetActiveEnvironment(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" && s.findEnvironment(name) == nil {
		return interfaces.ErrNotFound
	}
	s.activeEnv = name
	return nil
}

// ActiveEnvironment returns the active environment name, or "".
func (s *Store) ActiveEnvironment() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeEnv
}

// ActiveVariables returns the variable map of the active environment. With no
// active environment the map is empty, so placeholders resolve to themselves.
func (s *Store) ActiveVariables() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	env := s.findEnvironment(s.activeEnv)
	if env == nil {
		return map[string]string{}
	}
	return env.Variables()
}

// Resolve substitutes active-environment variables into the input.
func (s *Store) Resolve(input string) string {
	return interpolate.Resolve(input, s.ActiveVariables())
}

// HydrateRequest tells the autosave machinery the request was just loaded
// into an editor.
func (s *Store) HydrateRequest(id string) {
	s.saver.Hydrate(id)
}

// NotifyEdit records an edit for debounced autosaving.
func (s *Store) NotifyEdit(ctx context.Context, id string) {
	s.saver.Edit(ctx, id)
}

// FlushEdits saves the request immediately if it has unsaved edits.
func (s *Store) FlushEdits(ctx context.Context, id string) {
	s.saver.Flush(ctx, id)
}

// DragDrop exposes the gesture coordinator wired to this workspace.
func (s *Store) DragDrop() *dragdrop.Coordinator {
	return s.dragger
}

// Execute resolves the request against the active environment, sends it, and
// caches the response. The result carries the classified and formatted body
// ready for display.
func (s *Store) Execute(ctx context.Context, id string) (*ExecutionResult, error) {
	if s.executor == nil {
		return nil, fmt.Errorf("no executor configured")
	}

	r, err := s.findRequest(id)
	if err != nil {
		return nil, err
	}

	plan, err := s.buildPlan(r)
	if err != nil {
		return nil, err
	}

	resp, err := s.executor.Execute(ctx, plan)
	if err != nil {
		return nil, err
	}

	if err := s.persist.SaveResponse(ctx, id, resp); err != nil {
		s.logger.Warn("failed to cache response", "request", id, "error", err)
	}
	r.SetLastResponse(resp)

	kind := classify.Detect(responseContentType(resp), resp.Body())
	return &ExecutionResult{
		Response:      resp,
		Kind:          kind,
		FormattedBody: classify.Format(resp.Body(), kind),
	}, nil
}

// Import runs the configured importer over a serialized bundle and reloads.
func (s *Store) Import(ctx context.Context, serialized string) error {
	if s.importer == nil {
		return fmt.Errorf("no importer configured")
	}
	if err := s.importer.ImportBundle(ctx, serialized); err != nil {
		return err
	}
	return s.LoadAll(ctx)
}

// buildPlan turns a request into a fully resolved execution plan: variables
// substituted in the URL, header keys and values, and the body.
func (s *Store) buildPlan(r *core.Request) (interfaces.ExecutionPlan, error) {
	vars := s.ActiveVariables()

	pairs, err := r.Headers().Normalize()
	if err != nil {
		return interfaces.ExecutionPlan{}, err
	}
	resolved := make([]core.HeaderPair, len(pairs))
	for i, pair := range pairs {
		resolved[i] = core.HeaderPair{
			Key:   interpolate.Resolve(pair.Key, vars),
			Value: interpolate.Resolve(pair.Value, vars),
		}
	}

	body, err := r.Body().Encode()
	if err != nil {
		return interfaces.ExecutionPlan{}, err
	}

	return interfaces.ExecutionPlan{
		Method:      r.Method().String(),
		URL:         interpolate.Resolve(r.URL(), vars),
		Headers:     resolved,
		Body:        interpolate.Resolve(body, vars),
		ContentType: r.Body().ContentType(),
		Auth:        interpolate.Resolve(r.Auth(), vars),
	}, nil
}

// saveForAutosave is the autosave callback: persist the in-memory request as
// it stands now.
func (s *Store) saveForAutosave(ctx context.Context, id string) error {
	r, err := s.findRequest(id)
	if err != nil {
		return err
	}
	_, err = s.SaveRequest(ctx, r)
	return err
}

func (s *Store) findRequest(id string) (*core.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.ID() == id {
			return r, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

// findEnvironment must be called with the lock held.
func (s *Store) findEnvironment(name string) *core.EnvironmentFile {
	for _, env := range s.environments {
		if env.Name() == name {
			return env
		}
	}
	return nil
}

// responseContentType pulls Content-Type out of the cached header JSON.
func responseContentType(resp *core.Response) string {
	headers := resp.Headers()
	if headers == "" {
		return ""
	}
	return headerFromJSON(headers, "Content-Type")
}

func sameScope(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
