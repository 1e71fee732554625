// Package sqlite persists requests, collections and cached responses in a
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/d-elbel/curlew/internal/core"
	"github.com/d-elbel/curlew/internal/interfaces"
)

// Store implements interfaces.Persistence using SQLite.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// New creates a SQLite-backed store at the given path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// NewInMemory creates an in-memory store (useful for testing).
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS collections (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			parent_collection TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS requests (
			id TEXT PRIMARY KEY,
			collection_id TEXT,
			name TEXT NOT NULL,
			description TEXT,
			method TEXT NOT NULL,
			url TEXT NOT NULL,
			headers TEXT,
			body TEXT,
			body_type TEXT NOT NULL DEFAULT 'none',
			body_format TEXT,
			auth TEXT,
			sort_order INTEGER,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS responses (
			id TEXT PRIMARY KEY,
			request_id TEXT NOT NULL,
			status_code INTEGER NOT NULL,
			headers TEXT,
			body TEXT,
			runtime_ms INTEGER,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_requests_collection ON requests(collection_id);
		CREATE INDEX IF NOT EXISTS idx_collections_parent ON collections(parent_collection);
		CREATE INDEX IF NOT EXISTS idx_responses_request ON responses(request_id, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

const requestColumns = `id, collection_id, name, description, method, url,
	headers, body, body_type, body_format, auth, sort_order, created_at, updated_at`

// ListRequests returns all requests ordered by sort position. Cached responses
// are not loaded here.
func (s *Store) ListRequests(ctx context.Context) ([]*core.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, interfaces.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM requests ORDER BY sort_order IS NULL, sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*core.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, r)
	}

	return requests, rows.Err()
}

// ListCollections returns all collections.
func (s *Store) ListCollections(ctx context.Context) ([]*core.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, interfaces.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, parent_collection, created_at, updated_at
		FROM collections ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var collections []*core.Collection
	for rows.Next() {
		var (
			id, name         string
			description      sql.NullString
			parent           sql.NullString
			created, updated time.Time
		)
		if err := rows.Scan(&id, &name, &description, &parent, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		c := core.NewCollectionWithID(id, name)
		c.SetDescription(description.String)
		if parent.Valid {
			p := parent.String
			c.SetParentID(&p)
		}
		c.SetTimestamps(created, updated)
		collections = append(collections, c)
	}

	return collections, rows.Err()
}

// GetRequest retrieves a request with its most recent cached response.
func (s *Store) GetRequest(ctx context.Context, id string) (*core.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, interfaces.ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+`
		FROM requests WHERE id = ?
	`, id)

	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	var (
		status        int
		headers, body sql.NullString
		runtime       sql.NullInt64
	)
	err = s.db.QueryRowContext(ctx, `
		SELECT status_code, headers, body, runtime_ms
		FROM responses WHERE request_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1
	`, id).Scan(&status, &headers, &body, &runtime)
	if err == nil {
		r.SetLastResponse(core.NewResponse(status, headers.String, body.String, int(runtime.Int64)))
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get cached response: %w", err)
	}

	return r, nil
}

// CreateRequest persists a new request.
func (s *Store) CreateRequest(ctx context.Context, r *core.Request) (*core.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, interfaces.ErrStoreClosed
	}

	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	body, err := r.Body().Encode()
	if err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO requests (
			id, collection_id, name, description, method, url,
			headers, body, body_type, body_format, auth, sort_order, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID(), nullableString(r.CollectionID()), r.Name(), r.Description(),
		r.Method().String(), r.URL(), r.Headers().Encode(), body,
		string(r.Body().Type()), string(r.Body().Format()), r.Auth(),
		nullableInt(r.SortOrder()), r.CreatedAt(), r.UpdatedAt(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert request: %w", err)
	}

	return r.Clone(), nil
}

// UpdateRequest persists changes to an existing request.
func (s *Store) UpdateRequest(ctx context.Context, r *core.Request) (*core.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, interfaces.ErrStoreClosed
	}

	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	body, err := r.Body().Encode()
	if err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE requests SET
			collection_id = ?, name = ?, description = ?, method = ?, url = ?,
			headers = ?, body = ?, body_type = ?, body_format = ?, auth = ?,
			sort_order = ?, updated_at = ?
		WHERE id = ?
	`,
		nullableString(r.CollectionID()), r.Name(), r.Description(),
		r.Method().String(), r.URL(), r.Headers().Encode(), body,
		string(r.Body().Type()), string(r.Body().Format()), r.Auth(),
		nullableInt(r.SortOrder()), r.UpdatedAt(), r.ID(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, interfaces.ErrNotFound
	}

	return r.Clone(), nil
}

// DeleteRequest removes a request and its cached responses.
func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return interfaces.ErrStoreClosed
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM requests WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return interfaces.ErrNotFound
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM responses WHERE request_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete cached responses: %w", err)
	}

	return nil
}

// SearchRequests finds requests whose name, URL or body contain the term.
func (s *Store) SearchRequests(ctx context.Context, term string) ([]*core.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, interfaces.ErrStoreClosed
	}

	pattern := "%" + term + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM requests
		WHERE name LIKE ? OR url LIKE ? OR body LIKE ?
		ORDER BY sort_order IS NULL, sort_order, id
	`, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search requests: %w", err)
	}
	defer rows.Close()

	var requests []*core.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		requests = append(requests, r)
	}

	return requests, rows.Err()
}

// CreateCollection persists a new collection.
func (s *Store) CreateCollection(ctx context.Context, name, description string, parentID *string) (*core.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, interfaces.ErrStoreClosed
	}

	c := core.NewCollection(name, description, parentID)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (id, name, description, parent_collection, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID(), c.Name(), c.Description(), nullableString(c.ParentID()), c.CreatedAt(), c.UpdatedAt())
	if err != nil {
		return nil, fmt.Errorf("failed to insert collection: %w", err)
	}

	return c, nil
}

// DeleteCollection removes a collection. Child collections move to the root
// and member requests become uncategorized; nothing is deleted transitively.
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return interfaces.ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return interfaces.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE collections SET parent_collection = NULL WHERE parent_collection = ?", id); err != nil {
		return fmt.Errorf("failed to orphan child collections: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE requests SET collection_id = NULL WHERE collection_id = ?", id); err != nil {
		return fmt.Errorf("failed to orphan member requests: %w", err)
	}

	return tx.Commit()
}

// SetRequestCollection moves a request into a collection, or to uncategorized
// when collectionID is nil. The explicit sort position is cleared; the request
// joins the new scope at its fallback position.
func (s *Store) SetRequestCollection(ctx context.Context, id string, collectionID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return interfaces.ErrStoreClosed
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE requests SET collection_id = ?, sort_order = NULL, updated_at = ?
		WHERE id = ?
	`, nullableString(collectionID), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to move request: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

// SetRequestSortOrder places the request at the given index within its scope
// and renumbers its siblings densely.
func (s *Store) SetRequestSortOrder(ctx context.Context, id string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return interfaces.ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var collectionID sql.NullString
	err = tx.QueryRowContext(ctx, "SELECT collection_id FROM requests WHERE id = ?", id).Scan(&collectionID)
	if err == sql.ErrNoRows {
		return interfaces.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load request scope: %w", err)
	}

	// Siblings in their current display order, minus the subject.
	scopeClause := "collection_id IS NULL"
	var args []interface{}
	if collectionID.Valid {
		scopeClause = "collection_id = ?"
		args = append(args, collectionID.String)
	}
	args = append(args, id)

	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM requests WHERE `+scopeClause+` AND id != ?
		ORDER BY sort_order IS NULL, sort_order, id
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to list siblings: %w", err)
	}

	var siblings []string
	for rows.Next() {
		var sibling string
		if err := rows.Scan(&sibling); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan sibling: %w", err)
		}
		siblings = append(siblings, sibling)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to list siblings: %w", err)
	}

	if index < 0 {
		index = 0
	}
	if index > len(siblings) {
		index = len(siblings)
	}

	ordered := make([]string, 0, len(siblings)+1)
	ordered = append(ordered, siblings[:index]...)
	ordered = append(ordered, id)
	ordered = append(ordered, siblings[index:]...)

	for position, requestID := range ordered {
		if _, err := tx.ExecContext(ctx,
			"UPDATE requests SET sort_order = ? WHERE id = ?", position, requestID); err != nil {
			return fmt.Errorf("failed to renumber requests: %w", err)
		}
	}

	return tx.Commit()
}

// SetCollectionParent re-parents a collection, or moves it to the root when
// parentID is nil.
func (s *Store) SetCollectionParent(ctx context.Context, id string, parentID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return interfaces.ErrStoreClosed
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE collections SET parent_collection = ?, updated_at = ?
		WHERE id = ?
	`, nullableString(parentID), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to re-parent collection: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

// SaveResponse attaches an execution result to a request.
func (s *Store) SaveResponse(ctx context.Context, requestID string, resp *core.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return interfaces.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO responses (id, request_id, status_code, headers, body, runtime_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), requestID, resp.StatusCode(), resp.Headers(), resp.Body(), resp.RuntimeMS(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save response: %w", err)
	}

	return nil
}

// Close closes the store and releases resources.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*core.Request, error) {
	var (
		id, name, method, url      string
		description                sql.NullString
		collectionID               sql.NullString
		headers, body              sql.NullString
		bodyType, bodyFormat, auth sql.NullString
		sortOrder                  sql.NullInt64
		created, updated           time.Time
	)

	err := row.Scan(
		&id, &collectionID, &name, &description, &method, &url,
		&headers, &body, &bodyType, &bodyFormat, &auth, &sortOrder,
		&created, &updated,
	)
	if err != nil {
		return nil, err
	}

	r := core.NewRequestWithID(id, name, core.Method(method), url)
	r.SetDescription(description.String)
	if collectionID.Valid {
		cid := collectionID.String
		r.SetCollectionID(&cid)
	}
	r.SetHeaders(core.ParseHeaders(headers.String))
	r.SetBody(core.DecodeBody(core.BodyType(bodyType.String), core.BodyFormat(bodyFormat.String), body.String))
	r.SetAuth(auth.String)
	if sortOrder.Valid {
		order := int(sortOrder.Int64)
		r.SetSortOrder(&order)
	}
	r.SetTimestamps(created, updated)

	return r, nil
}

func nullableString(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value *int) interface{} {
	if value == nil {
		return nil
	}
	return *value
}
