package core

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Method is an HTTP request method.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Methods returns every supported method in display order.
func Methods() []Method {
	return []Method{
		MethodGet, MethodPost, MethodPut, MethodDelete,
		MethodPatch, MethodHead, MethodOptions,
	}
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	for _, known := range Methods() {
		if m == known {
			return true
		}
	}
	return false
}

func (m Method) String() string { return string(m) }

// Request is a saved request definition. A request with no collection is
// "uncategorized" and shows up at the root of the sidebar.
type Request struct {
	id           string
	collectionID *string
	name         string
	description  string
	method       Method
	url          string
	headers      HeaderSet
	body         Body
	auth         string
	sortOrder    *int
	lastResponse *Response
	createdAt    time.Time
	updatedAt    time.Time
}

// NewRequest creates a new request with the given name, method and URL.
func NewRequest(name string, method Method, url string) *Request {
	now := time.Now()
	return &Request{
		id:        uuid.New().String(),
		name:      name,
		method:    method,
		url:       url,
		headers:   KeyValueHeaders(nil),
		body:      NoBody(),
		createdAt: now,
		updatedAt: now,
	}
}

// NewRequestWithID creates a request with a specific ID (for loading from storage).
func NewRequestWithID(id, name string, method Method, url string) *Request {
	r := NewRequest(name, method, url)
	r.id = id
	return r
}

func (r *Request) ID() string           { return r.id }
func (r *Request) Name() string         { return r.name }
func (r *Request) Description() string  { return r.description }
func (r *Request) Method() Method       { return r.method }
func (r *Request) URL() string          { return r.url }
func (r *Request) Headers() HeaderSet   { return r.headers }
func (r *Request) Body() Body           { return r.body }
func (r *Request) Auth() string         { return r.auth }
func (r *Request) CreatedAt() time.Time { return r.createdAt }
func (r *Request) UpdatedAt() time.Time { return r.updatedAt }

// CollectionID returns the owning collection ID, or nil for uncategorized.
func (r *Request) CollectionID() *string { return r.collectionID }

// SortOrder returns the explicit sort key, or nil when none has been assigned.
func (r *Request) SortOrder() *int { return r.sortOrder }

// LastResponse returns the most recent cached response, or nil.
func (r *Request) LastResponse() *Response { return r.lastResponse }

func (r *Request) SetName(name string) {
	r.name = name
	r.touch()
}

func (r *Request) SetDescription(desc string) {
	r.description = desc
	r.touch()
}

func (r *Request) SetMethod(method Method) {
	r.method = method
	r.touch()
}

func (r *Request) SetURL(url string) {
	r.url = url
	r.touch()
}

func (r *Request) SetHeaders(h HeaderSet) {
	r.headers = h
	r.touch()
}

func (r *Request) SetBody(b Body) {
	r.body = b
	r.touch()
}

func (r *Request) SetAuth(auth string) {
	r.auth = auth
	r.touch()
}

func (r *Request) SetCollectionID(id *string) {
	r.collectionID = id
	r.touch()
}

func (r *Request) SetSortOrder(order *int) {
	r.sortOrder = order
	r.touch()
}

func (r *Request) SetLastResponse(resp *Response) {
	r.lastResponse = resp
}

// SetTimestamps sets created and updated timestamps (for loading from storage).
func (r *Request) SetTimestamps(created, updated time.Time) {
	r.createdAt = created
	r.updatedAt = updated
}

func (r *Request) touch() {
	r.updatedAt = time.Now()
}

// Validate checks the request fields that must hold before a save or execute.
func (r *Request) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.method, validation.Required, validation.By(methodRule)),
		validation.Field(&r.headers, validation.By(headerSetRule)),
		validation.Field(&r.body, validation.By(bodyRule)),
	)
}

func methodRule(value interface{}) error {
	m, _ := value.(Method)
	if !m.Valid() {
		return errUnknownMethod
	}
	return nil
}

func headerSetRule(value interface{}) error {
	h, _ := value.(HeaderSet)
	_, err := h.Normalize()
	return err
}

func bodyRule(value interface{}) error {
	b, _ := value.(Body)
	_, err := b.Encode()
	return err
}

// Clone creates a deep copy of the request.
func (r *Request) Clone() *Request {
	clone := *r
	if r.collectionID != nil {
		id := *r.collectionID
		clone.collectionID = &id
	}
	if r.sortOrder != nil {
		order := *r.sortOrder
		clone.sortOrder = &order
	}
	if r.lastResponse != nil {
		resp := *r.lastResponse
		clone.lastResponse = &resp
	}
	clone.headers = r.headers.Clone()
	return &clone
}
