package core

// Response is the result of a single execution, optionally persisted alongside
// its request.
type Response struct {
	statusCode int
	headers    string
	body       string
	runtimeMS  int
}

// NewResponse creates a response.
func NewResponse(statusCode int, headers, body string, runtimeMS int) *Response {
	return &Response{
		statusCode: statusCode,
		headers:    headers,
		body:       body,
		runtimeMS:  runtimeMS,
	}
}

func (r *Response) StatusCode() int { return r.statusCode }
func (r *Response) Headers() string { return r.headers }
func (r *Response) Body() string    { return r.body }
func (r *Response) RuntimeMS() int  { return r.runtimeMS }

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}
