package core

import "errors"

var (
	// ErrMalformedHeaders is returned when raw header text is neither a JSON
	// object nor an array of {key, value} pairs.
	ErrMalformedHeaders = errors.New("must be a JSON object or an array of key/value pairs")

	// ErrMalformedBody is returned when a body part that must be JSON is not.
	ErrMalformedBody = errors.New("must be valid JSON")

	errUnknownMethod = errors.New("must be a valid HTTP method")
)
