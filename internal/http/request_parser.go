// Package http provides the JSON-over-HTTP transport for the engine.
//
// This file implements utilities for reading and checking request bodies.

package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrBodyTooLarge is returned when a request body exceeds the configured limit.
var ErrBodyTooLarge = errors.New("request body too large")

// RequestBodyParser reads a request body once, bounded by a size limit.
type RequestBodyParser struct {
	body        []byte
	contentType string
	limit       int64
	err         error
}

// NewRequestBodyParser creates a parser for the given request. A limit of
// zero or less reads the body without bound.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request, limit int64) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
		limit:       limit,
	}

	body := r.Body
	if limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit)
	}
	p.body, p.err = io.ReadAll(body)

	var maxErr *http.MaxBytesError
	if errors.As(p.err, &maxErr) {
		p.err = fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, maxErr.Limit)
	}
	return p
}

// Bytes returns the body or the error met while reading it.
func (p *RequestBodyParser) Bytes() ([]byte, error) {
	return p.body, p.err
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON reports whether the declared content type is JSON. Bodies are
// decoded as JSON regardless; rejected requests log it.
func (p *RequestBodyParser) IsJSON() bool {
	ct := strings.ToLower(p.contentType)
	return strings.HasPrefix(ct, "application/json") || strings.Contains(ct, "+json")
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}
