// Package graphql provides the HTTP transport for the Pipefy GraphQL API.
package graphql

import (
	"context"
	"strings"
)

// GraphQLError represents a single error returned in a GraphQL response.
type GraphQLError struct {
	Message string         `json:"message"`
	Path    []any          `json:"path,omitempty"`
	Code    string         `json:"code,omitempty"`
	Extra   map[string]any `json:"extensions,omitempty"`
}

// ResponseError is returned by Execute when the response body carries a
// non-empty "errors" array. Data holds whatever partial "data" came back.
type ResponseError struct {
	Errors []GraphQLError
	Data   []byte
}

// Error joins every message with "; ".
func (e *ResponseError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// Details returns the raw errors array.
func (e *ResponseError) Details() any {
	return e.Errors
}

// Client defines the interface for executing GraphQL queries.
type Client interface {
	Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error)
}
