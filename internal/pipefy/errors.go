package pipefy

import (
	"errors"

	"github.com/jamesprial/pipefy-mcp/internal/graphql"
)

var (
	// ErrInvalidID is returned when an identifier that is written into a
	// query unquoted contains anything but letters, digits, '_' or '-'.
	ErrInvalidID = errors.New("invalid id")
	// ErrInvalidArgument is returned for argument values the API cannot take.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMalformedResponse is returned when the response data does not
	// decode into the expected shape.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrNotSuccessful is returned when a mutation answers success: false.
	ErrNotSuccessful = errors.New("mutation reported no success")
	// ErrClearPipeStalled is returned by ClearPipe when a whole round of
	// deletes fails or the round limit is reached with cards left.
	ErrClearPipeStalled = errors.New("clear pipe stalled")
	// ErrNoObjectSource is returned by UploadFileFromObject when the client
	// was built without an object source.
	ErrNoObjectSource = errors.New("no object source configured")
)

// APIError carries the errors array of a GraphQL response.
type APIError struct {
	Op     string
	Errors []graphql.GraphQLError
}

// Error returns "Pipefy error: " followed by the first message.
func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return "Pipefy error: unknown error"
	}
	return "Pipefy error: " + e.Errors[0].Message
}

// Details returns the raw errors array.
func (e *APIError) Details() any {
	return e.Errors
}
