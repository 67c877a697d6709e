package pipefy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	// Embedded zone database for LogError timestamps on hosts without one.
	_ "time/tzdata"

	"github.com/jamesprial/pipefy-mcp/internal/config"
	"github.com/jamesprial/pipefy-mcp/internal/graphql"
)

const (
	defaultMaxConcurrency = 8
	defaultMaxClearRounds = 100
)

// ObjectSource opens stored objects for UploadFileFromObject. It returns the
// object body and its content type, which may be empty.
type ObjectSource interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, string, error)
}

// Options configures a Client beyond its GraphQL transport.
type Options struct {
	OrganizationID string
	// TimeZone is an IANA zone name; empty means UTC.
	TimeZone string
	// Locale is a BCP 47 tag used to format LogError dates.
	Locale string
	// LogTable is the table LogError writes to; empty disables it.
	LogTable       string
	MaxConcurrency int
	MaxClearRounds int
	// HTTPClient performs the source GET and pre-signed PUT of uploads.
	HTTPClient *http.Client
	Objects    ObjectSource
	Logger     *log.Logger
}

// Client implements Manager over a graphql.Client. Its configuration is
// fixed at construction, so a Client is safe for concurrent use.
type Client struct {
	gql            graphql.Client
	http           *http.Client
	objects        ObjectSource
	logger         *log.Logger
	organizationID string
	logTable       string
	location       *time.Location
	locale         string
	maxConcurrency int
	maxClearRounds int
	now            func() time.Time
}

// Compile-time interface check.
var _ Manager = (*Client)(nil)

// NewClient returns a Client that sends documents through gql.
func NewClient(gql graphql.Client, opts Options) (*Client, error) {
	if gql == nil {
		return nil, fmt.Errorf("pipefy: graphql client is required")
	}

	loc := time.UTC
	if opts.TimeZone != "" {
		l, err := time.LoadLocation(opts.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("pipefy: time zone: %w", err)
		}
		loc = l
	}

	c := &Client{
		gql:            gql,
		http:           opts.HTTPClient,
		objects:        opts.Objects,
		logger:         opts.Logger,
		organizationID: opts.OrganizationID,
		logTable:       opts.LogTable,
		location:       loc,
		locale:         opts.Locale,
		maxConcurrency: opts.MaxConcurrency,
		maxClearRounds: opts.MaxClearRounds,
		now:            time.Now,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if c.maxConcurrency <= 0 {
		c.maxConcurrency = defaultMaxConcurrency
	}
	if c.maxClearRounds <= 0 {
		c.maxClearRounds = defaultMaxClearRounds
	}
	return c, nil
}

// NewClientFromConfig builds the HTTP transport from cfg and wraps it in a
// Client. objects may be nil.
func NewClientFromConfig(cfg config.PipefyConfig, objects ObjectSource, logger *log.Logger) (*Client, error) {
	gql, err := graphql.NewHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(gql, Options{
		OrganizationID: cfg.OrganizationID,
		TimeZone:       cfg.TimeZone,
		Locale:         cfg.Locale,
		LogTable:       cfg.LogTable,
		MaxConcurrency: cfg.MaxConcurrency,
		MaxClearRounds: cfg.MaxClearRounds,
		HTTPClient:     gql.HTTP(),
		Objects:        objects,
		Logger:         logger,
	})
}

// do executes document and decodes the data into out when out is non-nil.
// GraphQL error lists become *APIError and are logged.
func (c *Client) do(ctx context.Context, op, document string, out any) error {
	data, err := c.gql.Execute(ctx, document, nil)
	if err != nil {
		var re *graphql.ResponseError
		if errors.As(err, &re) {
			apiErr := &APIError{Op: op, Errors: re.Errors}
			c.logger.Printf("pipefy %s: %v", op, apiErr)
			return apiErr
		}
		return fmt.Errorf("pipefy %s: %w", op, err)
	}
	if out == nil {
		return nil
	}
	if len(data) == 0 {
		return fmt.Errorf("pipefy %s: %w: no data", op, ErrMalformedResponse)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("pipefy %s: %w: %v", op, ErrMalformedResponse, err)
	}
	return nil
}

// edges is the connection shape shared by list queries.
type edges[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
}

func (e *edges[T]) nodes() []T {
	if e == nil {
		return nil
	}
	out := make([]T, len(e.Edges))
	for i, edge := range e.Edges {
		out[i] = edge.Node
	}
	return out
}

// mutationResult is the payload of mutations that answer success.
type mutationResult struct {
	ClientMutationID *string `json:"clientMutationId"`
	Success          *bool   `json:"success"`
}

// check returns ErrNotSuccessful when the payload is missing or explicitly
// reports success: false.
func (m *mutationResult) check(op string) error {
	if m == nil {
		return fmt.Errorf("pipefy %s: %w", op, ErrNotSuccessful)
	}
	if m.Success != nil && !*m.Success {
		return fmt.Errorf("pipefy %s: %w", op, ErrNotSuccessful)
	}
	return nil
}
