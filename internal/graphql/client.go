package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jamesprial/pipefy-mcp/internal/config"
)

const defaultTimeout = 30 * time.Second

// HTTPClient is a concrete implementation of the Client interface that sends
// GraphQL requests over HTTP with a bearer token.
type HTTPClient struct {
	httpClient *http.Client
	graphqlURL string
	token      string
}

// NewHTTPClient constructs an HTTPClient from the provided PipefyConfig.
// An empty endpoint falls back to config.DefaultEndpoint; any other value is
// used exactly as given. When cfg.Timeout
// is zero or negative, a default timeout of 30 seconds is used. An empty
// token is accepted at construction time but will cause Execute to return
// an error.
func NewHTTPClient(cfg config.PipefyConfig) (*HTTPClient, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = config.DefaultEndpoint
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("graphql: endpoint %q must be an http(s) URL", endpoint)
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		graphqlURL: endpoint,
		token:      cfg.Token,
	}, nil
}

// HTTP returns the underlying *http.Client so the upload flow can reuse its
// timeout for the pre-signed PUT.
func (c *HTTPClient) HTTP() *http.Client {
	return c.httpClient
}

// graphqlRequest is the JSON body shape for a GraphQL HTTP request.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the JSON body shape for a GraphQL HTTP response.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Execute sends a GraphQL query to the configured endpoint and returns the
// raw JSON bytes of the "data" field on success. Variables may be nil, in
// which case the "variables" key is omitted from the request body.
//
// Execute returns an error if:
//   - the client was constructed without a token
//   - the HTTP request cannot be created or sent
//   - the server responds with a non-2xx status code
//   - the response body cannot be decoded as JSON
//   - the GraphQL response contains one or more errors (*ResponseError)
func (c *HTTPClient) Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	if c.token == "" {
		return nil, fmt.Errorf("graphql: API token is not configured")
	}

	reqBody := graphqlRequest{
		Query:     query,
		Variables: variables,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("graphql: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("graphql: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphql: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("graphql: authentication failed (HTTP 401)")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("graphql: unexpected HTTP status %d", resp.StatusCode)
	}

	var gqlResp graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return nil, fmt.Errorf("graphql: decode response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		return nil, &ResponseError{Errors: gqlResp.Errors, Data: []byte(gqlResp.Data)}
	}

	return []byte(gqlResp.Data), nil
}

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)
