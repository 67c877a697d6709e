package pipefy

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jamesprial/pipefy-mcp/internal/config"
	"github.com/jamesprial/pipefy-mcp/internal/graphql"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Fake Pipefy server
// ---------------------------------------------------------------------------

// fakePipefy is an httptest server speaking the GraphQL envelope. respond
// receives each document and returns the raw JSON of "data" and "errors";
// an empty string omits the member.
type fakePipefy struct {
	srv     *httptest.Server
	mu      sync.Mutex
	queries []string
	respond func(query string) (data, errs string)
}

func newFakePipefy(t *testing.T, respond func(query string) (data, errs string)) *fakePipefy {
	t.Helper()
	f := &fakePipefy{respond: respond}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.queries = append(f.queries, body.Query)
		f.mu.Unlock()

		data, errs := f.respond(body.Query)
		parts := []string{}
		if data != "" {
			parts = append(parts, `"data":`+data)
		}
		if errs != "" {
			parts = append(parts, `"errors":`+errs)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, "{"+strings.Join(parts, ",")+"}")
	}))
	t.Cleanup(f.srv.Close)
	return f
}

// Queries returns a copy of every document received so far.
func (f *fakePipefy) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// Last returns the most recent document.
func (f *fakePipefy) Last(t *testing.T) string {
	t.Helper()
	qs := f.Queries()
	require.NotEmpty(t, qs, "no query received")
	return qs[len(qs)-1]
}

// Count returns how many documents contain substr.
func (f *fakePipefy) Count(substr string) int {
	n := 0
	for _, q := range f.Queries() {
		if strings.Contains(q, substr) {
			n++
		}
	}
	return n
}

// newTestClient wires a Client to a fake Pipefy server. mutate may adjust
// the options before the client is built.
func newTestClient(t *testing.T, respond func(query string) (data, errs string), mutate ...func(*Options)) (*Client, *fakePipefy) {
	t.Helper()
	f := newFakePipefy(t, respond)
	gql, err := graphql.NewHTTPClient(config.PipefyConfig{Endpoint: f.srv.URL, Token: "test-token"})
	require.NoError(t, err)

	opts := Options{
		OrganizationID: "1",
		HTTPClient:     f.srv.Client(),
		Logger:         log.New(io.Discard, "", 0),
	}
	for _, m := range mutate {
		m(&opts)
	}
	c, err := NewClient(gql, opts)
	require.NoError(t, err)
	return c, f
}

// staticData answers every document with the same data payload.
func staticData(data string) func(string) (string, string) {
	return func(string) (string, string) { return data, "" }
}

// staticErrors answers every document with the same errors array.
func staticErrors(errs string) func(string) (string, string) {
	return func(string) (string, string) { return "null", errs }
}

// mockGQL is a graphql.Client returning canned results without a server.
type mockGQL struct {
	data []byte
	err  error
}

func (m *mockGQL) Execute(context.Context, string, map[string]any) ([]byte, error) {
	return m.data, m.err
}

var _ graphql.Client = (*mockGQL)(nil)
