package config

import (
	"encoding/hex"
	"os"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// ApplyEnvOverrides
// ---------------------------------------------------------------------------

// overrideVars lists every variable ApplyEnvOverrides reads.
var overrideVars = []string{
	"PIPEFY_MCP_AUTH_TOKEN",
	"PIPEFY_API_TOKEN",
	"PIPEFY_ORGANIZATION_ID",
	"PIPEFY_GRAPHQL_URL",
	"PIPEFY_LOG_TABLE",
}

// clearOverrideVars registers cleanup for every override variable and then
// unsets it so os.Getenv returns "".
func clearOverrideVars(t *testing.T) {
	t.Helper()
	for _, name := range overrideVars {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func Test_ApplyEnvOverrides_Cases(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		initial Config
		want    Config
	}{
		{
			name:    "auth token env set on empty config",
			env:     map[string]string{"PIPEFY_MCP_AUTH_TOKEN": "my-token"},
			initial: Config{},
			want:    Config{Server: ServerConfig{AuthToken: "my-token"}},
		},
		{
			name:    "auth token env overrides existing token",
			env:     map[string]string{"PIPEFY_MCP_AUTH_TOKEN": "new"},
			initial: Config{Server: ServerConfig{AuthToken: "old"}},
			want:    Config{Server: ServerConfig{AuthToken: "new"}},
		},
		{
			name:    "no env preserves existing values",
			env:     nil,
			initial: Config{Server: ServerConfig{AuthToken: "existing"}, Pipefy: PipefyConfig{Token: "api"}},
			want:    Config{Server: ServerConfig{AuthToken: "existing"}, Pipefy: PipefyConfig{Token: "api"}},
		},
		{
			name:    "empty env does not override existing token",
			env:     map[string]string{"PIPEFY_API_TOKEN": ""},
			initial: Config{Pipefy: PipefyConfig{Token: "existing"}},
			want:    Config{Pipefy: PipefyConfig{Token: "existing"}},
		},
		{
			name: "pipefy settings overridden together",
			env: map[string]string{
				"PIPEFY_API_TOKEN":       "api-token",
				"PIPEFY_ORGANIZATION_ID": "300",
				"PIPEFY_GRAPHQL_URL":     "http://localhost:9999/graphql",
				"PIPEFY_LOG_TABLE":       "LogTbl1",
			},
			initial: Config{Server: ServerConfig{Port: 9090}, Pipefy: PipefyConfig{Locale: "es-AR"}},
			want: Config{
				Server: ServerConfig{Port: 9090},
				Pipefy: PipefyConfig{
					Token:          "api-token",
					OrganizationID: "300",
					Endpoint:       "http://localhost:9999/graphql",
					LogTable:       "LogTbl1",
					Locale:         "es-AR",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearOverrideVars(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			ApplyEnvOverrides(&cfg)

			if cfg.Server != tt.want.Server {
				t.Errorf("Server = %+v, want %+v", cfg.Server, tt.want.Server)
			}
			if cfg.Pipefy != tt.want.Pipefy {
				t.Errorf("Pipefy = %+v, want %+v", cfg.Pipefy, tt.want.Pipefy)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// EnsureAuthToken
// ---------------------------------------------------------------------------

func Test_EnsureAuthToken_Cases(t *testing.T) {
	t.Run("token already set returns existing token unchanged", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{
				AuthToken: "pre-set",
			},
		}

		token, err := EnsureAuthToken(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "pre-set" {
			t.Errorf("returned token = %q, want %q", token, "pre-set")
		}
		if cfg.Server.AuthToken != "pre-set" {
			t.Errorf("cfg.Server.AuthToken = %q, want %q", cfg.Server.AuthToken, "pre-set")
		}
	})

	t.Run("empty token generates and sets new token", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{
				AuthToken: "",
			},
		}

		token, err := EnsureAuthToken(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token == "" {
			t.Fatal("returned token is empty, expected a generated value")
		}
		if cfg.Server.AuthToken != token {
			t.Errorf("cfg.Server.AuthToken = %q, want %q (returned token)", cfg.Server.AuthToken, token)
		}
	})

	t.Run("generated token is 32 characters", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{
				AuthToken: "",
			},
		}

		token, err := EnsureAuthToken(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(token) != 32 {
			t.Errorf("len(token) = %d, want 32", len(token))
		}
	})

	t.Run("generated token is valid hex", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{
				AuthToken: "",
			},
		}

		token, err := EnsureAuthToken(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		decoded, err := hex.DecodeString(token)
		if err != nil {
			t.Fatalf("token %q is not valid hex: %v", token, err)
		}
		if len(decoded) != 16 {
			t.Errorf("decoded length = %d, want 16 bytes", len(decoded))
		}
	})

	t.Run("two calls produce different tokens", func(t *testing.T) {
		cfg1 := &Config{Server: ServerConfig{AuthToken: ""}}
		cfg2 := &Config{Server: ServerConfig{AuthToken: ""}}

		token1, err := EnsureAuthToken(cfg1)
		if err != nil {
			t.Fatalf("first call error: %v", err)
		}

		token2, err := EnsureAuthToken(cfg2)
		if err != nil {
			t.Fatalf("second call error: %v", err)
		}

		if token1 == token2 {
			t.Errorf("two generated tokens are identical: %q", token1)
		}
	})
}

// ---------------------------------------------------------------------------
// GenerateRandomToken
// ---------------------------------------------------------------------------

func Test_GenerateRandomToken_Cases(t *testing.T) {
	t.Run("returns 32 character string", func(t *testing.T) {
		token, err := GenerateRandomToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(token) != 32 {
			t.Errorf("len(token) = %d, want 32", len(token))
		}
	})

	t.Run("output is valid hex encoding 16 bytes", func(t *testing.T) {
		token, err := GenerateRandomToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		decoded, err := hex.DecodeString(token)
		if err != nil {
			t.Fatalf("token %q is not valid hex: %v", token, err)
		}
		if len(decoded) != 16 {
			t.Errorf("decoded byte length = %d, want 16", len(decoded))
		}
	})

	t.Run("two calls return different values", func(t *testing.T) {
		token1, err := GenerateRandomToken()
		if err != nil {
			t.Fatalf("first call error: %v", err)
		}

		token2, err := GenerateRandomToken()
		if err != nil {
			t.Fatalf("second call error: %v", err)
		}

		if token1 == token2 {
			t.Errorf("two generated tokens are identical: %q", token1)
		}
	})

	t.Run("concurrent calls all succeed with unique tokens", func(t *testing.T) {
		const goroutines = 100

		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			tokens = make(map[string]struct{}, goroutines)
			errs   []error
		)

		wg.Add(goroutines)
		for i := 0; i < goroutines; i++ {
			go func() {
				defer wg.Done()
				token, err := GenerateRandomToken()
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				tokens[token] = struct{}{}
			}()
		}
		wg.Wait()

		if len(errs) > 0 {
			t.Fatalf("got %d errors in concurrent calls; first: %v", len(errs), errs[0])
		}

		if len(tokens) != goroutines {
			t.Errorf("expected %d unique tokens, got %d (collisions detected)", goroutines, len(tokens))
		}
	})
}
