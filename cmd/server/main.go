// Package main is the entry point for the pipefy-mcp server.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jamesprial/pipefy-mcp/internal/auth"
	"github.com/jamesprial/pipefy-mcp/internal/config"
	"github.com/jamesprial/pipefy-mcp/internal/graphql"
	"github.com/jamesprial/pipefy-mcp/internal/pipefy"
	"github.com/jamesprial/pipefy-mcp/internal/safety"
	"github.com/jamesprial/pipefy-mcp/internal/storage"
	"github.com/jamesprial/pipefy-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

const defaultConfigPath = "/config/config.yaml"

func main() {
	cfg := loadConfig()
	config.ApplyEnvOverrides(cfg)

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		log.Printf("warning: could not generate auth token: %v; running without authentication", err)
	} else if tokenBefore == "" {
		log.Printf("generated auth token (set PIPEFY_MCP_AUTH_TOKEN to persist): %s", token)
	}

	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := safety.OpenAuditLog(cfg.Audit.LogPath)
		if err != nil {
			log.Printf("warning: could not open audit log %q: %v; audit logging disabled", cfg.Audit.LogPath, err)
		} else {
			auditLogger = safety.NewAuditLogger(f)
			defer f.Close()
		}
	}

	var objects pipefy.ObjectSource
	if storage.Enabled(cfg.Storage.S3) {
		src, err := storage.NewS3Source(context.Background(), cfg.Storage.S3)
		if err != nil {
			log.Printf("warning: S3 source unavailable (%v); object uploads disabled", err)
		} else {
			objects = src
		}
	}

	gql, err := graphql.NewHTTPClient(cfg.Pipefy)
	if err != nil {
		log.Fatalf("failed to create GraphQL client: %v", err)
	}
	if cfg.Pipefy.Token == "" {
		log.Printf("warning: no Pipefy API token configured (set PIPEFY_API_TOKEN); every call will fail")
	}

	client, err := pipefy.NewClient(gql, pipefy.Options{
		OrganizationID: cfg.Pipefy.OrganizationID,
		TimeZone:       cfg.Pipefy.TimeZone,
		Locale:         cfg.Pipefy.Locale,
		LogTable:       cfg.Pipefy.LogTable,
		MaxConcurrency: cfg.Pipefy.MaxConcurrency,
		MaxClearRounds: cfg.Pipefy.MaxClearRounds,
		HTTPClient:     gql.HTTP(),
		Objects:        objects,
	})
	if err != nil {
		log.Fatalf("failed to create Pipefy client: %v", err)
	}

	handler := newHandler(cfg, gql, client, auditLogger)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("pipefy-mcp listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
	log.Println("server stopped")
}

// newMCPServer registers the Pipefy and raw GraphQL tools.
func newMCPServer(cfg *config.Config, gql graphql.Client, mgr pipefy.Manager, audit *safety.AuditLogger) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"pipefy-mcp",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	confirm := safety.NewConfirmationTracker(append(pipefy.DestructiveTools(), graphql.ToolNameGraphQLQuery))

	pipefyTools := pipefy.PipefyTools(pipefy.ToolDeps{
		Manager: mgr,
		Pipes:   safety.NewFilter("pipe", cfg.Safety.Pipes.Allowlist, cfg.Safety.Pipes.Denylist),
		Tables:  safety.NewFilter("table", cfg.Safety.Tables.Allowlist, cfg.Safety.Tables.Denylist),
		Confirm: confirm,
		Audit:   audit,
	})
	graphqlTools := graphql.GraphQLTools(gql, confirm, audit)

	tools.RegisterAll(mcpServer, pipefyTools, graphqlTools)
	log.Printf("registered %d tools", len(tools.Names(pipefyTools, graphqlTools)))
	return mcpServer
}

// newHandler routes /mcp to the streamable HTTP transport behind bearer
// auth and serves an unauthenticated /healthz.
func newHandler(cfg *config.Config, gql graphql.Client, mgr pipefy.Manager, audit *safety.AuditLogger) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "ok")
	}).Methods(http.MethodGet)
	r.Handle("/mcp", server.NewStreamableHTTPServer(newMCPServer(cfg, gql, mgr, audit)))
	r.Use(auth.NewAuthMiddleware(cfg.Server.AuthToken, "/healthz"))
	return r
}

// loadConfig attempts to read the config file from the path specified by
// PIPEFY_MCP_CONFIG_PATH or the default /config/config.yaml. If the file
// cannot be read, DefaultConfig is returned.
func loadConfig() *config.Config {
	path := os.Getenv("PIPEFY_MCP_CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Printf("could not load config from %q (%v), using defaults", path, err)
		return config.DefaultConfig()
	}

	log.Printf("loaded config from %q", path)
	return cfg
}
