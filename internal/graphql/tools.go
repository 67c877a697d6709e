package graphql

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jamesprial/pipefy-mcp/internal/safety"
	"github.com/jamesprial/pipefy-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolNameGraphQLQuery is the name of the raw query tool. Mutations sent
// through it require confirmation when the name is in the destructive set.
const ToolNameGraphQLQuery = "graphql_query"

// GraphQLTools returns a slice of tool registrations for the GraphQL escape
// hatch. It exposes a single "graphql_query" tool that allows callers to
// execute arbitrary documents against the Pipefy API.
func GraphQLTools(client Client, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolGraphQLQuery(client, confirm, audit),
	}
}

// IsMutation reports whether the first operation in document is a mutation.
// Leading whitespace and # comments are skipped.
func IsMutation(document string) bool {
	rest := document
	for {
		rest = strings.TrimLeft(rest, " \t\r\n,")
		if !strings.HasPrefix(rest, "#") {
			break
		}
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			return false
		}
		rest = rest[nl+1:]
	}
	if !strings.HasPrefix(rest, "mutation") {
		return false
	}
	next := strings.TrimPrefix(rest, "mutation")
	return next == "" || strings.ContainsAny(next[:1], " \t\r\n{(")
}

// documentDigest names a document for confirmation and audit purposes.
func documentDigest(document string) string {
	sum := sha256.Sum256([]byte(document))
	return "document " + hex.EncodeToString(sum[:6])
}

func toolGraphQLQuery(client Client, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(ToolNameGraphQLQuery,
		mcp.WithDescription("Execute an arbitrary GraphQL document against the Pipefy API. Use when direct API access is needed beyond the provided tools. Mutations require confirmation."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The GraphQL query or mutation string to execute."),
		),
		mcp.WithString("variables",
			mcp.Description("Optional JSON object string of variables to pass with the query."),
		),
		mcp.WithBoolean("report_error",
			mcp.Description("Return the raw GraphQL errors array instead of a message (default: false)"),
		),
		mcp.WithString("confirmation_token",
			mcp.Description("Confirmation token returned by a prior call to this tool"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		query := req.GetString("query", "")
		variablesStr := req.GetString("variables", "")
		report := req.GetBool("report_error", false)
		token := req.GetString("confirmation_token", "")

		params := map[string]any{
			"query":     query,
			"variables": variablesStr,
		}

		var parsedVars map[string]any
		if variablesStr != "" {
			if err := json.Unmarshal([]byte(variablesStr), &parsedVars); err != nil {
				errMsg := fmt.Sprintf("parse variables JSON: %v", err)
				tools.LogAudit(audit, ToolNameGraphQLQuery, params, "error: "+errMsg, start)
				return tools.ErrorResult(errMsg), nil
			}
		}

		if IsMutation(query) {
			resource := documentDigest(query)
			if prompt := tools.RequireConfirmation(confirm, ToolNameGraphQLQuery, resource,
				"This will run a mutation against Pipefy:\n\n"+query, token); prompt != nil {
				return prompt, nil
			}
		}

		data, err := client.Execute(ctx, query, parsedVars)
		if err != nil {
			tools.LogAudit(audit, ToolNameGraphQLQuery, params, "error: "+err.Error(), start)
			return tools.APIErrorResult(err, report), nil
		}

		var parsed any
		if err := json.Unmarshal(data, &parsed); err != nil {
			tools.LogAudit(audit, ToolNameGraphQLQuery, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, ToolNameGraphQLQuery, params, "ok", start)
		return tools.JSONResult(parsed), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
