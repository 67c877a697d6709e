// Package tools provides shared helper utilities for MCP tool handlers.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jamesprial/pipefy-mcp/internal/safety"
	"github.com/mark3labs/mcp-go/mcp"
)

// DetailedError is implemented by errors that can expose the structured
// payload the remote API returned, such as the GraphQL errors array.
type DetailedError interface {
	error
	Details() any
}

// JSONResult marshals v to indented JSON and returns an mcp.CallToolResult.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error marshaling result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// ErrorResult returns an mcp.CallToolResult that describes an error condition.
func ErrorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultText(fmt.Sprintf("error: %s", msg))
}

// APIErrorResult renders err for a tool caller. When report is set and err
// carries structured details, the result is {"errors": details} as JSON;
// otherwise it falls back to ErrorResult.
func APIErrorResult(err error, report bool) *mcp.CallToolResult {
	var de DetailedError
	if report && errors.As(err, &de) {
		return JSONResult(map[string]any{"errors": de.Details()})
	}
	return ErrorResult(err.Error())
}

// LogAudit logs a tool invocation to the audit logger, silently ignoring a nil logger.
func LogAudit(audit *safety.AuditLogger, toolName string, params map[string]any, result string, start time.Time) {
	if audit == nil {
		return
	}
	_ = audit.Log(safety.AuditEntry{
		Timestamp: start,
		Tool:      toolName,
		Params:    params,
		Result:    result,
		Duration:  time.Since(start),
	})
}

// ConfirmPrompt issues a confirmation request and returns the prompt result.
func ConfirmPrompt(confirm *safety.ConfirmationTracker, toolName, resource, description string) *mcp.CallToolResult {
	token := confirm.RequestConfirmation(toolName, resource, description)
	return mcp.NewToolResultText(fmt.Sprintf(
		"Confirmation required for %s on %q.\n\n%s\n\nTo proceed, call %s again with confirmation_token=%q.",
		toolName, resource, description, toolName, token,
	))
}

// RequireConfirmation returns a prompt result when toolName needs confirmation
// and token does not confirm it for resource. A nil result means the caller
// may proceed.
func RequireConfirmation(confirm *safety.ConfirmationTracker, toolName, resource, description, token string) *mcp.CallToolResult {
	if confirm == nil || !confirm.NeedsConfirmation(toolName) {
		return nil
	}
	if confirm.Confirm(toolName, resource, token) {
		return nil
	}
	return ConfirmPrompt(confirm, toolName, resource, description)
}
