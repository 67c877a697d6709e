package pipefy

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jamesprial/pipefy-mcp/internal/safety"
	"github.com/jamesprial/pipefy-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
)

// Names of tools that delete data or send mail.
const (
	ToolCardDelete        = "pipefy_card_delete"
	ToolPipeClear         = "pipefy_pipe_clear"
	ToolTableRecordDelete = "pipefy_table_record_delete"
	ToolTableClear        = "pipefy_table_clear"
	ToolEmailSend         = "pipefy_email_send"
)

// DestructiveTools lists the tools that require a confirmation token.
func DestructiveTools() []string {
	return []string{ToolCardDelete, ToolPipeClear, ToolTableRecordDelete, ToolTableClear, ToolEmailSend}
}

// ToolDeps bundles what the Pipefy MCP tools need. Filters and the audit
// logger may be nil.
type ToolDeps struct {
	Manager Manager
	Pipes   *safety.Filter
	Tables  *safety.Filter
	Confirm *safety.ConfirmationTracker
	Audit   *safety.AuditLogger
}

// PipefyTools returns every Pipefy tool registration.
func PipefyTools(deps ToolDeps) []tools.Registration {
	var regs []tools.Registration
	regs = append(regs, cardTools(deps)...)
	regs = append(regs, tableTools(deps)...)
	regs = append(regs, mailTools(deps)...)
	regs = append(regs, fileTools(deps)...)
	return regs
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// toolFailure audits err and renders it for the caller.
func toolFailure(audit *safety.AuditLogger, name string, params map[string]any, start time.Time, err error, report bool) *mcp.CallToolResult {
	tools.LogAudit(audit, name, params, "error: "+err.Error(), start)
	return tools.APIErrorResult(err, report)
}

// toolDenied audits a filter rejection.
func toolDenied(audit *safety.AuditLogger, name string, params map[string]any, start time.Time, err error) *mcp.CallToolResult {
	tools.LogAudit(audit, name, params, "denied", start)
	return tools.ErrorResult(err.Error())
}

// toolOK audits success and returns v as JSON.
func toolOK(audit *safety.AuditLogger, name string, params map[string]any, start time.Time, v any) *mcp.CallToolResult {
	tools.LogAudit(audit, name, params, "ok", start)
	return tools.JSONResult(v)
}

// splitIDs splits a comma separated id list, dropping blanks.
func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// parseFieldMap decodes a JSON object of field id to value.
func parseFieldMap(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("parse fields JSON: %w", err)
	}
	return m, nil
}

// parseRecordFields decodes a JSON object into record fields ordered by id.
func parseRecordFields(raw string) ([]RecordField, error) {
	m, err := parseFieldMap(raw)
	if err != nil {
		return nil, err
	}
	attrs := FieldAttributes(m)
	fields := make([]RecordField, len(attrs))
	for i, a := range attrs {
		fields[i] = RecordField{ID: a.FieldID, Value: a.Value}
	}
	return fields, nil
}

func confirmationTokenParam() mcp.ToolOption {
	return mcp.WithString("confirmation_token",
		mcp.Description("Confirmation token returned by a prior call to this tool"),
	)
}

func reportErrorParam() mcp.ToolOption {
	return mcp.WithBoolean("report_error",
		mcp.Description("Return the raw GraphQL errors array instead of a message (default: false)"),
	)
}
