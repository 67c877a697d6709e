package pipefy

import (
	"context"
	"fmt"
	"time"

	"github.com/jamesprial/pipefy-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func tableTools(d ToolDeps) []tools.Registration {
	return []tools.Registration{
		toolTableFind(d),
		toolTableRecords(d),
		toolTableRecordCreate(d),
		toolTableRecordDelete(d),
		toolTableClear(d),
		toolLogError(d),
	}
}

func toolTableFind(d ToolDeps) tools.Registration {
	const toolName = "pipefy_table_find"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Find the first record of a table whose field equals a value."),
		mcp.WithString("table_id", mcp.Required(), mcp.Description("Table ID")),
		mcp.WithString("field_id", mcp.Required(), mcp.Description("Field ID")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Field value to match")),
		mcp.WithBoolean("full", mcp.Description("Return the record with its fields instead of the id")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		tableID := req.GetString("table_id", "")
		fieldID := req.GetString("field_id", "")
		value := req.GetString("value", "")
		full := req.GetBool("full", false)
		params := map[string]any{"table_id": tableID, "field_id": fieldID, "value": value, "full": full}

		if err := d.Tables.Check(tableID); err != nil {
			return toolDenied(d.Audit, toolName, params, start, err), nil
		}
		if full {
			record, err := d.Manager.FindRecordInTableFull(ctx, tableID, fieldID, value)
			if err != nil {
				return toolFailure(d.Audit, toolName, params, start, err, false), nil
			}
			return toolOK(d.Audit, toolName, params, start, record), nil
		}
		id, found, err := d.Manager.FindRecordInTable(ctx, tableID, fieldID, value)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		return toolOK(d.Audit, toolName, params, start, foundResult{ID: id, Found: found}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolTableRecords(d ToolDeps) tools.Registration {
	const toolName = "pipefy_table_records"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("List the record ids of a table (first page only)."),
		mcp.WithString("table_id", mcp.Required(), mcp.Description("Table ID")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		tableID := req.GetString("table_id", "")
		params := map[string]any{"table_id": tableID}

		if err := d.Tables.Check(tableID); err != nil {
			return toolDenied(d.Audit, toolName, params, start, err), nil
		}
		records, err := d.Manager.ListTableRecords(ctx, tableID)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		if records == nil {
			records = []TableRecord{}
		}
		return toolOK(d.Audit, toolName, params, start, records), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolTableRecordCreate(d ToolDeps) tools.Registration {
	const toolName = "pipefy_table_record_create"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription(`Create a table record. Values are sent as text with the characters " [ ] ! ( ) removed.`),
		mcp.WithString("table_id", mcp.Required(), mcp.Description("Table ID")),
		mcp.WithString("fields", mcp.Required(), mcp.Description(`JSON object of field ID to value, e.g. {"name":"Ana","age":30}`)),
		reportErrorParam(),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		tableID := req.GetString("table_id", "")
		raw := req.GetString("fields", "")
		report := req.GetBool("report_error", false)
		params := map[string]any{"table_id": tableID, "fields": raw}

		if err := d.Tables.Check(tableID); err != nil {
			return toolDenied(d.Audit, toolName, params, start, err), nil
		}
		fields, err := parseRecordFields(raw)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		id, err := d.Manager.CreateTableRecord(ctx, tableID, fields)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, report), nil
		}
		return toolOK(d.Audit, toolName, params, start, map[string]string{"id": id}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolTableRecordDelete(d ToolDeps) tools.Registration {
	const toolName = ToolTableRecordDelete

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Delete a table record. Requires confirmation."),
		mcp.WithString("record_id", mcp.Required(), mcp.Description("Record ID")),
		confirmationTokenParam(),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		recordID := req.GetString("record_id", "")
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"record_id": recordID}

		if prompt := tools.RequireConfirmation(d.Confirm, toolName, "record "+recordID,
			fmt.Sprintf("This will permanently delete table record %q.", recordID), token); prompt != nil {
			return prompt, nil
		}
		if err := d.Manager.DeleteTableRecord(ctx, recordID); err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		tools.LogAudit(d.Audit, toolName, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("record %q deleted", recordID)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolTableClear(d ToolDeps) tools.Registration {
	const toolName = ToolTableClear

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Delete every record on the first page of a table. Requires confirmation."),
		mcp.WithString("table_id", mcp.Required(), mcp.Description("Table ID")),
		confirmationTokenParam(),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		tableID := req.GetString("table_id", "")
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"table_id": tableID}

		if err := d.Tables.Check(tableID); err != nil {
			return toolDenied(d.Audit, toolName, params, start, err), nil
		}
		if prompt := tools.RequireConfirmation(d.Confirm, toolName, "table "+tableID,
			fmt.Sprintf("This will permanently delete the records of table %q.", tableID), token); prompt != nil {
			return prompt, nil
		}

		result, err := d.Manager.ClearTable(ctx, tableID)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		summary := summarize(result, nil)
		outcome := "ok"
		if len(summary.Failed) > 0 {
			outcome = fmt.Sprintf("partial: %d failed", len(summary.Failed))
		}
		tools.LogAudit(d.Audit, toolName, params, outcome, start)
		return tools.JSONResult(summary), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolLogError(d ToolDeps) tools.Registration {
	const toolName = "pipefy_log_error"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Write a row to the configured error log table. Does nothing when no log table is set."),
		mcp.WithString("message", mcp.Required(), mcp.Description("Error message")),
		mcp.WithNumber("code", mcp.Description("Error code (default: 200)")),
		mcp.WithString("function", mcp.Description("Name of the originating function")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		message := req.GetString("message", "")
		code := req.GetInt("code", 200)
		function := req.GetString("function", "")
		params := map[string]any{"message": message, "code": code, "function": function}

		id, err := d.Manager.LogError(ctx, message, code, function)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		if id == "" {
			tools.LogAudit(d.Audit, toolName, params, "skipped", start)
			return mcp.NewToolResultText("no log table configured"), nil
		}
		return toolOK(d.Audit, toolName, params, start, map[string]string{"id": id}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
