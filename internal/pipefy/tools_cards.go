package pipefy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesprial/pipefy-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func cardTools(d ToolDeps) []tools.Registration {
	return []tools.Registration{
		toolCardGet(d),
		toolPipeGet(d),
		toolPipeCards(d),
		toolCardFind(d),
		toolCardFindByField(d),
		toolCardMove(d),
		toolCardComment(d),
		toolCardUpdateField(d),
		toolCardUpdateFields(d),
		toolCardClearConnector(d),
		toolCardSetAssignees(d),
		toolCardSetLabels(d),
		toolCardSetDueDate(d),
		toolCardCreate(d),
		toolCardDelete(d),
		toolCardRelate(d),
		toolPipeClear(d),
	}
}

func toolCardGet(d ToolDeps) tools.Registration {
	const toolName = "pipefy_card_get"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Get a card with its fields, phase, labels, assignees and relations."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Card ID")),
		mcp.WithBoolean("children", mcp.Description("Include fields of child relation cards")),
		mcp.WithBoolean("parents", mcp.Description("Include fields of parent relation cards")),
		mcp.WithBoolean("second_level", mcp.Description("Nest one more level of relations (needs children or parents)")),
		mcp.WithBoolean("date_value", mcp.Description("Select date_value on fields")),
		mcp.WithBoolean("datetime_value", mcp.Description("Select datetime_value on fields")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("card_id", "")
		opts := CardInfoOptions{
			Children:      req.GetBool("children", false),
			Parents:       req.GetBool("parents", false),
			SecondLevel:   req.GetBool("second_level", false),
			DateValue:     req.GetBool("date_value", false),
			DatetimeValue: req.GetBool("datetime_value", false),
		}
		params := map[string]any{"card_id": id, "children": opts.Children, "parents": opts.Parents, "second_level": opts.SecondLevel}

		card, err := d.Manager.GetCardInfo(ctx, id, opts)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		if card == nil {
			tools.LogAudit(d.Audit, toolName, params, "not found", start)
			return tools.ErrorResult(fmt.Sprintf("card %q not found", id)), nil
		}
		if card.Pipe != nil {
			if err := d.Pipes.Check(card.Pipe.ID); err != nil {
				return toolDenied(d.Audit, toolName, params, start, err), nil
			}
		}
		return toolOK(d.Audit, toolName, params, start, card), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolPipeGet(d ToolDeps) tools.Registration {
	const toolName = "pipefy_pipe_get"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Get the id and name of a pipe."),
		mcp.WithString("pipe_id", mcp.Required(), mcp.Description("Pipe ID")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("pipe_id", "")
		params := map[string]any{"pipe_id": id}

		if err := d.Pipes.Check(id); err != nil {
			return toolDenied(d.Audit, toolName, params, start, err), nil
		}
		pipe, err := d.Manager.GetPipeInfo(ctx, id)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		if pipe == nil {
			tools.LogAudit(d.Audit, toolName, params, "not found", start)
			return tools.ErrorResult(fmt.Sprintf("pipe %q not found", id)), nil
		}
		return toolOK(d.Audit, toolName, params, start, pipe), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolPipeCards(d ToolDeps) tools.Registration {
	const toolName = "pipefy_pipe_cards"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("List the id and title of the cards of a pipe (first page only)."),
		mcp.WithString("pipe_id", mcp.Required(), mcp.Description("Pipe ID")),
		mcp.WithBoolean("parents", mcp.Description("Include parent relations")),
		mcp.WithBoolean("children", mcp.Description("Include child relations")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("pipe_id", "")
		parents := req.GetBool("parents", false)
		children := req.GetBool("children", false)
		params := map[string]any{"pipe_id": id, "parents": parents, "children": children}

		if err := d.Pipes.Check(id); err != nil {
			return toolDenied(d.Audit, toolName, params, start, err), nil
		}
		cards, err := d.Manager.AllCardsIDs(ctx, id, parents, children)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		return toolOK(d.Audit, toolName, params, start, cards), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// foundResult is the JSON shape of id lookups.
type foundResult struct {
	ID    string `json:"id,omitempty"`
	Found bool   `json:"found"`
}

func toolCardFind(d ToolDeps) tools.Registration {
	const toolName = "pipefy_card_find"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Find a card id by exact title. By default scans the pipe's first page locally; server_search uses Pipefy's title search instead."),
		mcp.WithString("pipe_id", mcp.Required(), mcp.Description("Pipe ID")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Card title")),
		mcp.WithBoolean("server_search", mcp.Description("Use the API title search (default: false)")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		pipeID := req.GetString("pipe_id", "")
		title := req.GetString("title", "")
		serverSearch := req.GetBool("server_search", false)
		params := map[string]any{"pipe_id": pipeID, "title": title, "server_search": serverSearch}

		if err := d.Pipes.Check(pipeID); err != nil {
			return toolDenied(d.Audit, toolName, params, start, err), nil
		}
		find := d.Manager.FindCard
		if serverSearch {
			find = d.Manager.FindCardFromTitle
		}
		id, found, err := find(ctx, title, pipeID)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		return toolOK(d.Audit, toolName, params, start, foundResult{ID: id, Found: found}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCardFindByField(d ToolDeps) tools.Registration {
	const toolName = "pipefy_card_find_by_field"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Search a pipe for cards whose field equals a value."),
		mcp.WithString("pipe_id", mcp.Required(), mcp.Description("Pipe ID")),
		mcp.WithString("field_id", mcp.Required(), mcp.Description("Field ID")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Field value to match")),
		mcp.WithString("mode",
			mcp.Description("id: first card id; card: first card with fields; all: every card with fields (default: id)"),
			mcp.Enum("id", "card", "all"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		pipeID := req.GetString("pipe_id", "")
		fieldID := req.GetString("field_id", "")
		value := req.GetString("value", "")
		mode := req.GetString("mode", "id")
		params := map[string]any{"pipe_id": pipeID, "field_id": fieldID, "value": value, "mode": mode}

		if err := d.Pipes.Check(pipeID); err != nil {
			return toolDenied(d.Audit, toolName, params, start, err), nil
		}

		var (
			result any
			err    error
		)
		switch mode {
		case "", "id":
			var id string
			var found bool
			id, found, err = d.Manager.FindCardIDFromField(ctx, fieldID, value, pipeID)
			result = foundResult{ID: id, Found: found}
		case "card":
			result, err = d.Manager.FindCardFromField(ctx, fieldID, value, pipeID)
		case "all":
			var cards []Card
			cards, err = d.Manager.FindCardsFromField(ctx, fieldID, value, pipeID)
			if cards == nil {
				cards = []Card{}
			}
			result = cards
		default:
			err = fmt.Errorf("%w: mode %q", ErrInvalidArgument, mode)
		}
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		return toolOK(d.Audit, toolName, params, start, result), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCardMove(d ToolDeps) tools.Registration {
	const toolName = "pipefy_card_move"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Move a card to another phase."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Card ID")),
		mcp.WithString("phase_id", mcp.Required(), mcp.Description("Destination phase ID")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		cardID := req.GetString("card_id", "")
		phaseID := req.GetString("phase_id", "")
		params := map[string]any{"card_id": cardID, "phase_id": phaseID}

		if err := d.Manager.MoveCardToPhase(ctx, cardID, phaseID); err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		tools.LogAudit(d.Audit, toolName, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("card %q moved to phase %q", cardID, phaseID)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCardComment(d ToolDeps) tools.Registration {
	const toolName = "pipefy_card_comment"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Add a comment to a card. Double quotes are removed from the text."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Card ID")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Comment text")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		cardID := req.GetString("card_id", "")
		text := req.GetString("text", "")
		params := map[string]any{"card_id": cardID, "text": text}

		if err := d.Manager.MakeComment(ctx, cardID, text); err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		tools.LogAudit(d.Audit, toolName, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("comment added to card %q", cardID)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCardUpdateField(d ToolDeps) tools.Registration {
	const toolName = "pipefy_card_update_field"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Update one field of a card with a text value or a JSON array of values."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Card ID")),
		mcp.WithString("field_id", mcp.Required(), mcp.Description("Field ID")),
		mcp.WithString("value", mcp.Description("Text value")),
		mcp.WithString("values", mcp.Description("JSON array of values; takes precedence over value")),
		mcp.WithString("operation",
			mcp.Description("Optional list operation"),
			mcp.Enum("ADD", "REMOVE", "REPLACE"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		cardID := req.GetString("card_id", "")
		fieldID := req.GetString("field_id", "")
		rawValues := req.GetString("values", "")
		op := FieldOperation(req.GetString("operation", ""))
		params := map[string]any{"card_id": cardID, "field_id": fieldID, "operation": string(op)}

		var value any = req.GetString("value", "")
		if rawValues != "" {
			var list []any
			if err := json.Unmarshal([]byte(rawValues), &list); err != nil {
				return toolFailure(d.Audit, toolName, params, start, fmt.Errorf("parse values JSON: %w", err), false), nil
			}
			value = list
		}
		params["value"] = value

		if err := d.Manager.UpdateFieldValue(ctx, cardID, fieldID, value, op); err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		tools.LogAudit(d.Audit, toolName, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("field %q of card %q updated", fieldID, cardID)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCardUpdateFields(d ToolDeps) tools.Registration {
	const toolName = "pipefy_card_update_fields"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Update several fields of a card at once. Null values and empty arrays are skipped."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Card ID")),
		mcp.WithString("fields", mcp.Required(), mcp.Description(`JSON object of field ID to value, e.g. {"name":"Ana","tags":["a","b"]}`)),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		cardID := req.GetString("card_id", "")
		raw := req.GetString("fields", "")
		params := map[string]any{"card_id": cardID, "fields": raw}

		values, err := parseFieldMap(raw)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		if err := d.Manager.UpdateFieldValues(ctx, cardID, FieldAttributes(values)); err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		tools.LogAudit(d.Audit, toolName, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("%d fields of card %q submitted", len(values), cardID)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCardClearConnector(d ToolDeps) tools.Registration {
	const toolName = "pipefy_card_clear_connector"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Clear a connector field of a card."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Card ID")),
		mcp.WithString("field_id", mcp.Required(), mcp.Description("Connector field ID")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		cardID := req.GetString("card_id", "")
		fieldID := req.GetString("field_id", "")
		params := map[string]any{"card_id": cardID, "field_id": fieldID}

		ok, err := d.Manager.ClearConnectorField(ctx, cardID, fieldID)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		return toolOK(d.Audit, toolName, params, start, map[string]bool{"success": ok}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCardSetAssignees(d ToolDeps) tools.Registration {
	const toolName = "pipefy_card_set_assignees"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Replace the assignees of a card."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Card ID")),
		mcp.WithString("assignee_ids", mcp.Required(), mcp.Description("Comma separated user IDs")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		cardID := req.GetString("card_id", "")
		ids := splitIDs(req.GetString("assignee_ids", ""))
		params := map[string]any{"card_id": cardID, "assignee_ids": ids}

		if err := d.Manager.SetAssignees(ctx, cardID, ids); err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		tools.LogAudit(d.Audit, toolName, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("card %q now has %d assignees", cardID, len(ids))), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCardSetLabels(d ToolDeps) tools.Registration {
	const toolName = "pipefy_card_set_labels"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Replace the labels of a card. An empty list clears them."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Card ID")),
		mcp.WithString("label_ids", mcp.Description("Comma separated label IDs")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		cardID := req.GetString("card_id", "")
		ids := splitIDs(req.GetString("label_ids", ""))
		params := map[string]any{"card_id": cardID, "label_ids": ids}

		if err := d.Manager.SetLabels(ctx, cardID, ids); err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		tools.LogAudit(d.Audit, toolName, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("card %q now has %d labels", cardID, len(ids))), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCardSetDueDate(d ToolDeps) tools.Registration {
	const toolName = "pipefy_card_set_due_date"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Set the due date of a card."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Card ID")),
		mcp.WithString("due_date", mcp.Required(), mcp.Description("Due date, ISO 8601")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		cardID := req.GetString("card_id", "")
		due := req.GetString("due_date", "")
		params := map[string]any{"card_id": cardID, "due_date": due}

		if err := d.Manager.SetDueDate(ctx, cardID, due); err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		tools.LogAudit(d.Audit, toolName, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("due date of card %q set to %s", cardID, due)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCardCreate(d ToolDeps) tools.Registration {
	const toolName = "pipefy_card_create"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Create a card in a pipe and return its id."),
		mcp.WithString("pipe_id", mcp.Required(), mcp.Description("Pipe ID")),
		mcp.WithString("fields", mcp.Required(), mcp.Description(`JSON object of field ID to value, e.g. {"title":"x","tags":["y","z"]}`)),
		reportErrorParam(),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		pipeID := req.GetString("pipe_id", "")
		raw := req.GetString("fields", "")
		report := req.GetBool("report_error", false)
		params := map[string]any{"pipe_id": pipeID, "fields": raw}

		if err := d.Pipes.Check(pipeID); err != nil {
			return toolDenied(d.Audit, toolName, params, start, err), nil
		}
		values, err := parseFieldMap(raw)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		id, err := d.Manager.CreateCard(ctx, pipeID, FieldAttributes(values))
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, report), nil
		}
		return toolOK(d.Audit, toolName, params, start, map[string]string{"id": id}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCardDelete(d ToolDeps) tools.Registration {
	const toolName = ToolCardDelete

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Delete a card. Requires confirmation."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Card ID")),
		confirmationTokenParam(),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		cardID := req.GetString("card_id", "")
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"card_id": cardID}

		resource := "card " + cardID
		if prompt := tools.RequireConfirmation(d.Confirm, toolName, resource,
			fmt.Sprintf("This will permanently delete card %q.", cardID), token); prompt != nil {
			return prompt, nil
		}
		if err := d.Manager.DeleteCard(ctx, cardID); err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		tools.LogAudit(d.Audit, toolName, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("card %q deleted", cardID)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCardRelate(d ToolDeps) tools.Registration {
	const toolName = "pipefy_card_relate"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Connect a child card to a parent card through a pipe relation or a connector field."),
		mcp.WithString("child_id", mcp.Required(), mcp.Description("Child card ID")),
		mcp.WithString("parent_id", mcp.Required(), mcp.Description("Parent card ID")),
		mcp.WithString("source_id", mcp.Required(), mcp.Description("Pipe relation ID or connector field ID")),
		mcp.WithString("source_type",
			mcp.Description("What source_id refers to (default: PipeRelation)"),
			mcp.Enum(string(SourcePipeRelation), string(SourceField)),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		childID := req.GetString("child_id", "")
		parentID := req.GetString("parent_id", "")
		sourceID := req.GetString("source_id", "")
		sourceType := RelationSourceType(req.GetString("source_type", string(SourcePipeRelation)))
		params := map[string]any{"child_id": childID, "parent_id": parentID, "source_id": sourceID, "source_type": string(sourceType)}

		id, err := d.Manager.CreateCardRelation(ctx, childID, parentID, sourceID, sourceType)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		return toolOK(d.Audit, toolName, params, start, map[string]string{"id": id}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// bulkSummary is the JSON shape of bulk delete results.
type bulkSummary struct {
	Deleted int               `json:"deleted"`
	Failed  map[string]string `json:"failed,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func summarize(result *BulkResult, err error) bulkSummary {
	var s bulkSummary
	if result != nil {
		s.Deleted = result.Deleted()
		for _, o := range result.Failed() {
			if s.Failed == nil {
				s.Failed = make(map[string]string)
			}
			s.Failed[o.ID] = o.Err.Error()
		}
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

func toolPipeClear(d ToolDeps) tools.Registration {
	const toolName = ToolPipeClear

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Delete every card of a pipe, page by page. Requires confirmation."),
		mcp.WithString("pipe_id", mcp.Required(), mcp.Description("Pipe ID")),
		confirmationTokenParam(),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		pipeID := req.GetString("pipe_id", "")
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"pipe_id": pipeID}

		if err := d.Pipes.Check(pipeID); err != nil {
			return toolDenied(d.Audit, toolName, params, start, err), nil
		}
		resource := "pipe " + pipeID
		if prompt := tools.RequireConfirmation(d.Confirm, toolName, resource,
			fmt.Sprintf("This will permanently delete every card of pipe %q.", pipeID), token); prompt != nil {
			return prompt, nil
		}

		result, err := d.Manager.ClearPipe(ctx, pipeID)
		summary := summarize(result, err)
		outcome := "ok"
		if err != nil {
			outcome = "error: " + err.Error()
		} else if len(summary.Failed) > 0 {
			outcome = fmt.Sprintf("partial: %d failed", len(summary.Failed))
		}
		tools.LogAudit(d.Audit, toolName, params, outcome, start)
		res := tools.JSONResult(summary)
		res.IsError = err != nil
		return res, nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
