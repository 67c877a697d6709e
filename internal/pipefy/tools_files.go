package pipefy

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/jamesprial/pipefy-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func mailTools(d ToolDeps) []tools.Registration {
	return []tools.Registration{
		toolEmailCreate(d),
		toolEmailSend(d),
	}
}

func fileTools(d ToolDeps) []tools.Registration {
	return []tools.Registration{
		toolPresignedURL(d),
		toolUploadURL(d),
		toolUploadBase64(d),
		toolUploadObject(d),
	}
}

func toolEmailCreate(d ToolDeps) tools.Registration {
	const toolName = "pipefy_email_create"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Draft an inbox e-mail on a card and return its id. Send it with pipefy_email_send."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Card ID")),
		mcp.WithString("pipe_id", mcp.Required(), mcp.Description("Pipe ID of the card")),
		mcp.WithString("from", mcp.Required(), mcp.Description("Sender address")),
		mcp.WithString("from_name", mcp.Description("Sender display name")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Recipient address")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Subject")),
		mcp.WithString("html", mcp.Required(), mcp.Description("HTML body")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		email := InboxEmail{
			CardID:   req.GetString("card_id", ""),
			PipeID:   req.GetString("pipe_id", ""),
			From:     req.GetString("from", ""),
			FromName: req.GetString("from_name", ""),
			To:       req.GetString("to", ""),
			Subject:  req.GetString("subject", ""),
			HTML:     req.GetString("html", ""),
		}
		params := map[string]any{"card_id": email.CardID, "pipe_id": email.PipeID, "to": email.To, "subject": email.Subject}

		if err := d.Pipes.Check(email.PipeID); err != nil {
			return toolDenied(d.Audit, toolName, params, start, err), nil
		}
		id, err := d.Manager.CreateInboxEmail(ctx, email)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		return toolOK(d.Audit, toolName, params, start, map[string]string{"id": id}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolEmailSend(d ToolDeps) tools.Registration {
	const toolName = ToolEmailSend

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Send a drafted inbox e-mail. Requires confirmation."),
		mcp.WithString("email_id", mcp.Required(), mcp.Description("Inbox e-mail ID")),
		confirmationTokenParam(),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		emailID := req.GetString("email_id", "")
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"email_id": emailID}

		if prompt := tools.RequireConfirmation(d.Confirm, toolName, "e-mail "+emailID,
			fmt.Sprintf("This will send inbox e-mail %q.", emailID), token); prompt != nil {
			return prompt, nil
		}
		if err := d.Manager.SendInboxEmail(ctx, emailID); err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		tools.LogAudit(d.Audit, toolName, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("e-mail %q sent", emailID)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// uploadResult is the JSON shape of upload tools.
type uploadResult struct {
	Path string `json:"path"`
}

func toolPresignedURL(d ToolDeps) tools.Registration {
	const toolName = "pipefy_presigned_url"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Get a short-lived URL to PUT a file into Pipefy storage."),
		mcp.WithString("file_name", mcp.Required(), mcp.Description("File name")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("file_name", "")
		params := map[string]any{"file_name": name}

		u, err := d.Manager.PresignedURL(ctx, name)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		return toolOK(d.Audit, toolName, params, start, map[string]string{"url": u}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolUploadURL(d ToolDeps) tools.Registration {
	const toolName = "pipefy_upload_url"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Download a file from a URL and upload it to Pipefy storage. Returns the path to put in an attachment field."),
		mcp.WithString("source_url", mcp.Required(), mcp.Description("URL of the file")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		src := req.GetString("source_url", "")
		params := map[string]any{"source_url": src}

		p, err := d.Manager.UploadFileFromURL(ctx, src)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		return toolOK(d.Audit, toolName, params, start, uploadResult{Path: p}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolUploadBase64(d ToolDeps) tools.Registration {
	const toolName = "pipefy_upload_base64"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Upload base64 encoded content to Pipefy storage as application/octet-stream."),
		mcp.WithString("file_name", mcp.Required(), mcp.Description("File name")),
		mcp.WithString("content_base64", mcp.Required(), mcp.Description("File content, standard base64")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("file_name", "")
		encoded := req.GetString("content_base64", "")
		params := map[string]any{"file_name": name, "content_base64": encoded}

		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, fmt.Errorf("decode content: %w", err), false), nil
		}
		p, err := d.Manager.UploadFileFromBuffer(ctx, name, data)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		return toolOK(d.Audit, toolName, params, start, uploadResult{Path: p}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolUploadObject(d ToolDeps) tools.Registration {
	const toolName = "pipefy_upload_object"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Copy an object from the configured S3 bucket store into Pipefy storage."),
		mcp.WithString("bucket", mcp.Required(), mcp.Description("Bucket name")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Object key")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		bucket := req.GetString("bucket", "")
		key := req.GetString("key", "")
		params := map[string]any{"bucket": bucket, "key": key}

		p, err := d.Manager.UploadFileFromObject(ctx, bucket, key)
		if err != nil {
			return toolFailure(d.Audit, toolName, params, start, err, false), nil
		}
		return toolOK(d.Audit, toolName, params, start, uploadResult{Path: p}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
