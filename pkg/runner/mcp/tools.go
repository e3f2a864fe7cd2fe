package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// toolFunc returns the value encoded as the tool result. Errors become tool
// errors the assistant can read, never protocol failures.
type toolFunc func(ctx context.Context, req mcp.CallToolRequest) (any, error)

func (f toolFunc) handler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := f(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		raw, err := json.Marshal(out)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(raw)), nil
	}
}

var visibilityValues = []string{"private", "protected", "public"}

type writeArgs struct {
	ID         string   `json:"id"`
	Content    string   `json:"content"`
	Visibility string   `json:"visibility"`
	Tags       []string `json:"tags"`
}

func (a writeArgs) options() WriteOptions {
	return WriteOptions{Content: a.Content, Visibility: a.Visibility, Tags: a.Tags}
}

func bindWrite(req mcp.CallToolRequest) (writeArgs, error) {
	var args writeArgs
	if err := req.BindArguments(&args); err != nil {
		return args, fmt.Errorf("invalid arguments: %w", err)
	}
	return args, nil
}

func idParam(verb string) mcp.ToolOption {
	return mcp.WithString("id", mcp.Required(), mcp.Description("Memo identifier to "+verb+"."))
}

func visibilityParam(desc string) mcp.ToolOption {
	return mcp.WithString("visibility", mcp.Description(desc), mcp.Enum(visibilityValues...))
}

func tagsParam(desc string) mcp.ToolOption {
	return mcp.WithArray("tags", mcp.Description(desc), mcp.Items(map[string]any{"type": "string"}))
}

func registerTools(srv *server.MCPServer, svc *Service) {
	tools := []struct {
		tool mcp.Tool
		fn   toolFunc
	}{{
		tool: mcp.NewTool("create_memo",
			mcp.WithDescription("Create a new memo. The widget refreshes afterwards."),
			mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content of the memo.")),
			visibilityParam("Who can see the memo; defaults to private."),
			tagsParam("Tags to attach; defaults to the #hashtags in the content."),
		),
		fn: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			args, err := bindWrite(req)
			if err != nil {
				return nil, err
			}
			return svc.CreateMemo(ctx, args.options())
		},
	}, {
		tool: mcp.NewTool("edit_memo",
			mcp.WithDescription("Replace the content of an existing memo. Attachments are kept."),
			idParam("edit"),
			mcp.WithString("content", mcp.Required(), mcp.Description("New markdown content.")),
			visibilityParam("New visibility; unchanged when omitted."),
			tagsParam("Tags to set; defaults to the #hashtags in the content."),
		),
		fn: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			args, err := bindWrite(req)
			if err != nil {
				return nil, err
			}
			if args.ID == "" {
				return nil, errors.New("id is required")
			}
			return svc.EditMemo(ctx, args.ID, args.options())
		},
	}, {
		tool: mcp.NewTool("delete_memo",
			mcp.WithDescription("Delete a memo and its attachments."),
			idParam("delete"),
		),
		fn: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return nil, err
			}
			if err := svc.DeleteMemo(ctx, id); err != nil {
				return nil, err
			}
			return map[string]any{"id": id, "deleted": true}, nil
		},
	}, {
		tool: mcp.NewTool("list_memos",
			mcp.WithDescription("List memos, most recent first."),
			mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum number of memos to return (default %d).", DefaultListLimit))),
			mcp.WithString("tag", mcp.Description("Only memos carrying this tag.")),
			mcp.WithString("query", mcp.Description("Only memos whose content contains this text (case-insensitive).")),
		),
		fn: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			memos, err := svc.ListMemos(ctx, ListOptions{
				Limit: req.GetInt("limit", DefaultListLimit),
				Tag:   req.GetString("tag", ""),
				Query: req.GetString("query", ""),
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{"memos": memos, "count": len(memos)}, nil
		},
	}, {
		tool: mcp.NewTool("get_memo",
			mcp.WithDescription("Fetch a single memo by identifier."),
			idParam("fetch"),
		),
		fn: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return nil, err
			}
			return svc.GetMemo(ctx, id)
		},
	}, {
		tool: mcp.NewTool("open_memo",
			mcp.WithDescription("Open a memo in the memos app for editing. If the app is not running it opens there on next launch."),
			idParam("open"),
		),
		fn: func(_ context.Context, req mcp.CallToolRequest) (any, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return nil, err
			}
			return svc.OpenMemo(id)
		},
	}, {
		tool: mcp.NewTool("compose_memo",
			mcp.WithDescription("Open the compose screen of the memos app."),
		),
		fn: func(context.Context, mcp.CallToolRequest) (any, error) {
			return svc.Compose()
		},
	}}

	for _, t := range tools {
		srv.AddTool(t.tool, t.fn.handler())
	}
}
