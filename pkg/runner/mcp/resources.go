package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tableflip.dev/memos/pkg/widget"
)

// RecentURI lists the memos the widget would show.
const RecentURI = "memos://recent"

func registerResources(srv *server.MCPServer, svc *Service) {
	registerRecentResource(srv, svc)
	registerMemoTemplate(srv, svc)
}

func registerRecentResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		RecentURI,
		"Recent memos",
		mcp.WithResourceDescription("The most recent memos, as shown on the widget."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		memos, err := svc.ListMemos(ctx, ListOptions{Limit: widget.DefaultCap})
		if err != nil {
			return nil, err
		}
		payload := map[string]any{
			"memos": memos,
			"count": len(memos),
		}
		return encodeResourceJSON(request.Params.URI, payload)
	})
}

func registerMemoTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"memos://memos/{id}",
		"Memo",
		mcp.WithTemplateDescription("A single memo with its content."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := templateArg(request.Params.Arguments["id"])
		if id == "" {
			return nil, fmt.Errorf("memo id is required")
		}
		dto, err := svc.GetMemo(ctx, id)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, map[string]any{"memo": dto})
	})
}

// templateArg reads a URI template variable, which the server may hand over
// as a string or a one-element list.
func templateArg(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		if len(t) > 0 {
			return t[0]
		}
	}
	return ""
}

func encodeResourceJSON(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
