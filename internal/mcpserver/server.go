// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Vitrine curation tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/models"
	"github.com/starford/vitrine/internal/portfolio"
)

const layoutFormatURI = "vitrine://layout-format"

// Server wraps the MCP server with Vitrine tools.
type Server struct {
	mcp *server.MCPServer
	svc *portfolio.Service
}

// New creates a new MCP server with all Vitrine tools registered.
func New(svc *portfolio.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Vitrine",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_works",
		mcp.WithDescription("List catalog works and user photos with their exhibition state. "+
			"Optionally filter by tags (a work must carry every tag given)."),
		mcp.WithString("tags", mcp.Description("Optional comma-separated tags to filter by")),
	), s.listWorks)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag used by catalog works and user photos."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("get_exhibition",
		mcp.WithDescription("Return the current exhibition canvas: items in order with positions, "+
			"widths and resolved captions."),
	), s.getExhibition)

	s.mcp.AddTool(mcp.NewTool("add_to_exhibition",
		mcp.WithDescription("Place a work on the exhibition canvas at the default position. "+
			"A work can appear at most once."),
		mcp.WithString("photo_id", mcp.Required(), mcp.Description("Id of the catalog work or user photo")),
	), s.addToExhibition)

	s.mcp.AddTool(mcp.NewTool("add_text_block",
		mcp.WithDescription("Add a text block to the canvas, optionally setting its content and size."),
		mcp.WithString("content", mcp.Description("Text content")),
		mcp.WithString("font_size", mcp.Description("small, medium or large"), mcp.Enum("small", "medium", "large")),
	), s.addTextBlock)

	s.mcp.AddTool(mcp.NewTool("resize_item",
		mcp.WithDescription("Change an item's width by delta percent. The width must stay within 8% and 50%; "+
			"an out-of-range result is rejected and the width is unchanged."),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Layout item id")),
		mcp.WithNumber("delta", mcp.Required(), mcp.Description("Width change in percent, e.g. 2 or -2")),
	), s.resizeItem)

	s.mcp.AddTool(mcp.NewTool("remove_from_exhibition",
		mcp.WithDescription("Remove an item from the canvas by its layout item id."),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Layout item id")),
	), s.removeFromExhibition)

	s.mcp.AddTool(mcp.NewTool("add_photo",
		mcp.WithDescription("Add a user photo from a base64 data URI or an http(s) URL. "+
			"The image is downscaled and stored in the user collection."),
		mcp.WithString("image", mcp.Required(), mcp.Description("data:image/...;base64,... or http(s) URL")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Photo title")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
	), s.addPhoto)

	s.mcp.AddTool(mcp.NewTool("get_layout_contract",
		mcp.WithDescription("Returns the exhibition layout format contract. "+
			"Call this before positioning or resizing items."),
	), s.getLayoutContract)

	// Resource: layout format contract.
	s.mcp.AddResource(
		mcp.NewResource(layoutFormatURI, "Layout Format Contract",
			mcp.WithResourceDescription("Coordinate system and limits of the exhibition canvas."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLayoutFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError turns a domain error into a readable tool failure.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError(portfolio.NoticeDuplicate)
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %v", err))
	case errors.Is(err, apperr.ErrOutOfRange):
		return mcp.NewToolResultError("width must stay between 8% and 50%")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

// mcpInstance is the filter instance used by tool calls, kept apart from
// the browser views.
const mcpInstance = "mcp"

func (s *Server) listWorks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.svc.SetFilter(mcpInstance, models.ParseTagList(req.GetString("tags", "")))
	return jsonResult(s.svc.Works(mcpInstance))
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Tags())
}

func (s *Server) getExhibition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Canvas())
}

func (s *Server) addToExhibition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("photo_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	it, err := s.svc.AddToExhibition(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(it)
}

func (s *Server) addTextBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	it, err := s.svc.AddTextBlock(ctx,
		req.GetString("content", ""),
		models.FontSize(req.GetString("font_size", "")))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(it)
}

func (s *Server) resizeItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	delta, err := req.RequireFloat("delta")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	it, err := s.svc.Resize(ctx, id, delta)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(it)
}

func (s *Server) removeFromExhibition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.RemoveItem(ctx, id); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed: %s", id)), nil
}

func (s *Server) getLayoutContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LayoutFormatContract), nil
}

func (s *Server) readLayoutFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      layoutFormatURI,
			MIMEType: "text/markdown",
			Text:     LayoutFormatContract,
		},
	}, nil
}
