package outline

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/domoutline/kit"
)

// RegisterMCP registers the outline tools on an MCP server. Every tool
// works on a session; the build tools open one when session_id is empty
// and return its id.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	sessionID := map[string]any{"type": "string", "description": "Session returned by a build tool"}
	nodeID := map[string]any{"type": "integer", "description": "Internal node id (see outline_resolve)"}

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "outline_build_html",
		Description: "Compile raw HTML into a numbered outline of the visible, interactive elements.",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionID,
			"html":       map[string]any{"type": "string", "description": "Full HTML document"},
			"url":        map[string]any{"type": "string", "description": "Page URL, used to resolve relative links"},
			"title":      map[string]any{"type": "string", "description": "Page title for the observation header"},
		}, []string{"html"}),
	}, s.BuildHTML(), kit.DecodeArgs[BuildHTMLRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "outline_build_snapshot",
		Description: "Compile a pre-walked DOM snapshot ({nodeMap, rootId}) into a numbered outline.",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionID,
			"snapshot":   map[string]any{"type": "object", "description": "Snapshot with nodeMap and rootId"},
			"url":        map[string]any{"type": "string"},
			"title":      map[string]any{"type": "string"},
		}, []string{"snapshot"}),
	}, s.BuildSnapshot(), kit.DecodeArgs[BuildSnapshotRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "outline_resolve",
		Description: "Map an outline number [n] of the last render to its node id, role and content.",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionID,
			"index":      map[string]any{"type": "integer", "description": "Outline number, starting at 1"},
		}, []string{"session_id", "index"}),
	}, s.Resolve(), kit.DecodeArgs[IndexRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "outline_locate",
		Description: "Return a CSS selector, an XPath and the iframe chain for a node id.",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionID,
			"node_id":    nodeID,
		}, []string{"session_id", "node_id"}),
	}, s.Locate(), kit.DecodeArgs[NodeRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "outline_content",
		Description: "Return the content a node showed in the last render.",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionID,
			"node_id":    nodeID,
		}, []string{"session_id", "node_id"}),
	}, s.Content(), kit.DecodeArgs[NodeRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "outline_read",
		Description: "Return the kept subtree of a node as markdown (default) or sanitized HTML.",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionID,
			"node_id":    nodeID,
			"format":     map[string]any{"type": "string", "enum": []any{"markdown", "html"}},
		}, []string{"session_id", "node_id"}),
	}, s.Read(), kit.DecodeArgs[ReadRequest]())
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
