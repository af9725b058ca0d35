package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/locky/internal/config"
	"github.com/hpungsan/locky/internal/describe"
	"github.com/hpungsan/locky/internal/vault"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"vault_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"vault_add": {
		def:     addToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAdd },
	},
	"vault_paste": {
		def:     pasteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePaste },
	},
	"vault_remove": {
		def:     removeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRemove },
	},
	"vault_describe": {
		def:     describeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDescribe },
	},
	"vault_set_description": {
		def:     setDescriptionToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetDescription },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the vault tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(m *vault.Manager, d describe.Describer, cfg *config.Config, version string, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"locky",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(m, d, logger)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(m *vault.Manager, d describe.Describer, cfg *config.Config, version string, logger *zap.Logger) error {
	s := NewServer(m, d, cfg, version, logger)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
