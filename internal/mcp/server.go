// Package mcp exposes the bridge operations as Model Context Protocol
// tools over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fmbridge/fmbridge/internal/client"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def       mcp.Tool
	handler   func(*Handlers) server.ToolHandlerFunc
	writeOnly bool
}

// toolRegistry maps tool names to their definitions and handler
// factories. Write-only tools are registered only when writes are
// enabled.
var toolRegistry = map[string]toolEntry{
	"mail_list_messages": {
		def:     listMessagesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListMessages },
	},
	"mail_search_messages": {
		def:     searchMessagesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearchMessages },
	},
	"mail_get_message": {
		def:     getMessageToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetMessage },
	},
	"mail_list_mailboxes": {
		def:     listMailboxesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListMailboxes },
	},
	"contacts_list": {
		def:     listContactsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListContacts },
	},
	"calendar_list_events": {
		def:     listEventsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListEvents },
	},
	"mail_send_message": {
		def:       sendMessageToolDef,
		handler:   func(h *Handlers) server.ToolHandlerFunc { return h.HandleSendMessage },
		writeOnly: true,
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

// NewServer creates a new MCP server with the bridge tools registered.
func NewServer(svc client.Service, enableWrite bool, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"fmbridge",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(svc)
	for _, entry := range toolRegistry {
		if entry.writeOnly && !enableWrite {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(svc client.Service, enableWrite bool, version string) error {
	s := NewServer(svc, enableWrite, version)
	return server.ServeStdio(s)
}
