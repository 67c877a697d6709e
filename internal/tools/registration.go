package tools

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Registration pairs an MCP tool definition with its handler function.
type Registration struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// RegisterAll adds every Registration from each group to the given MCP
// server.
func RegisterAll(s *server.MCPServer, groups ...[]Registration) {
	for _, group := range groups {
		for _, r := range group {
			s.AddTool(r.Tool, r.Handler)
		}
	}
}

// Names returns the sorted tool names across all groups.
func Names(groups ...[]Registration) []string {
	var names []string
	for _, group := range groups {
		for _, r := range group {
			names = append(names, r.Tool.Name)
		}
	}
	sort.Strings(names)
	return names
}
