package system

import (
	"github.com/julianstephens/remindr/internal/cli"
	"github.com/julianstephens/remindr/internal/mcp"
)

// MCPCmd serves the reminder tools to an MCP client over stdio.
type MCPCmd struct{}

func (c *MCPCmd) Run(ctx *cli.Context) error {
	return mcp.NewServer(ctx.Reminders, ctx.Now).ServeStdio()
}
