// Package mcpserver implements an MCP (Model Context Protocol) server that
// exposes the aggregated release notes and source metadata as typed tools
// over stdio JSON-RPC.
package mcpserver

import (
	"context"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/joestump/variantdocs/internal/config"
	"github.com/joestump/variantdocs/internal/metadata"
	"github.com/joestump/variantdocs/internal/releases"
)

// MetadataSource provides the metadata document.
type MetadataSource interface {
	Metadata(ctx context.Context) (*metadata.Metadata, error)
}

// Server holds the MCP server state. Change-logs fetched through
// get_changelog stay cached on its board for the life of the process.
type Server struct {
	board   *releases.Board
	meta    MetadataSource
	catalog *metadata.Catalog
}

// NewServer creates an MCP server over col.
func NewServer(col *releases.Collection, source releases.ChangeLogSource, meta MetadataSource, catalog *metadata.Catalog) *Server {
	return &Server{
		board:   releases.NewBoard(col, source),
		meta:    meta,
		catalog: catalog,
	}
}

// Run starts the MCP stdio server. It blocks until the context is cancelled
// or stdin is closed.
func (s *Server) Run(ctx context.Context) error {
	mcpServer := server.NewMCPServer(
		"variantdocs",
		config.Version,
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTools(
		server.ServerTool{Tool: listReleasesTool(), Handler: s.handleListReleases},
		server.ServerTool{Tool: getChangeLogTool(), Handler: s.handleGetChangeLog},
		server.ServerTool{Tool: getMetadataTool(), Handler: s.handleGetMetadata},
	)

	stdio := server.NewStdioServer(mcpServer)
	stdio.SetErrorLogger(log.New(os.Stderr, "[mcp] ", log.LstdFlags))

	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
