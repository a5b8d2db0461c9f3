package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/joestump/variantdocs/internal/releases"
)

// --- Tool Definitions ---

func listReleasesTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"list_releases",
		"List data releases grouped by release date, newest first. Each release has an id usable with get_changelog.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"assembly": {
					"type": "string",
					"enum": ["hg19", "hg38"],
					"description": "Only list releases of this genome assembly (optional)"
				}
			}
		}`),
	)
}

func getChangeLogTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"get_changelog",
		"Get the full change-log text of one release.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {
					"type": "string",
					"description": "Release id from list_releases, e.g. 20230501-hg19"
				}
			},
			"required": ["id"]
		}`),
	)
}

func getMetadataTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"get_metadata",
		"Get the total variant count and the version and variant count of every data source.",
		json.RawMessage(`{"type": "object", "properties": {}}`),
	)
}

// --- Tool Handlers ---

type listReleasesArgs struct {
	Assembly string `json:"assembly"`
}

type releaseDateResult struct {
	Date     string          `json:"date"`
	Releases []releaseResult `json:"releases"`
}

type releaseResult struct {
	ID            string `json:"id"`
	TargetVersion string `json:"target_version"`
	Assembly      string `json:"assembly"`
	ReleaseDate   string `json:"release_date"`
}

func (s *Server) handleListReleases(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args listReleasesArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	var only releases.Assembly
	if args.Assembly != "" {
		a, err := releases.ParseAssembly(args.Assembly)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		only = a
	}

	dates := []releaseDateResult{}
	for _, p := range s.board.Panels() {
		d := releaseDateResult{Date: p.Anchor}
		for _, n := range p.Nodes {
			if only != "" && n.Release.Assembly != only {
				continue
			}
			d.Releases = append(d.Releases, releaseResult{
				ID:            n.ID,
				TargetVersion: n.Release.TargetVersion,
				Assembly:      string(n.Release.Assembly),
				ReleaseDate:   n.Release.ReleaseDate,
			})
		}
		if len(d.Releases) > 0 {
			dates = append(dates, d)
		}
	}
	return resultJSON(dates)
}

type changeLogArgs struct {
	ID string `json:"id"`
}

type changeLogResult struct {
	ID        string `json:"id"`
	ChangeLog string `json:"changelog"`
}

func (s *Server) handleGetChangeLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args changeLogArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.ID == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	node, err := s.board.Node(args.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown release %q", args.ID)), nil
	}
	// A collapsed node is loaded by toggling it open; loaded and hidden
	// nodes already hold their text.
	if node.State == releases.StateCollapsed {
		node, err = s.board.Toggle(ctx, args.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load %s: %v", args.ID, err)), nil
		}
	}
	switch {
	case node.Err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("load %s: %v", args.ID, node.Err)), nil
	case node.State == releases.StateLoading:
		return mcp.NewToolResultError(fmt.Sprintf("%s is still loading, try again", args.ID)), nil
	}

	log.Printf("[MCP] served change-log %s (%d bytes)", args.ID, len(node.Text))
	return resultJSON(changeLogResult{ID: node.ID, ChangeLog: node.Text})
}

type sourceResult struct {
	Name    string `json:"name"`
	Key     string `json:"key"`
	Version string `json:"version,omitempty"`
	Count   string `json:"count,omitempty"`
}

type metadataResult struct {
	Total   string         `json:"total"`
	Sources []sourceResult `json:"sources"`
}

func (s *Server) handleGetMetadata(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := s.meta.Metadata(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get metadata: %v", err)), nil
	}

	summary := s.catalog.Summarize(m)
	out := metadataResult{Total: summary.Total, Sources: make([]sourceResult, len(summary.Rows))}
	for i, r := range summary.Rows {
		out.Sources[i] = sourceResult{Name: r.Name, Key: r.Key, Version: r.Version, Count: r.Count}
	}
	return resultJSON(out)
}

// resultJSON marshals v to JSON and returns it as a tool result.
func resultJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
