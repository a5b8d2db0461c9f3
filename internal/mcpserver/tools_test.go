package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/joestump/variantdocs/internal/metadata"
	"github.com/joestump/variantdocs/internal/releases"
)

// --- Mocks ---

type mockSource struct {
	calls int
	err   error
}

func (m *mockSource) FetchChangeLog(_ context.Context, r releases.Release) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return "* dbsnp updated for " + r.Key(), nil
}

type mockMeta struct {
	meta *metadata.Metadata
	err  error
}

func (m *mockMeta) Metadata(context.Context) (*metadata.Metadata, error) {
	return m.meta, m.err
}

// --- Helpers ---

func newTestServer(t *testing.T, source *mockSource, meta *mockMeta) *Server {
	t.Helper()
	col := releases.NewCollection()
	col.AppendResponses([]releases.Release{
		{TargetVersion: "20230501", ReleaseDate: "2023-05-01T10:00:00Z"},
		{TargetVersion: "20211130", ReleaseDate: "2021-11-30"},
	}, releases.HG19)
	col.AppendResponses([]releases.Release{
		{TargetVersion: "20230501", ReleaseDate: "2023-05-01T12:00:00Z"},
	}, releases.HG38)

	catalog, err := metadata.ParseCatalog([]byte("sources:\n  - {name: dbSNP, key: dbsnp}\n  - {name: CADD, key: cadd}\n"))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	return NewServer(col, source, meta, catalog)
}

func makeRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("result content is %T, not TextContent", result.Content[0])
	}
	return tc.Text
}

// --- Tests ---

func TestListReleases(t *testing.T) {
	s := newTestServer(t, &mockSource{}, &mockMeta{})

	result, err := s.handleListReleases(context.Background(), makeRequest("list_releases", map[string]any{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	var dates []releaseDateResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &dates); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(dates) != 2 || dates[0].Date != "2023-05-01" || dates[1].Date != "2021-11-30" {
		t.Fatalf("unexpected dates %+v", dates)
	}
	if got := dates[0].Releases; len(got) != 2 || got[0].ID != "20230501-hg19" || got[1].ID != "20230501-hg38" {
		t.Errorf("unexpected siblings %+v", got)
	}
}

func TestListReleases_AssemblyFilter(t *testing.T) {
	s := newTestServer(t, &mockSource{}, &mockMeta{})

	result, _ := s.handleListReleases(context.Background(), makeRequest("list_releases", map[string]any{"assembly": "hg38"}))
	var dates []releaseDateResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &dates); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(dates) != 1 || len(dates[0].Releases) != 1 || dates[0].Releases[0].Assembly != "hg38" {
		t.Errorf("unexpected filtered dates %+v", dates)
	}

	result, _ = s.handleListReleases(context.Background(), makeRequest("list_releases", map[string]any{"assembly": "mm10"}))
	if !result.IsError {
		t.Error("expected error for unknown assembly")
	}
}

func TestGetChangeLog_FetchesOnce(t *testing.T) {
	src := &mockSource{}
	s := newTestServer(t, src, &mockMeta{})
	req := makeRequest("get_changelog", map[string]any{"id": "20211130-hg19"})

	for i := 0; i < 2; i++ {
		result, err := s.handleGetChangeLog(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %s", resultText(t, result))
		}
		var out changeLogResult
		if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.ChangeLog != "* dbsnp updated for hg19/20211130" {
			t.Errorf("unexpected change-log %q", out.ChangeLog)
		}
	}
	if src.calls != 1 {
		t.Errorf("expected 1 fetch, got %d", src.calls)
	}
}

func TestGetChangeLog_Errors(t *testing.T) {
	src := &mockSource{err: errors.New("status 404")}
	s := newTestServer(t, src, &mockMeta{})

	result, _ := s.handleGetChangeLog(context.Background(), makeRequest("get_changelog", map[string]any{}))
	if !result.IsError || !strings.Contains(resultText(t, result), "id is required") {
		t.Error("expected missing id error")
	}

	result, _ = s.handleGetChangeLog(context.Background(), makeRequest("get_changelog", map[string]any{"id": "nope"}))
	if !result.IsError || !strings.Contains(resultText(t, result), "unknown release") {
		t.Error("expected unknown release error")
	}

	result, _ = s.handleGetChangeLog(context.Background(), makeRequest("get_changelog", map[string]any{"id": "20230501-hg38"}))
	if !result.IsError || !strings.Contains(resultText(t, result), "status 404") {
		t.Errorf("expected load error, got %s", resultText(t, result))
	}

	// The failed node is retried on the next call.
	src.err = nil
	result, _ = s.handleGetChangeLog(context.Background(), makeRequest("get_changelog", map[string]any{"id": "20230501-hg38"}))
	if result.IsError {
		t.Errorf("expected retry to succeed, got %s", resultText(t, result))
	}
}

func TestGetMetadata(t *testing.T) {
	meta := &mockMeta{meta: &metadata.Metadata{
		Stats:      map[string]int64{"total": 424242, "cadd": 1000},
		SrcVersion: map[string]string{"dbsnp": "151"},
	}}
	s := newTestServer(t, &mockSource{}, meta)

	result, err := s.handleGetMetadata(context.Background(), makeRequest("get_metadata", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out metadataResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Total != "424,242" || len(out.Sources) != 2 {
		t.Fatalf("unexpected metadata %+v", out)
	}
	if out.Sources[0].Version != "151" || out.Sources[1].Count != "1,000" {
		t.Errorf("unexpected sources %+v", out.Sources)
	}

	meta.err = errors.New("timeout")
	result, _ = s.handleGetMetadata(context.Background(), makeRequest("get_metadata", nil))
	if !result.IsError {
		t.Error("expected error result")
	}
}
