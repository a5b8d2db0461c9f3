// Package demo runs the interactive example searches against the variant
// annotation API.
package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SearchType selects which API endpoint a search targets.
type SearchType int

const (
	TypeVariant  SearchType = 1 // one or more HGVS ids
	TypeQuery    SearchType = 2 // full-text query
	TypeMetadata SearchType = 3
	TypeFields   SearchType = 4
)

// ParseSearchType maps a form value to a SearchType, defaulting to TypeVariant.
func ParseSearchType(s string) SearchType {
	n, err := strconv.Atoi(s)
	if err != nil || n < int(TypeVariant) || n > int(TypeFields) {
		return TypeVariant
	}
	return SearchType(n)
}

// TakesInput reports whether the main and fields inputs apply.
func (t SearchType) TakesInput() bool {
	return t == TypeVariant || t == TypeQuery
}

// Sizes offered for full-text queries.
var Sizes = []int{10, 25, 50, 100, 1000}

const defaultSize = 10

// Request is one submitted demo search.
type Request struct {
	Type   SearchType
	Query  string
	Fields string
	Size   int
}

// Result is what the results panel shows. Exactly one of Error or JSON is set.
type Result struct {
	URL       string
	TotalLine string
	JSON      string
	Error     string
}

// Searcher issues demo searches against an API base URL.
type Searcher struct {
	client  *http.Client
	baseURL string
}

// NewSearcher creates a Searcher. baseURL has no trailing slash.
func NewSearcher(baseURL string, timeout time.Duration) *Searcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Searcher{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// NormalizeFields trims one trailing separator and defaults to "all".
func NormalizeFields(fields string) string {
	fields = strings.TrimSuffix(fields, ", ")
	fields = strings.TrimSuffix(fields, ",")
	if strings.TrimSpace(fields) == "" {
		return "all"
	}
	return fields
}

// Search runs req and returns the rendered result. Transport and status
// failures become the per-type error message.
func (s *Searcher) Search(ctx context.Context, req Request) Result {
	fields := NormalizeFields(req.Fields)
	size := req.Size
	if size <= 0 {
		size = defaultSize
	}

	var (
		method = http.MethodGet
		target string
		body   io.Reader
		shown  string
	)
	switch req.Type {
	case TypeQuery:
		target = s.baseURL + "/v1/query?q=" + url.QueryEscape(req.Query) +
			"&fields=" + url.QueryEscape(fields) + "&size=" + strconv.Itoa(size)
		shown = target
	case TypeMetadata:
		target = s.baseURL + "/metadata"
		shown = target
	case TypeFields:
		target = s.baseURL + "/metadata/fields"
		shown = target
	default:
		if strings.Contains(req.Query, ",") {
			method = http.MethodPost
			target = s.baseURL + "/v1/variant"
			body = strings.NewReader(url.Values{"ids": {req.Query}, "fields": {fields}}.Encode())
		} else {
			target = s.baseURL + "/v1/variant/" + url.PathEscape(req.Query) + "?fields=" + url.QueryEscape(fields)
			shown = target
		}
	}

	data, err := s.do(ctx, method, target, body)
	if err != nil {
		return Result{Error: errorMessage(req)}
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return Result{Error: errorMessage(req)}
	}
	return Result{URL: shown, TotalLine: totalLine(data), JSON: pretty.String()}
}

func (s *Searcher) do(ctx context.Context, method, target string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return data, nil
}

func errorMessage(req Request) string {
	switch req.Type {
	case TypeQuery:
		return "Couldn't retrieve results for query " + req.Query + "."
	case TypeMetadata:
		return "Couldn't retrieve MyVariant database metadata.  API error."
	case TypeFields:
		return "Couldn't retrieve available fields.  API error."
	default:
		if strings.Contains(req.Query, ",") {
			return "Error retrieving annotations."
		}
		return "Couldn't retrieve annotation " + req.Query + ".  "
	}
}

// totalLine is empty unless the response object carries a "total".
func totalLine(data []byte) string {
	var page struct {
		Total *json.Number      `json:"total"`
		Hits  []json.RawMessage `json:"hits"`
	}
	if err := json.Unmarshal(data, &page); err != nil || page.Total == nil {
		return ""
	}
	return fmt.Sprintf("%s total result(s).  Showing top %d result(s).", page.Total.String(), len(page.Hits))
}
