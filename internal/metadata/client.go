package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Metadata is the API's /metadata document. Both the current "src" layout
// and the older "src_version" map are accepted.
type Metadata struct {
	Stats      map[string]int64  `json:"stats"`
	Src        map[string]Source `json:"src"`
	SrcVersion map[string]string `json:"src_version"`
}

// Source is one upstream data source.
type Source struct {
	Version string           `json:"version"`
	Stats   map[string]int64 `json:"stats"`
}

// Total is the number of annotated variants, or 0 when absent.
func (m *Metadata) Total() int64 {
	return m.Stats["total"]
}

// Field describes one document field from /metadata/fields.
type Field struct {
	Name              string `json:"-"`
	Type              string `json:"type"`
	Notes             string `json:"notes,omitempty"`
	Indexed           bool   `json:"indexed,omitempty"`
	SearchedByDefault bool   `json:"searched_by_default,omitempty"`
}

// Client fetches metadata and field documents.
type Client struct {
	client      *http.Client
	metadataURL string
	fieldsURL   string
}

// NewClient creates a Client for the given endpoints.
func NewClient(metadataURL, fieldsURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client:      &http.Client{Timeout: timeout},
		metadataURL: metadataURL,
		fieldsURL:   fieldsURL,
	}
}

// Metadata fetches the metadata document.
func (c *Client) Metadata(ctx context.Context) (*Metadata, error) {
	var m Metadata
	if err := c.getJSON(ctx, c.metadataURL, &m); err != nil {
		return nil, fmt.Errorf("metadata: fetch: %w", err)
	}
	return &m, nil
}

// Fields fetches the field map, sorted by name.
func (c *Client) Fields(ctx context.Context) ([]Field, error) {
	var raw map[string]Field
	if err := c.getJSON(ctx, c.fieldsURL, &raw); err != nil {
		return nil, fmt.Errorf("metadata: fetch fields: %w", err)
	}
	fields := make([]Field, 0, len(raw))
	for name, f := range raw {
		f.Name = name
		fields = append(fields, f)
	}
	SortFields(fields, SortByName, false)
	return fields, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, url)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
