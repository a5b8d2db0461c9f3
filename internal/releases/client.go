package releases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrFormatMismatch is returned for an index document whose format this
// version does not understand. Callers skip the assembly.
var ErrFormatMismatch = errors.New("unsupported index format")

// ErrTooLarge is returned for a response body over maxTextBytes.
var ErrTooLarge = errors.New("response body too large")

// maxTextBytes caps a change-log body.
const maxTextBytes = 4 << 20

// Client fetches release index, detail, and change-log documents.
type Client struct {
	client   *http.Client
	indexURL string // contains {assembly}
}

// NewClient creates a Client. indexURL must contain an {assembly}
// placeholder, e.g. "https://host/myvariant.info-{assembly}/versions.json".
func NewClient(indexURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client:   &http.Client{Timeout: timeout},
		indexURL: indexURL,
	}
}

// IndexURL returns the index document location for assembly.
func (c *Client) IndexURL(a Assembly) string {
	return strings.ReplaceAll(c.indexURL, "{assembly}", string(a))
}

// FetchIndex retrieves the index document for one assembly. Relative detail
// and change-log URLs are resolved against the index location.
func (c *Client) FetchIndex(ctx context.Context, a Assembly) (*IndexDocument, error) {
	indexURL := c.IndexURL(a)
	var doc IndexDocument
	if err := c.getJSON(ctx, indexURL, &doc); err != nil {
		return nil, fmt.Errorf("releases: fetch index %s: %w", a, err)
	}
	if doc.Format != IndexFormat {
		return nil, fmt.Errorf("releases: fetch index %s: %w %q", a, ErrFormatMismatch, doc.Format)
	}
	for i := range doc.Versions {
		doc.Versions[i].DetailURL = resolveRef(indexURL, doc.Versions[i].DetailURL)
		doc.Versions[i].ChangesURL = resolveRef(indexURL, doc.Versions[i].ChangesURL)
	}
	return &doc, nil
}

// FetchDetail returns the change-log text URL for r, reading the release's
// detail document when it has one.
func (c *Client) FetchDetail(ctx context.Context, r Release) (string, error) {
	if r.DetailURL == "" {
		if r.ChangesURL == "" {
			return "", fmt.Errorf("releases: fetch detail %s: no detail or changes url", r.Key())
		}
		return r.ChangesURL, nil
	}
	var detail Release
	if err := c.getJSON(ctx, r.DetailURL, &detail); err != nil {
		return "", fmt.Errorf("releases: fetch detail %s: %w", r.Key(), err)
	}
	if detail.ChangesURL == "" {
		return "", fmt.Errorf("releases: fetch detail %s: detail has no changes.txt.url", r.Key())
	}
	return resolveRef(r.DetailURL, detail.ChangesURL), nil
}

// FetchChangeLog fetches the detail document and then the change-log text.
func (c *Client) FetchChangeLog(ctx context.Context, r Release) (string, error) {
	txtURL, err := c.FetchDetail(ctx, r)
	if err != nil {
		return "", err
	}
	body, err := c.get(ctx, txtURL)
	if err != nil {
		return "", fmt.Errorf("releases: fetch changelog %s: %w", r.Key(), err)
	}
	return string(body), nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTextBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, fmt.Errorf("not found (404): %s", rawURL)
		case http.StatusForbidden:
			return nil, fmt.Errorf("forbidden (403): %s", rawURL)
		default:
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, rawURL)
		}
	}
	if len(data) > maxTextBytes {
		return nil, fmt.Errorf("%w: over %d bytes: %s", ErrTooLarge, maxTextBytes, rawURL)
	}
	return data, nil
}

// resolveRef resolves ref against base. Absolute or empty refs are returned
// unchanged.
func resolveRef(base, ref string) string {
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
