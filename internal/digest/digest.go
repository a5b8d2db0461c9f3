// Package digest writes short summaries of release change-logs with the
// Anthropic Messages API and caches them in the local database.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joestump/variantdocs/internal/db"
)

const systemPrompt = "You are a concise technical summarizer. Summarize the following data release change-log for a genomic variant annotation API in 2-3 sentences. Name the data sources that changed and whether records were added, removed, or updated. Do not invent numbers."

// maxInputBytes keeps very large change-logs within a single request.
const maxInputBytes = 64 << 10

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("digest: summaries are disabled")

// Summarizer turns change-log text into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Store caches digests.
type Store interface {
	GetDigest(key, model string) (*db.Digest, error)
	PutDigest(g *db.Digest) error
}

// AnthropicSummarizer calls the Messages API with the configured model.
type AnthropicSummarizer struct {
	client anthropic.Client
	model  string
}

// NewAnthropicSummarizer returns nil when apiKey is empty.
func NewAnthropicSummarizer(apiKey, model string) *AnthropicSummarizer {
	if apiKey == "" {
		return nil
	}
	return &AnthropicSummarizer{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Summarize implements Summarizer.
func (a *AnthropicSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	text = truncate(text, maxInputBytes)

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 200,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("no text block in response")
}

// Service serves cached digests and generates missing ones.
type Service struct {
	summarizer Summarizer
	store      Store
	model      string
}

// NewService wires a summarizer to a store. A nil summarizer makes every
// call return ErrDisabled.
func NewService(s Summarizer, store Store, model string) *Service {
	return &Service{summarizer: s, store: store, model: model}
}

// Enabled reports whether digests can be generated.
func (s *Service) Enabled() bool {
	return s != nil && s.summarizer != nil
}

// Digest returns the summary for the release identified by key.
func (s *Service) Digest(ctx context.Context, key, text string) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	if s.store != nil {
		if g, err := s.store.GetDigest(key, s.model); err != nil {
			log.Printf("digest: get %s: %v", key, err)
		} else if g != nil {
			return g.Summary, nil
		}
	}

	summary, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", key, err)
	}

	if s.store != nil {
		if err := s.store.PutDigest(&db.Digest{ReleaseKey: key, Model: s.model, Summary: summary}); err != nil {
			log.Printf("digest: put %s: %v", key, err)
		}
	}
	return summary, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
