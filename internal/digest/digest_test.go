package digest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/joestump/variantdocs/internal/db"
)

type mockSummarizer struct {
	calls int
	err   error
}

func (m *mockSummarizer) Summarize(_ context.Context, text string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return "summary of " + text, nil
}

func openStore(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "digest.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDigest_CachesPerModel(t *testing.T) {
	m := &mockSummarizer{}
	svc := NewService(m, openStore(t), "haiku")
	ctx := context.Background()

	first, err := svc.Digest(ctx, "hg19/20230501", "dbsnp updated")
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	second, err := svc.Digest(ctx, "hg19/20230501", "dbsnp updated")
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if first != second || first != "summary of dbsnp updated" {
		t.Errorf("unexpected summaries %q, %q", first, second)
	}
	if m.calls != 1 {
		t.Errorf("expected 1 summarizer call, got %d", m.calls)
	}
}

func TestDigest_Disabled(t *testing.T) {
	svc := NewService(nil, nil, "haiku")
	if svc.Enabled() {
		t.Fatal("expected disabled service")
	}
	if _, err := svc.Digest(context.Background(), "k", "t"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if NewAnthropicSummarizer("", "haiku") != nil {
		t.Error("expected nil summarizer without an API key")
	}
}

func TestDigest_ErrorNotCached(t *testing.T) {
	m := &mockSummarizer{err: errors.New("overloaded")}
	store := openStore(t)
	svc := NewService(m, store, "haiku")

	if _, err := svc.Digest(context.Background(), "hg38/1", "x"); err == nil {
		t.Fatal("expected error")
	}
	if g, _ := store.GetDigest("hg38/1", "haiku"); g != nil {
		t.Errorf("expected nothing cached, got %+v", g)
	}
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	// "é" is two bytes; a cut at 5 would split the third one.
	s := strings.Repeat("é", 4)
	got := truncate(s, 5)
	if got != "éé" || !utf8.ValidString(got) {
		t.Errorf("expected %q, got %q", "éé", got)
	}
	if got := truncate("short", 64); got != "short" {
		t.Errorf("expected short input unchanged, got %q", got)
	}
	big := strings.Repeat("a", maxInputBytes-1) + "é"
	if got := truncate(big, maxInputBytes); len(got) != maxInputBytes-1 || !utf8.ValidString(got) {
		t.Errorf("expected %d valid bytes, got %d", maxInputBytes-1, len(got))
	}
}
