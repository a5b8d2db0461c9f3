package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joestump/variantdocs/internal/releases"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeSource) FetchChangeLog(_ context.Context, r releases.Release) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return "", errors.New("status 500")
	}
	return "notes for " + r.Key() + "\n", nil
}

func newTestBrowser(t *testing.T, src *fakeSource) *Browser {
	t.Helper()
	col := releases.NewCollection()
	col.AppendResponses([]releases.Release{
		{TargetVersion: "20230501", ReleaseDate: "2023-05-01"},
		{TargetVersion: "20211130", ReleaseDate: "2021-11-30"},
	}, releases.HG19)
	col.AppendResponses([]releases.Release{
		{TargetVersion: "20230501", ReleaseDate: "2023-05-01"},
	}, releases.HG38)

	b := New(context.Background(), releases.NewBoard(col, src))
	model, _ := b.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return model.(*Browser)
}

// runCommands executes cmd and feeds every resulting message back into
// the model until no command remains.
func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *Browser {
	t.Helper()
	b, ok := model.(*Browser)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		next, nextCmd := b.Update(msg)
		b, ok = next.(*Browser)
		if !ok {
			t.Fatalf("unexpected model type: %T", next)
		}
		cmd = nextCmd
	}
	return b
}

func press(t *testing.T, b *Browser, key tea.KeyMsg) *Browser {
	t.Helper()
	model, cmd := b.Update(key)
	return runCommands(t, model, cmd)
}

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestBrowser_OrderAndCursor(t *testing.T) {
	b := newTestBrowser(t, &fakeSource{})
	want := []string{"20230501-hg19", "20230501-hg38", "20211130-hg19"}
	if strings.Join(b.ids, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected order %v", b.ids)
	}

	b = press(t, b, keyUp)
	if b.cursor != 0 {
		t.Errorf("cursor should not move above the first node, got %d", b.cursor)
	}
	for i := 0; i < 5; i++ {
		b = press(t, b, keyDown)
	}
	if b.cursor != 2 {
		t.Errorf("cursor should stop at the last node, got %d", b.cursor)
	}
}

func TestBrowser_ToggleLoadsOnce(t *testing.T) {
	src := &fakeSource{}
	b := newTestBrowser(t, src)

	b = press(t, b, keyEnter)
	if !strings.Contains(b.View(), "notes for hg19/20230501") {
		t.Errorf("expected change-log in view:\n%s", b.View())
	}
	b = press(t, b, keyEnter)
	if strings.Contains(b.View(), "notes for hg19/20230501") {
		t.Error("second enter should hide the change-log")
	}
	b = press(t, b, keyEnter)
	if !strings.Contains(b.View(), "notes for hg19/20230501") {
		t.Error("third enter should show the cached change-log")
	}
	if src.calls != 1 {
		t.Errorf("expected 1 fetch, got %d", src.calls)
	}
}

func TestBrowser_ToggleFailureShowsError(t *testing.T) {
	src := &fakeSource{fail: true}
	b := newTestBrowser(t, src)

	b = press(t, b, keyEnter)
	if !strings.Contains(b.View(), "status 500") {
		t.Errorf("expected error in view:\n%s", b.View())
	}
	src.fail = false
	b = press(t, b, keyEnter)
	if !strings.Contains(b.View(), "notes for hg19/20230501") {
		t.Error("expected retry to load")
	}
}

func TestBrowser_ExpandAndCollapseAll(t *testing.T) {
	src := &fakeSource{}
	b := newTestBrowser(t, src)

	b = press(t, b, runeKey('e'))
	view := b.View()
	for _, key := range []string{"hg19/20230501", "hg38/20230501", "hg19/20211130"} {
		if !strings.Contains(view, "notes for "+key) {
			t.Errorf("expected %s expanded", key)
		}
	}
	if src.calls != 3 {
		t.Errorf("expected 3 fetches, got %d", src.calls)
	}

	b = press(t, b, runeKey('c'))
	if strings.Contains(b.View(), "notes for") {
		t.Error("collapse all should hide every change-log")
	}

	press(t, b, runeKey('e'))
	if src.calls != 3 {
		t.Errorf("re-expand should not refetch, got %d", src.calls)
	}
}

func TestBrowser_Quit(t *testing.T) {
	b := newTestBrowser(t, &fakeSource{})
	_, cmd := b.Update(runeKey('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
