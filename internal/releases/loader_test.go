package releases

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeIndex struct {
	docs  map[Assembly]*IndexDocument
	errs  map[Assembly]error
	calls []Assembly
}

func (f *fakeIndex) FetchIndex(_ context.Context, a Assembly) (*IndexDocument, error) {
	f.calls = append(f.calls, a)
	if err := f.errs[a]; err != nil {
		return nil, err
	}
	return f.docs[a], nil
}

func TestLoad_SequentialAndOrdered(t *testing.T) {
	f := &fakeIndex{docs: map[Assembly]*IndexDocument{
		HG19: {Format: IndexFormat, Versions: []Release{rel("20230501", "2023-05-01T10:00:00Z")}},
		HG38: {Format: IndexFormat, Versions: []Release{rel("20230501", "2023-05-01T10:00:00Z"), rel("20230601", "2023-06-01")}},
	}}

	col, reports := Load(context.Background(), f, []Assembly{HG19, HG38})

	if len(f.calls) != 2 || f.calls[0] != HG19 || f.calls[1] != HG38 {
		t.Fatalf("expected hg19 then hg38, got %v", f.calls)
	}
	if col.Len() != 3 {
		t.Fatalf("expected 3 releases, got %d", col.Len())
	}
	rs := col.Releases("2023-05-01")
	if rs[0].Assembly != HG19 || rs[1].Assembly != HG38 {
		t.Errorf("expected hg19 entry first, got %s then %s", rs[0].Assembly, rs[1].Assembly)
	}
	if reports[0].Releases != 1 || reports[1].Releases != 2 {
		t.Errorf("unexpected reports: %+v", reports)
	}
}

func TestLoad_ReportExcludesUnparseableDates(t *testing.T) {
	f := &fakeIndex{docs: map[Assembly]*IndexDocument{
		HG19: {Format: IndexFormat, Versions: []Release{
			rel("20230501", "2023-05-01"),
			rel("broken", "not a date"),
		}},
	}}

	col, reports := Load(context.Background(), f, []Assembly{HG19})
	if col.Len() != 1 {
		t.Fatalf("expected 1 release, got %d", col.Len())
	}
	if reports[0].Releases != 1 || reports[0].Dropped != 1 {
		t.Errorf("expected 1 appended and 1 dropped, got %+v", reports[0])
	}
}

func TestLoad_FormatGateContributesNothing(t *testing.T) {
	f := &fakeIndex{
		docs: map[Assembly]*IndexDocument{
			HG19: {Format: IndexFormat, Versions: []Release{rel("a", "2023-05-01")}},
		},
		errs: map[Assembly]error{
			HG38: fmt.Errorf("releases: fetch index hg38: %w %q", ErrFormatMismatch, "0.9"),
		},
	}

	col, reports := Load(context.Background(), f, []Assembly{HG19, HG38})
	if col.Len() != 1 {
		t.Fatalf("expected only hg19 releases, got %d", col.Len())
	}
	if !reports[1].Skipped || reports[1].Err != nil {
		t.Errorf("expected hg38 skipped without error, got %+v", reports[1])
	}
}

func TestLoad_ZeroRecordsForOldFormatOverHTTP(t *testing.T) {
	srv := releaseServer(t, nil)
	col, _ := Load(context.Background(), newTestClient(srv), []Assembly{HG38})
	if col.Len() != 0 {
		t.Fatalf("expected format 0.9 to contribute zero records, got %d", col.Len())
	}
}

func TestLoad_TransportFailureSkipsOnlyThatAssembly(t *testing.T) {
	f := &fakeIndex{
		docs: map[Assembly]*IndexDocument{
			HG38: {Format: IndexFormat, Versions: []Release{rel("a", "2023-05-01")}},
		},
		errs: map[Assembly]error{HG19: errors.New("connection refused")},
	}

	col, reports := Load(context.Background(), f, []Assembly{HG19, HG38})
	if col.Len() != 1 {
		t.Fatalf("expected hg38 to still load, got %d", col.Len())
	}
	if reports[0].Err == nil {
		t.Error("expected hg19 report to carry the error")
	}
}

func TestLoad_CancelledContext(t *testing.T) {
	f := &fakeIndex{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	col, reports := Load(ctx, f, []Assembly{HG19})
	if len(f.calls) != 0 {
		t.Fatalf("expected no fetch after cancel, got %v", f.calls)
	}
	if col.Len() != 0 || !errors.Is(reports[0].Err, context.Canceled) {
		t.Errorf("expected cancelled report, got %+v", reports[0])
	}
}
