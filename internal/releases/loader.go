package releases

import (
	"context"
	"errors"
	"log"
)

// IndexFetcher retrieves one assembly's index document.
type IndexFetcher interface {
	FetchIndex(ctx context.Context, a Assembly) (*IndexDocument, error)
}

// LoadReport describes one assembly's contribution to a load.
type LoadReport struct {
	Assembly Assembly
	Releases int  // records appended
	Dropped  int  // records with an unparseable release date
	Skipped  bool // format mismatch
	Err      error
}

// Load aggregates the assemblies strictly in order: each index is fetched
// and appended before the next request is issued. A failed or mismatched
// assembly contributes nothing; the rest still load.
func Load(ctx context.Context, f IndexFetcher, assemblies []Assembly) (*Collection, []LoadReport) {
	col := NewCollection()
	reports := make([]LoadReport, 0, len(assemblies))

	for _, a := range assemblies {
		rep := LoadReport{Assembly: a}
		if err := ctx.Err(); err != nil {
			rep.Err = err
			reports = append(reports, rep)
			continue
		}

		doc, err := f.FetchIndex(ctx, a)
		switch {
		case errors.Is(err, ErrFormatMismatch):
			log.Printf("releases: skipping %s: %v", a, err)
			rep.Skipped = true
		case err != nil:
			log.Printf("releases: load %s: %v", a, err)
			rep.Err = err
		default:
			before := col.Len()
			col.AppendResponses(doc.Versions, a)
			rep.Releases = col.Len() - before
			rep.Dropped = len(doc.Versions) - rep.Releases
		}
		reports = append(reports, rep)
	}

	return col, reports
}
