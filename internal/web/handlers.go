package web

import (
	"errors"
	"log"
	"net/http"

	"github.com/joestump/variantdocs/internal/demo"
	"github.com/joestump/variantdocs/internal/digest"
	"github.com/joestump/variantdocs/internal/metadata"
	"github.com/joestump/variantdocs/internal/releases"
)

// handleIndex renders the docs index with the data source table.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := IndexView{}
	m, err := s.meta.Metadata(r.Context())
	if err != nil {
		log.Printf("handleIndex: Metadata: %v", err)
		data.Unavailable = true
		m = nil
	}
	data.Summary = s.catalog.Summarize(m)
	s.render(w, r, "index.html", data)
}

// handleFields renders the field reference table.
func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	params := parseFieldsParams(r.URL.Query())

	fields, err := s.fields(r.Context())
	if err != nil {
		log.Printf("handleFields: Fields: %v", err)
		s.render(w, r, "fields.html", FieldsView{Filter: params.filter, Unavailable: true})
		return
	}
	page := metadata.Query(fields, params.query())
	s.render(w, r, "fields.html", toFieldsView(params, page))
}

func (s *Server) releasesView(board *releases.Board) ReleasesView {
	return ReleasesView{
		Panels:   toPanelViews(board.Panels(), s.digests.Enabled()),
		Warnings: loadWarnings(s.reports),
		Total:    s.col.Len(),
	}
}

// handleReleases renders every release panel of the visitor's board.
func (s *Server) handleReleases(w http.ResponseWriter, r *http.Request) {
	board := s.boardFor(w, r)
	s.render(w, r, "releases.html", s.releasesView(board))
}

// handleToggle flips one release link. htmx requests get the updated node;
// plain form posts are redirected back to the node's panel.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	board := s.boardFor(w, r)
	id := r.PathValue("id")

	node, err := board.Toggle(r.Context(), id)
	if errors.Is(err, releases.ErrUnknownNode) {
		http.Error(w, "unknown release", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("handleToggle: %s: %v", id, err)
		http.Error(w, "toggle failed", http.StatusInternalServerError)
		return
	}

	if isHX(r) {
		s.renderFragment(w, http.StatusOK, "release_node", toNodeView(node, s.digests.Enabled()))
		return
	}
	http.Redirect(w, r, "/releases#"+board.AnchorFor(id), http.StatusSeeOther)
}

// handleExpandAll loads and shows every release on the visitor's board.
func (s *Server) handleExpandAll(w http.ResponseWriter, r *http.Request) {
	board := s.boardFor(w, r)
	if err := board.ExpandAll(r.Context()); err != nil {
		log.Printf("handleExpandAll: %v", err)
	}
	s.afterBulk(w, r, board)
}

// handleCollapseAll hides every shown release.
func (s *Server) handleCollapseAll(w http.ResponseWriter, r *http.Request) {
	board := s.boardFor(w, r)
	board.CollapseAll()
	s.afterBulk(w, r, board)
}

func (s *Server) afterBulk(w http.ResponseWriter, r *http.Request, board *releases.Board) {
	if isHX(r) {
		s.render(w, r, "releases.html", s.releasesView(board))
		return
	}
	http.Redirect(w, r, "/releases", http.StatusSeeOther)
}

// handleDigest returns a short summary of a loaded change-log.
func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	if !s.digests.Enabled() {
		http.Error(w, "digests are disabled", http.StatusNotFound)
		return
	}
	board := s.boardFor(w, r)
	node, err := board.Node(r.PathValue("id"))
	if err != nil {
		http.Error(w, "unknown release", http.StatusNotFound)
		return
	}
	if node.State != releases.StateLoaded && node.State != releases.StateHidden {
		http.Error(w, "change-log not loaded", http.StatusConflict)
		return
	}

	summary, err := s.digests.Digest(r.Context(), node.Release.Key(), node.Text)
	if err != nil {
		log.Printf("handleDigest: %s: %v", node.ID, err)
		status := http.StatusBadGateway
		if errors.Is(err, digest.ErrDisabled) {
			status = http.StatusNotFound
		}
		s.renderFragment(w, status, "digest", map[string]string{"Error": "Summary unavailable."})
		return
	}
	s.renderFragment(w, http.StatusOK, "digest", map[string]string{"Summary": summary})
}

// handleDemo renders the search form, prefilled from the query string.
func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "demo.html", toDemoView(parseDemoRequest(r.URL.Query()), nil))
}

// handleDemoSearch runs a search. htmx requests get only the results panel.
func (s *Server) handleDemoSearch(w http.ResponseWriter, r *http.Request) {
	req := parseDemoRequest(r.URL.Query())
	if s.searcher == nil {
		http.Error(w, "search is not configured", http.StatusServiceUnavailable)
		return
	}
	result := s.searcher.Search(r.Context(), req)

	if isHX(r) {
		s.renderFragment(w, http.StatusOK, "demo_result", result)
		return
	}
	s.render(w, r, "demo.html", toDemoView(req, &result))
}

// handleDemoSuggest completes field names for the fields input. Plain
// requests get a JSON array of names; htmx requests get datalist options
// holding the completed input.
func (s *Server) handleDemoSuggest(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	if term == "" {
		term = r.URL.Query().Get("fields")
	}

	var names []string
	if fields, err := s.fields(r.Context()); err != nil {
		log.Printf("handleDemoSuggest: Fields: %v", err)
	} else {
		names = demo.Suggest(metadata.Names(fields), term)
	}

	if isHX(r) {
		completions := make([]string, len(names))
		for i, n := range names {
			completions[i] = demo.Complete(term, n)
		}
		s.renderFragment(w, http.StatusOK, "suggestions", completions)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}
