package web

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/joestump/variantdocs/internal/demo"
	"github.com/joestump/variantdocs/internal/metadata"
	"github.com/joestump/variantdocs/internal/releases"
)

// NodeView is a template-friendly release link.
type NodeView struct {
	ID         string
	Version    string
	Assembly   string
	State      string
	Visible    bool
	Loading    bool
	Text       string
	Error      string
	ChangesURL string
	Digests    bool // digest button offered
}

// PanelView is one date's group of release links.
type PanelView struct {
	Anchor      string
	DisplayDate string
	Nodes       []NodeView
}

// ReleasesView backs releases.html.
type ReleasesView struct {
	Panels   []PanelView
	Warnings []string
	Total    int
}

func toNodeView(n releases.Node, digests bool) NodeView {
	v := NodeView{
		ID:         n.ID,
		Version:    n.Release.TargetVersion,
		Assembly:   string(n.Release.Assembly),
		State:      n.State.String(),
		Visible:    n.State.Visible(),
		Loading:    n.State == releases.StateLoading,
		Text:       n.Text,
		ChangesURL: n.Release.ChangesURL,
		Digests:    digests && n.State.Visible(),
	}
	if n.Err != nil {
		v.Error = n.Err.Error()
	}
	return v
}

func toPanelViews(panels []releases.Panel, digests bool) []PanelView {
	out := make([]PanelView, len(panels))
	for i, p := range panels {
		nodes := make([]NodeView, len(p.Nodes))
		for j, n := range p.Nodes {
			nodes[j] = toNodeView(n, digests)
		}
		out[i] = PanelView{Anchor: p.Anchor, DisplayDate: p.DisplayDate, Nodes: nodes}
	}
	return out
}

func loadWarnings(reports []releases.LoadReport) []string {
	var out []string
	for _, r := range reports {
		switch {
		case r.Skipped:
			out = append(out, "Release notes for "+string(r.Assembly)+" use an unsupported format and were skipped.")
		case r.Err != nil:
			out = append(out, "Release notes for "+string(r.Assembly)+" could not be loaded.")
		case r.Dropped > 0:
			out = append(out, fmt.Sprintf("%d %s release(s) had an unreadable date and are not listed.", r.Dropped, r.Assembly))
		}
	}
	return out
}

// IndexView backs index.html.
type IndexView struct {
	Summary     metadata.Summary
	Unavailable bool
}

// SortLink is one sortable column header.
type SortLink struct {
	Label  string
	URL    string
	Active bool
	Desc   bool
}

// PageLink is one page-size or page choice.
type PageLink struct {
	Label  string
	URL    string
	Active bool
}

// FieldsView backs fields.html.
type FieldsView struct {
	Page        metadata.FieldPage
	Filter      string
	Columns     []SortLink
	Sizes       []PageLink
	PrevURL     string
	NextURL     string
	Unavailable bool
}

// fieldsParams is the normalized query string of the fields page.
type fieldsParams struct {
	filter string
	sort   string
	desc   bool
	per    int
	page   int
}

func parseFieldsParams(q url.Values) fieldsParams {
	p := fieldsParams{
		filter: q.Get("q"),
		sort:   q.Get("sort"),
		desc:   q.Get("order") == "desc",
		per:    metadata.DefaultPageSize,
		page:   1,
	}
	if p.sort == "" {
		p.sort = metadata.SortByName
	}
	switch v := q.Get("per"); v {
	case "", "default":
	case "all":
		p.per = -1
	default:
		if n, err := strconv.Atoi(v); err == nil {
			p.per = n
		}
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.page = n
	}
	return p
}

func (p fieldsParams) query() metadata.FieldQuery {
	return metadata.FieldQuery{Filter: p.filter, Sort: p.sort, Desc: p.desc, Page: p.page, Per: p.per}
}

func (p fieldsParams) url() string {
	v := url.Values{}
	if p.filter != "" {
		v.Set("q", p.filter)
	}
	if p.sort != metadata.SortByName {
		v.Set("sort", p.sort)
	}
	if p.desc {
		v.Set("order", "desc")
	}
	switch {
	case p.per < 0:
		v.Set("per", "all")
	case p.per != metadata.DefaultPageSize:
		v.Set("per", strconv.Itoa(p.per))
	}
	if p.page > 1 {
		v.Set("page", strconv.Itoa(p.page))
	}
	if len(v) == 0 {
		return "/fields"
	}
	return "/fields?" + v.Encode()
}

var fieldColumns = []struct{ key, label string }{
	{metadata.SortByName, "Field"},
	{metadata.SortByIndexed, "Indexed"},
	{metadata.SortByType, "Type"},
	{metadata.SortByNotes, "Notes"},
}

func toFieldsView(params fieldsParams, page metadata.FieldPage) FieldsView {
	v := FieldsView{Page: page, Filter: params.filter}

	for _, c := range fieldColumns {
		link := params
		link.page = 1
		link.sort = c.key
		link.desc = c.key == params.sort && !params.desc
		v.Columns = append(v.Columns, SortLink{
			Label:  c.label,
			URL:    link.url(),
			Active: c.key == params.sort,
			Desc:   c.key == params.sort && params.desc,
		})
	}

	for _, n := range metadata.PageSizes {
		link := params
		link.page = 1
		link.per = n
		label := "All"
		if n > 0 {
			label = strconv.Itoa(n)
		}
		v.Sizes = append(v.Sizes, PageLink{Label: label, URL: link.url(), Active: n == page.Per})
	}

	if page.Page > 1 {
		link := params
		link.page = page.Page - 1
		v.PrevURL = link.url()
	}
	if page.Page < page.Pages {
		link := params
		link.page = page.Page + 1
		v.NextURL = link.url()
	}
	return v
}

// TypeOption is one entry of the search type menu.
type TypeOption struct {
	Value    int
	Label    string
	Selected bool
}

// DemoView backs demo.html.
type DemoView struct {
	Types           []TypeOption
	Sizes           []int
	Request         demo.Request
	TakesInput      bool
	VariantExamples []ExampleLink
	QueryExamples   []ExampleLink
	Result          *demo.Result
}

// ExampleLink fills the form with a canned search.
type ExampleLink struct {
	Label string
	URL   string
}

var searchTypeLabels = []struct {
	t     demo.SearchType
	label string
}{
	{demo.TypeVariant, "Query by HGVS ID"},
	{demo.TypeQuery, "Query"},
	{demo.TypeMetadata, "Database metadata"},
	{demo.TypeFields, "Available fields"},
}

func exampleLinks(t demo.SearchType) []ExampleLink {
	var out []ExampleLink
	for _, e := range demo.ExamplesFor(t) {
		v := url.Values{"type": {strconv.Itoa(int(e.Type))}, "q": {e.Query}}
		if e.Size > 0 {
			v.Set("size", strconv.Itoa(e.Size))
		}
		out = append(out, ExampleLink{Label: e.Label, URL: "/demo?" + v.Encode()})
	}
	return out
}

func toDemoView(req demo.Request, result *demo.Result) DemoView {
	v := DemoView{
		Sizes:           demo.Sizes,
		Request:         req,
		TakesInput:      req.Type.TakesInput(),
		VariantExamples: exampleLinks(demo.TypeVariant),
		QueryExamples:   exampleLinks(demo.TypeQuery),
		Result:          result,
	}
	for _, o := range searchTypeLabels {
		v.Types = append(v.Types, TypeOption{Value: int(o.t), Label: o.label, Selected: o.t == req.Type})
	}
	return v
}

func parseDemoRequest(q url.Values) demo.Request {
	req := demo.Request{
		Type:   demo.ParseSearchType(q.Get("type")),
		Query:  q.Get("q"),
		Fields: q.Get("fields"),
	}
	if n, err := strconv.Atoi(q.Get("size")); err == nil {
		req.Size = n
	}
	return req
}
