package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/joestump/variantdocs/api"
	"github.com/joestump/variantdocs/internal/config"
	"github.com/joestump/variantdocs/internal/demo"
	"github.com/joestump/variantdocs/internal/digest"
	"github.com/joestump/variantdocs/internal/metadata"
	"github.com/joestump/variantdocs/internal/releases"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// fieldsTTL bounds how long a fetched field list is reused.
const fieldsTTL = 10 * time.Minute

// MetadataSource provides the metadata and field documents.
type MetadataSource interface {
	Metadata(ctx context.Context) (*metadata.Metadata, error)
	Fields(ctx context.Context) ([]metadata.Field, error)
}

// Searcher runs demo searches.
type Searcher interface {
	Search(ctx context.Context, req demo.Request) demo.Result
}

// ServerOption configures optional Server features.
type ServerOption func(*Server)

// WithDigests enables change-log digests.
func WithDigests(d *digest.Service) ServerOption {
	return func(s *Server) { s.digests = d }
}

// WithSearcher sets the backend of the demo search form.
func WithSearcher(se Searcher) ServerOption {
	return func(s *Server) { s.searcher = se }
}

// WithLoadReports shows per-assembly load problems on the releases page.
func WithLoadReports(reports []releases.LoadReport) ServerOption {
	return func(s *Server) { s.reports = reports }
}

// Server is the HTTP server for the documentation site.
type Server struct {
	cfg      *config.Config
	col      *releases.Collection
	meta     MetadataSource
	catalog  *metadata.Catalog
	searcher Searcher
	digests  *digest.Service
	reports  []releases.LoadReport
	boards   *boardSet
	mux      *http.ServeMux
	tmpl     *template.Template
	server   *http.Server

	fieldsMu      sync.Mutex
	fieldsCache   []metadata.Field
	fieldsFetched time.Time
}

// New creates a new web server. col is shared read-only by every visitor
// board; source loads change-logs for them.
func New(cfg *config.Config, col *releases.Collection, source releases.ChangeLogSource, meta MetadataSource, catalog *metadata.Catalog, opts ...ServerOption) *Server {
	s := &Server{
		cfg:     cfg,
		col:     col,
		meta:    meta,
		catalog: catalog,
		boards:  newBoardSet(col, source, maxBoards),
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.parseTemplates()
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // expand-all waits on every change-log
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins serving HTTP requests. It blocks until the server is shut down.
func (s *Server) Start() error {
	log.Printf("docs site listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP lets the server be mounted or tested without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) parseTemplates() {
	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))

	funcMap := template.FuncMap{
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := gm.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"stateClass": func(state string) string {
			switch state {
			case "loaded":
				return "node-open"
			case "loading":
				return "node-loading"
			default:
				return "node-closed"
			}
		},
		"yesNo": func(b bool) string {
			if b {
				return "yes"
			}
			return ""
		},
	}

	s.tmpl = template.Must(
		template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html"),
	)
}

func (s *Server) registerRoutes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /fields", s.handleFields)

	s.mux.HandleFunc("GET /releases", s.handleReleases)
	s.mux.HandleFunc("POST /releases/nodes/{id}/toggle", s.handleToggle)
	s.mux.HandleFunc("POST /releases/expand", s.handleExpandAll)
	s.mux.HandleFunc("POST /releases/collapse", s.handleCollapseAll)
	s.mux.HandleFunc("GET /releases/nodes/{id}/digest", s.handleDigest)

	s.mux.HandleFunc("GET /demo", s.handleDemo)
	s.mux.HandleFunc("GET /demo/search", s.handleDemoSearch)
	s.mux.HandleFunc("GET /demo/suggest", s.handleDemoSuggest)

	// API v1
	s.mux.HandleFunc("GET /api/v1/health", s.handleAPIHealth)
	s.mux.HandleFunc("GET /api/v1/releases", s.handleAPIListReleases)
	s.mux.HandleFunc("GET /api/openapi.yaml", s.handleOpenAPISpec)
}

// render executes a template. If HX-Request header is set, render just the
// content block; otherwise render the full layout wrapping the content.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("template %s: %v", name, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	if isHX(r) {
		_, _ = w.Write(buf.Bytes())
		return
	}

	layoutData := struct {
		Page    string
		Content template.HTML
		Version string
	}{
		Page:    name,
		Content: template.HTML(buf.String()),
		Version: config.Version,
	}
	if err := s.tmpl.ExecuteTemplate(w, "layout.html", layoutData); err != nil {
		log.Printf("layout+%s: %v", name, err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// renderFragment executes a named block without the layout.
func (s *Server) renderFragment(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("template %s: %v", name, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func isHX(r *http.Request) bool {
	return r.Header.Get("HX-Request") != ""
}

// fields returns the field list, refetching after fieldsTTL. A failed
// refresh keeps serving the previous list.
func (s *Server) fields(ctx context.Context) ([]metadata.Field, error) {
	s.fieldsMu.Lock()
	defer s.fieldsMu.Unlock()

	if s.fieldsCache != nil && time.Since(s.fieldsFetched) < fieldsTTL {
		return s.fieldsCache, nil
	}
	fields, err := s.meta.Fields(ctx)
	if err != nil {
		if s.fieldsCache != nil {
			log.Printf("fields: refresh: %v", err)
			return s.fieldsCache, nil
		}
		return nil, err
	}
	s.fieldsCache = fields
	s.fieldsFetched = time.Now()
	return fields, nil
}

func (s *Server) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(api.OpenAPISpec)
}
