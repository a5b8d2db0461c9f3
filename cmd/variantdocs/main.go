package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joestump/variantdocs/internal/config"
	"github.com/joestump/variantdocs/internal/db"
	"github.com/joestump/variantdocs/internal/demo"
	"github.com/joestump/variantdocs/internal/digest"
	"github.com/joestump/variantdocs/internal/mcpserver"
	"github.com/joestump/variantdocs/internal/metadata"
	"github.com/joestump/variantdocs/internal/releases"
	"github.com/joestump/variantdocs/internal/tui"
	"github.com/joestump/variantdocs/internal/web"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "variantdocs",
		Short:         "Documentation site and release notes browser for the variant annotation API",
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	f := rootCmd.PersistentFlags()
	f.Int("port", 8080, "HTTP port for the docs site")
	f.String("state-dir", "/state", "directory for the change-log cache database")
	f.String("api-base-url", "https://myvariant.info", "annotation API used by the demo search")
	f.String("metadata-url", "https://myvariant.info/v1/metadata", "metadata endpoint")
	f.String("fields-url", "https://myvariant.info/v1/metadata/fields", "available fields endpoint")
	f.String("release-index-url", "https://biothings-releases.s3-us-west-2.amazonaws.com/myvariant.info-{assembly}/versions.json", "per-assembly release index; {assembly} is replaced")
	f.String("assemblies", "hg19,hg38", "comma-separated assemblies in aggregation order")
	f.Duration("http-timeout", 30*time.Second, "timeout for each upstream request")
	f.String("summary-model", "claude-3-5-haiku-latest", "Claude model for change-log digests")
	f.String("anthropic-api-key", "", "API key enabling change-log digests")

	// Viper keys use underscores (state_dir) so they match the env var
	// suffix after stripping the VARIANTDOCS_ prefix.
	bindFlag := func(viperKey, flagName string) {
		_ = viper.BindPFlag(viperKey, f.Lookup(flagName))
	}
	bindFlag("port", "port")
	bindFlag("state_dir", "state-dir")
	bindFlag("api_base_url", "api-base-url")
	bindFlag("metadata_url", "metadata-url")
	bindFlag("fields_url", "fields-url")
	bindFlag("release_index_url", "release-index-url")
	bindFlag("assemblies", "assemblies")
	bindFlag("http_timeout", "http-timeout")
	bindFlag("summary_model", "summary-model")
	bindFlag("anthropic_api_key", "anthropic-api-key")

	viper.SetEnvPrefix("VARIANTDOCS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the documentation site (default)",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "browse",
			Short: "Browse the release notes in the terminal",
			RunE:  runBrowse,
		},
		&cobra.Command{
			Use:   "mcp",
			Short: "Serve release notes and metadata as MCP tools over stdio",
			RunE:  runMCP,
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the shared wiring of every subcommand.
type app struct {
	cfg      config.Config
	database *db.DB
	col      *releases.Collection
	reports  []releases.LoadReport
	source   releases.ChangeLogSource
	meta     *metadata.Client
	catalog  *metadata.Catalog
}

func (a *app) Close() {
	if a.database != nil {
		_ = a.database.Close()
	}
}

// bootstrap validates the configuration, opens the cache, and aggregates
// the release indexes in assembly order.
func bootstrap(ctx context.Context) (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	assemblies := make([]releases.Assembly, 0, len(cfg.Assemblies))
	for _, s := range cfg.Assemblies {
		a, err := releases.ParseAssembly(s)
		if err != nil {
			return nil, err
		}
		assemblies = append(assemblies, a)
	}

	catalog, err := metadata.LoadCatalog()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	database, err := db.Open(filepath.Join(cfg.StateDir, "variantdocs.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if n, err := database.CountChangeLogs(); err != nil {
		log.Printf("changelog cache: %v", err)
	} else {
		log.Printf("changelog cache: %d change-logs in %s", n, cfg.StateDir)
	}

	client := releases.NewClient(cfg.ReleaseIndexURL, cfg.HTTPTimeout)
	col, reports := releases.Load(ctx, client, assemblies)
	log.Printf("loaded %d releases over %d dates (%d skipped records)", col.Len(), len(col.Dates()), col.Skipped())

	return &app{
		cfg:      cfg,
		database: database,
		col:      col,
		reports:  reports,
		source:   releases.NewCachedSource(client, database),
		meta:     metadata.NewClient(cfg.MetadataURL, cfg.FieldsURL, cfg.HTTPTimeout),
		catalog:  catalog,
	}, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("received %s, shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("variantdocs %s starting\n", config.Version)
	fmt.Printf("  Assemblies: %s\n", strings.Join(a.cfg.Assemblies, ", "))
	fmt.Printf("  Releases: %d\n", a.col.Len())
	fmt.Printf("  API: %s\n", a.cfg.APIBaseURL)
	fmt.Printf("  State: %s\n", a.cfg.StateDir)
	fmt.Printf("  Listening: :%d\n", a.cfg.Port)
	fmt.Println()

	opts := []web.ServerOption{
		web.WithSearcher(demo.NewSearcher(a.cfg.APIBaseURL, a.cfg.HTTPTimeout)),
		web.WithLoadReports(a.reports),
	}
	if s := digest.NewAnthropicSummarizer(a.cfg.AnthropicAPIKey, a.cfg.SummaryModel); s != nil {
		opts = append(opts, web.WithDigests(digest.NewService(s, a.database, a.cfg.SummaryModel)))
		fmt.Printf("  Digests: %s\n", a.cfg.SummaryModel)
	}

	webServer := web.New(&a.cfg, a.col, a.source, a.meta, a.catalog, opts...)
	errCh := make(chan error, 1)
	go func() {
		errCh <- webServer.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("web server shutdown: %v", err)
	}
	return nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	// The alternate screen owns the terminal; logs go to a file instead.
	logFile, err := tea.LogToFile(filepath.Join(os.TempDir(), "variantdocs-browse.log"), "browse")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close() //nolint:errcheck

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(ctx, releases.NewBoard(a.col, a.source))
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	// stdout carries the protocol.
	log.SetOutput(os.Stderr)

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return mcpserver.NewServer(a.col, a.source, a.meta, a.catalog).Run(ctx)
}
