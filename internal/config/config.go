package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Supported assemblies, in the order their releases are aggregated by default.
var knownAssemblies = map[string]bool{"hg19": true, "hg38": true}

// Config holds all runtime configuration for variantdocs.
type Config struct {
	Port            int
	StateDir        string
	APIBaseURL      string // base of the annotation API, used by the demo search form
	MetadataURL     string
	FieldsURL       string
	ReleaseIndexURL string   // contains an {assembly} placeholder
	Assemblies      []string // aggregation order matters: first listed renders first within a date
	HTTPTimeout     time.Duration
	SummaryModel    string
	AnthropicAPIKey string
}

// Load reads configuration from viper, which merges flag values, env vars,
// and defaults (set up by the cobra command in cmd/variantdocs).
func Load() Config {
	return Config{
		Port:            viper.GetInt("port"),
		StateDir:        viper.GetString("state_dir"),
		APIBaseURL:      strings.TrimRight(viper.GetString("api_base_url"), "/"),
		MetadataURL:     viper.GetString("metadata_url"),
		FieldsURL:       viper.GetString("fields_url"),
		ReleaseIndexURL: viper.GetString("release_index_url"),
		Assemblies:      splitList(viper.GetString("assemblies")),
		HTTPTimeout:     viper.GetDuration("http_timeout"),
		SummaryModel:    viper.GetString("summary_model"),
		AnthropicAPIKey: viper.GetString("anthropic_api_key"),
	}
}

// Validate rejects configurations the loader cannot honour. A repeated
// assembly would aggregate every release twice.
func (c Config) Validate() error {
	if len(c.Assemblies) == 0 {
		return fmt.Errorf("config: at least one assembly is required")
	}
	seen := make(map[string]bool, len(c.Assemblies))
	for _, a := range c.Assemblies {
		if !knownAssemblies[a] {
			return fmt.Errorf("config: unknown assembly %q", a)
		}
		if seen[a] {
			return fmt.Errorf("config: assembly %q listed more than once", a)
		}
		seen[a] = true
	}
	if !strings.Contains(c.ReleaseIndexURL, "{assembly}") {
		return fmt.Errorf("config: release_index_url must contain {assembly}")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
