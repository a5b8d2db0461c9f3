package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func validConfig() Config {
	return Config{
		ReleaseIndexURL: "https://example.org/myvariant.info-{assembly}/versions.json",
		Assemblies:      []string{"hg19", "hg38"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "no assemblies", mutate: func(c *Config) { c.Assemblies = nil }, wantErr: "at least one"},
		{name: "unknown", mutate: func(c *Config) { c.Assemblies = []string{"hg18"} }, wantErr: "unknown assembly"},
		{name: "duplicate", mutate: func(c *Config) { c.Assemblies = []string{"hg19", "hg19"} }, wantErr: "more than once"},
		{name: "no placeholder", mutate: func(c *Config) { c.ReleaseIndexURL = "https://example.org/v.json" }, wantErr: "{assembly}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFromViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("port", 9090)
	viper.Set("api_base_url", "https://myvariant.info/")
	viper.Set("assemblies", " hg38, hg19 ,")
	viper.Set("http_timeout", "15s")

	cfg := Load()
	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.APIBaseURL != "https://myvariant.info" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
	if len(cfg.Assemblies) != 2 || cfg.Assemblies[0] != "hg38" || cfg.Assemblies[1] != "hg19" {
		t.Errorf("expected [hg38 hg19], got %v", cfg.Assemblies)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %s", cfg.HTTPTimeout)
	}
}
