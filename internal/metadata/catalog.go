package metadata

import (
	_ "embed"
	"fmt"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// CatalogEntry is one row of the data source table.
type CatalogEntry struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key"`
	Src  string `yaml:"src"`
}

// Catalog is the ordered list of sources shown on the docs index.
type Catalog struct {
	Sources []CatalogEntry `yaml:"sources"`
}

// LoadCatalog parses the embedded source catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog parses a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("metadata: parse catalog: %w", err)
	}
	for i, s := range c.Sources {
		if s.Name == "" || s.Key == "" {
			return nil, fmt.Errorf("metadata: catalog entry %d needs name and key", i)
		}
		if s.Src == "" {
			c.Sources[i].Src = s.Key
		}
	}
	return &c, nil
}

// SummaryRow is one populated row of the source table. Version and Count
// stay empty when the metadata does not mention the source.
type SummaryRow struct {
	Name    string
	Key     string
	Version string
	Count   string
}

// Summary is the populated source table.
type Summary struct {
	Total string
	Rows  []SummaryRow
}

// Summarize fills the catalog rows from m. A nil m yields the bare rows.
func (c *Catalog) Summarize(m *Metadata) Summary {
	s := Summary{Rows: make([]SummaryRow, len(c.Sources))}
	for i, e := range c.Sources {
		s.Rows[i] = SummaryRow{Name: e.Name, Key: e.Key}
	}
	if m == nil {
		return s
	}

	s.Total = humanize.Comma(m.Total())
	for i, e := range c.Sources {
		row := &s.Rows[i]
		if src, ok := m.Src[e.Src]; ok {
			row.Version = src.Version
			if n, ok := src.Stats[e.Key]; ok {
				row.Count = humanize.Comma(n)
			}
		}
		if row.Version == "" {
			row.Version = m.SrcVersion[e.Key]
		}
		if row.Count == "" {
			if n, ok := m.Stats[e.Key]; ok {
				row.Count = humanize.Comma(n)
			}
		}
	}
	return s
}
