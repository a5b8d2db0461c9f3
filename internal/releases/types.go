package releases

import (
	"encoding/json"
	"fmt"
	"time"
)

// IndexFormat is the only index document format the loader understands.
const IndexFormat = "1.0"

// dateKeyLayout is the calendar-date granularity releases are grouped by.
const dateKeyLayout = "2006-01-02"

// Assembly is a reference genome coordinate system.
type Assembly string

const (
	HG19 Assembly = "hg19"
	HG38 Assembly = "hg38"
)

// ParseAssembly validates s as one of the supported assemblies.
func ParseAssembly(s string) (Assembly, error) {
	switch a := Assembly(s); a {
	case HG19, HG38:
		return a, nil
	default:
		return "", fmt.Errorf("releases: unknown assembly %q", s)
	}
}

// IndexDocument is the per-assembly manifest listing available releases.
type IndexDocument struct {
	Format   string    `json:"format"`
	Versions []Release `json:"versions"`
}

// Release is one dated publication for one assembly. Fields the pipeline
// does not interpret are kept verbatim in Extra and written back out by
// MarshalJSON.
type Release struct {
	TargetVersion string
	ReleaseDate   string
	Assembly      Assembly
	DetailURL     string // per-version detail document, optional
	ChangesURL    string // changes.txt.url
	Extra         map[string]json.RawMessage
}

type changesDoc struct {
	Txt struct {
		URL string `json:"url"`
	} `json:"txt"`
}

// UnmarshalJSON decodes a release summary or detail document.
func (r *Release) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	str := func(key string, dst *string) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		delete(raw, key)
		if string(v) == "null" {
			return nil
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		return nil
	}

	*r = Release{}
	if err := str("target_version", &r.TargetVersion); err != nil {
		return err
	}
	if err := str("release_date", &r.ReleaseDate); err != nil {
		return err
	}
	if err := str("url", &r.DetailURL); err != nil {
		return err
	}
	var asm string
	if err := str("assembly", &asm); err != nil {
		return err
	}
	r.Assembly = Assembly(asm)

	if v, ok := raw["changes"]; ok {
		delete(raw, "changes")
		var c changesDoc
		if string(v) != "null" {
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("field changes: %w", err)
			}
		}
		r.ChangesURL = c.Txt.URL
	}

	if len(raw) > 0 {
		r.Extra = raw
	}
	return nil
}

// MarshalJSON writes the release back in the index document's shape.
func (r Release) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+5)
	for k, v := range r.Extra {
		out[k] = v
	}
	out["target_version"] = r.TargetVersion
	out["release_date"] = r.ReleaseDate
	if r.Assembly != "" {
		out["assembly"] = r.Assembly
	}
	if r.DetailURL != "" {
		out["url"] = r.DetailURL
	}
	var c changesDoc
	c.Txt.URL = r.ChangesURL
	out["changes"] = c
	return json.Marshal(out)
}

// Key identifies a release across boards: the same target version is a
// distinct release in each assembly.
func (r Release) Key() string {
	return string(r.Assembly) + "/" + r.TargetVersion
}

// DateKey truncates an ISO-8601 release date to its calendar date as
// written, ignoring time of day and offset.
func DateKey(releaseDate string) (string, error) {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		dateKeyLayout,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, releaseDate); err == nil {
			return t.Format(dateKeyLayout), nil
		}
	}
	return "", fmt.Errorf("releases: unparseable release date %q", releaseDate)
}
