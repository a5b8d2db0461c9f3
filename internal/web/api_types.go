package web

import "github.com/joestump/variantdocs/internal/releases"

// APIHealth is the response of GET /api/v1/health.
type APIHealth struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Releases int    `json:"releases"`
}

// APIReleasesResponse wraps the release dates with a total count.
type APIReleasesResponse struct {
	Dates []APIReleaseDate `json:"dates"`
	Total int              `json:"total"`
}

// APIReleaseDate is one date's releases.
type APIReleaseDate struct {
	Date        string       `json:"date"`
	DisplayDate string       `json:"display_date"`
	Releases    []APIRelease `json:"releases"`
}

// APIRelease is the JSON representation of one release.
type APIRelease struct {
	ID            string `json:"id"`
	TargetVersion string `json:"target_version"`
	Assembly      string `json:"assembly"`
	ReleaseDate   string `json:"release_date"`
	ChangesURL    string `json:"changes_url,omitempty"`
	DetailURL     string `json:"detail_url,omitempty"`
}

// toAPIReleases converts board panels, keeping only assembly when set.
// Dates left without releases are dropped.
func toAPIReleases(panels []releases.Panel, assembly releases.Assembly) APIReleasesResponse {
	resp := APIReleasesResponse{Dates: []APIReleaseDate{}}
	for _, p := range panels {
		d := APIReleaseDate{Date: p.Anchor, DisplayDate: p.DisplayDate}
		for _, n := range p.Nodes {
			if assembly != "" && n.Release.Assembly != assembly {
				continue
			}
			d.Releases = append(d.Releases, APIRelease{
				ID:            n.ID,
				TargetVersion: n.Release.TargetVersion,
				Assembly:      string(n.Release.Assembly),
				ReleaseDate:   n.Release.ReleaseDate,
				ChangesURL:    n.Release.ChangesURL,
				DetailURL:     n.Release.DetailURL,
			})
		}
		if len(d.Releases) > 0 {
			resp.Dates = append(resp.Dates, d)
			resp.Total += len(d.Releases)
		}
	}
	return resp
}
