package releases

import (
	"log"
	"sort"
	"time"
)

// Collection groups releases by calendar date. Entries under a date keep
// the order in which they were appended.
type Collection struct {
	byDate  map[string][]Release
	skipped int
}

// NewCollection returns an empty Collection.
func NewCollection() *Collection {
	return &Collection{byDate: make(map[string][]Release)}
}

// AppendResponses tags each version with assembly and appends it under its
// release date. Appending the same assembly twice duplicates its entries.
func (c *Collection) AppendResponses(versions []Release, assembly Assembly) {
	for _, v := range versions {
		key, err := DateKey(v.ReleaseDate)
		if err != nil {
			log.Printf("AppendResponses: %s %s: %v", assembly, v.TargetVersion, err)
			c.skipped++
			continue
		}
		v.Assembly = assembly
		c.byDate[key] = append(c.byDate[key], v)
	}
}

// Dates returns every date key, newest first. Keys are compared as parsed
// dates, not strings.
func (c *Collection) Dates() []string {
	type keyed struct {
		key string
		at  time.Time
	}
	ks := make([]keyed, 0, len(c.byDate))
	for k := range c.byDate {
		t, _ := time.Parse(dateKeyLayout, k)
		ks = append(ks, keyed{key: k, at: t})
	}
	sort.SliceStable(ks, func(i, j int) bool {
		return ks[i].at.After(ks[j].at)
	})
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.key
	}
	return out
}

// Releases returns a copy of the releases published on date.
func (c *Collection) Releases(date string) []Release {
	rs := c.byDate[date]
	out := make([]Release, len(rs))
	copy(out, rs)
	return out
}

// Len is the total number of releases across all dates.
func (c *Collection) Len() int {
	n := 0
	for _, rs := range c.byDate {
		n += len(rs)
	}
	return n
}

// Skipped counts records dropped for an unparseable release date.
func (c *Collection) Skipped() int { return c.skipped }
