package releases

import (
	"context"
	"log"

	"golang.org/x/sync/singleflight"
)

// TextStore persists change-log text by release key.
type TextStore interface {
	GetChangeLog(key string) (text string, ok bool, err error)
	PutChangeLog(key, text string) error
}

// CachedSource serves change-logs from a TextStore, falling back to the
// wrapped source. Concurrent misses for the same release key share one
// fetch.
type CachedSource struct {
	source ChangeLogSource
	store  TextStore
	group  singleflight.Group
}

// NewCachedSource wraps source with store. A nil store disables caching
// but keeps the fetch deduplication.
func NewCachedSource(source ChangeLogSource, store TextStore) *CachedSource {
	return &CachedSource{source: source, store: store}
}

// FetchChangeLog implements ChangeLogSource.
func (c *CachedSource) FetchChangeLog(ctx context.Context, r Release) (string, error) {
	key := r.Key()
	if c.store != nil {
		text, ok, err := c.store.GetChangeLog(key)
		if err != nil {
			log.Printf("changelog cache: get %s: %v", key, err)
		} else if ok {
			return text, nil
		}
	}

	// The shared fetch outlives any one caller; each caller still stops
	// waiting when its own context ends.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		text, err := c.source.FetchChangeLog(fetchCtx, r)
		if err != nil {
			return "", err
		}
		if c.store != nil {
			if err := c.store.PutChangeLog(key, text); err != nil {
				log.Printf("changelog cache: put %s: %v", key, err)
			}
		}
		return text, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
