// Package rss defines the fetcher contract for the news area. The core
// never polls feeds itself; a host wires a real Fetcher and pushes the
// results into the store. The default fetcher does nothing, which keeps
// the news screens working from already persisted items.
package rss

import (
	"context"
	"time"
)

// Item is one fetched feed entry before persistence.
type Item struct {
	Title       string
	Link        string
	Description string
	PublishedAt time.Time
}

// Fetcher retrieves the current items of a feed URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]Item, error)
}

// NopFetcher is the default Fetcher: it returns no items and no error.
type NopFetcher struct{}

var _ Fetcher = NopFetcher{}

// Fetch returns an empty result.
func (NopFetcher) Fetch(context.Context, string) ([]Item, error) {
	return nil, nil
}
