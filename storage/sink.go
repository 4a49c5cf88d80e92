package storage

import (
	"context"

	"sjsage522/soldlistings/internal/crawler"
)

// Sink persists the listings of a finished run
type Sink interface {
	// Name identifies the sink in logs
	Name() string

	// Write stores listings in the order given
	Write(ctx context.Context, listings []crawler.Listing) error
}

// Rows returns the tabular view of listings, one row per listing
func Rows(listings []crawler.Listing) [][]string {
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, l.Row())
	}
	return rows
}
