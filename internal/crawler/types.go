package crawler

import (
	"context"
	"strconv"
	"time"
)

// Listing represents one sold listing scraped from a result page
type Listing struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	DateSold   string `json:"date sold"`
	SoldAmount string `json:"sold amount"`
}

// Header is the tabular column header matching Listing.Row
var Header = []string{"id", "Name", "Date Sold", "Sold Amount"}

// Row returns the listing as a tabular row in Header order
func (l Listing) Row() []string {
	return []string{strconv.Itoa(l.ID), l.Name, l.DateSold, l.SoldAmount}
}

// PageSet holds the distinct result pages discovered for one query,
// in first-seen order
type PageSet struct {
	Query     string
	SearchURL string
	Pages     []string
}

// Crawler interface defines the contract the worker drives
type Crawler interface {
	// DiscoverPages returns one PageSet per query whose search page could be
	// fetched. Queries that fail are omitted.
	DiscoverPages(ctx context.Context, queries []string) ([]PageSet, error)

	// ExtractPage fetches one result page and returns its listings in page
	// order, with ids left at zero
	ExtractPage(ctx context.Context, pageURL string) ([]Listing, error)

	// GetName returns the crawler's name for logging and identification
	GetName() string
}

const (
	// PaginationMarker is the query parameter that marks a result page link
	PaginationMarker = "pgn="

	// TitleHeaderSkip is the number of promotional title blocks that open every result page
	TitleHeaderSkip = 2
	// DateHeaderSkip is the number of non-item date blocks at the top of a result page
	DateHeaderSkip = 0
	// PriceHeaderSkip is the number of price spans at the top of a result page that belong to no item
	PriceHeaderSkip = 2

	// DefaultCacheKey is the memcache key marking the site as rate limited
	DefaultCacheKey = "ebay_rate_limited"
)

// Selectors contains CSS selectors and header sizes for the element groups
// of a result page
type Selectors struct {
	PageLink string
	Title    string
	Date     string
	Price    string

	TitleHeaderSkip int
	DateHeaderSkip  int
	PriceHeaderSkip int
}

// DefaultSelectors returns the selectors matching eBay's sold listing markup
func DefaultSelectors() Selectors {
	return Selectors{
		PageLink:        "a[href]",
		Title:           "div.s-item__title",
		Date:            "div.s-item__caption--row",
		Price:           "span.s-item__price",
		TitleHeaderSkip: TitleHeaderSkip,
		DateHeaderSkip:  DateHeaderSkip,
		PriceHeaderSkip: PriceHeaderSkip,
	}
}

// CrawlerConfig contains configuration for a crawler
type CrawlerConfig struct {
	SearchBaseURL     string
	IncludeSearchPage bool
	CacheKey          string
	BlockTime         time.Duration
	Selectors         Selectors
}
