package crawler

import (
	"sjsage522/soldlistings/logger"
	"sjsage522/soldlistings/services/cache"
)

// SoldCrawler discovers and extracts eBay sold listings
type SoldCrawler struct {
	BaseCrawler
	SearchBaseURL     string
	IncludeSearchPage bool
	Selectors         Selectors
	log               *logger.Logger
}

// NewSoldCrawler creates a new sold-listings crawler. A nil cacheSvc
// disables the rate-limit block.
func NewSoldCrawler(config CrawlerConfig, fetcher PageFetcher, cacheSvc cache.CacheService) *SoldCrawler {
	if config.SearchBaseURL == "" {
		config.SearchBaseURL = DefaultSearchBaseURL
	}
	if config.Selectors == (Selectors{}) {
		config.Selectors = DefaultSelectors()
	}
	if config.CacheKey == "" {
		config.CacheKey = DefaultCacheKey
	}

	c := &SoldCrawler{
		BaseCrawler: BaseCrawler{
			Fetcher:   fetcher,
			CacheKey:  config.CacheKey,
			CacheSvc:  cacheSvc,
			BlockTime: config.BlockTime,
		},
		SearchBaseURL:     config.SearchBaseURL,
		IncludeSearchPage: config.IncludeSearchPage,
		Selectors:         config.Selectors,
	}
	c.log = logger.ForCrawler(c.GetName())
	return c
}

// GetName returns the crawler name
func (c *SoldCrawler) GetName() string {
	return "SoldCrawler"
}
