package crawler

import (
	"context"
	"errors"
	"io"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/soldlistings/helpers"
	"sjsage522/soldlistings/logger"
	apperrors "sjsage522/soldlistings/pkg/errors"
	"sjsage522/soldlistings/services/cache"
)

// PageFetcher fetches a URL and returns its body decoded to UTF-8
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (io.Reader, error)
}

// BaseCrawler provides common functionality for all crawlers
type BaseCrawler struct {
	Fetcher   PageFetcher
	CacheKey  string
	CacheSvc  cache.CacheService
	BlockTime time.Duration
}

func (c *BaseCrawler) blockEnabled() bool {
	return c.CacheSvc != nil && c.CacheKey != ""
}

// fetchWithCache fetches a URL unless the site is marked as rate limited,
// and sets the mark when the site starts throttling
func (c *BaseCrawler) fetchWithCache(ctx context.Context, pageURL string) (io.Reader, error) {
	if c.blockEnabled() {
		if _, err := c.CacheSvc.Get(c.CacheKey); err == nil {
			return nil, apperrors.NewRateLimit(pageURL, c.BlockTime, nil)
		}
	}

	utf8Body, err := c.Fetcher.Fetch(ctx, pageURL)
	if err != nil {
		var statusErr *helpers.StatusError
		if errors.As(err, &statusErr) && statusErr.RateLimited() {
			if c.blockEnabled() {
				value := []byte(strconv.Itoa(int(c.BlockTime / time.Second)))
				if cacheErr := c.CacheSvc.Set(c.CacheKey, value, c.BlockTime); cacheErr != nil {
					logger.ForCache().Warn().
						Err(apperrors.NewCache(c.CacheKey, "failed to set rate-limit block", cacheErr)).
						Msg("Rate-limit block not stored")
				}
			}
			return nil, apperrors.NewRateLimit(pageURL, c.BlockTime, err)
		}
		return nil, apperrors.NewNetwork(pageURL, "fetch failed", err)
	}

	return utf8Body, nil
}

// createDocument creates a goquery document from a reader
func (c *BaseCrawler) createDocument(pageURL string, reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, apperrors.NewParsing(pageURL, "HTML parsing failed", err)
	}
	if u, err := url.Parse(pageURL); err == nil {
		doc.Url = u
	}
	return doc, nil
}

// ClearBlock removes the rate-limit mark so the next run fetches again
func (c *BaseCrawler) ClearBlock() error {
	if !c.blockEnabled() {
		return nil
	}
	if err := c.CacheSvc.Delete(c.CacheKey); err != nil {
		return apperrors.NewCache(c.CacheKey, "failed to clear rate-limit block", err)
	}
	return nil
}

// GetName returns the crawler's type name for logging
func (c *BaseCrawler) GetName() string {
	// Concrete crawlers override this
	return reflect.TypeOf(c).Elem().Name()
}
