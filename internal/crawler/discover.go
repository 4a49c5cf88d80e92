package crawler

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DiscoverPages fetches the search page of every query and collects its
// pagination links. Failed fetches are logged and the query is omitted, so
// the result does not line up positionally with queries.
func (c *SoldCrawler) DiscoverPages(ctx context.Context, queries []string) ([]PageSet, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	var sets []PageSet
	for _, query := range queries {
		if err := ctx.Err(); err != nil {
			return sets, err
		}

		searchURL := BuildSearchURLWithBase(c.SearchBaseURL, query)
		if searchURL == "" {
			c.log.Warn().Msg("Skipping empty query")
			continue
		}

		body, err := c.fetchWithCache(ctx, searchURL)
		if err != nil {
			if ctx.Err() != nil {
				return sets, ctx.Err()
			}
			c.log.Warn().Err(err).Str("query", query).Msg("Search page unavailable, query skipped")
			continue
		}

		doc, err := c.createDocument(searchURL, body)
		if err != nil {
			c.log.Warn().Err(err).Str("query", query).Msg("Search page unreadable, query skipped")
			continue
		}

		pages := PaginationLinks(doc.Selection, c.Selectors.PageLink, doc.Url)
		if c.IncludeSearchPage {
			pages = prependUnique(searchURL, pages)
		}

		c.log.Debug().
			Str("query", query).
			Int("pages", len(pages)).
			Msg("Discovered result pages")

		sets = append(sets, PageSet{
			Query:     query,
			SearchURL: searchURL,
			Pages:     pages,
		})
	}

	return sets, nil
}

// PaginationLinks returns every distinct link target under root that carries
// the pagination marker, resolved against base, in document order
func PaginationLinks(root *goquery.Selection, linkSelector string, base *url.URL) []string {
	seen := make(map[string]struct{})
	var pages []string

	root.Find(linkSelector).Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		href = strings.TrimSpace(href)
		if !exists || !strings.Contains(href, PaginationMarker) {
			return
		}

		link := ResolveURL(base, href)
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		pages = append(pages, link)
	})

	return pages
}

func prependUnique(first string, pages []string) []string {
	out := []string{first}
	for _, p := range pages {
		if p != first {
			out = append(out, p)
		}
	}
	return out
}
