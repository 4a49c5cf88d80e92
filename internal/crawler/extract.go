package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "sjsage522/soldlistings/pkg/errors"
)

// soldPrefix precedes the sale date in a caption row
const soldPrefix = "Sold "

// ExtractPage fetches one result page and extracts its listings. Every call
// starts from empty state; a failed fetch yields no listings and an error.
func (c *SoldCrawler) ExtractPage(ctx context.Context, pageURL string) ([]Listing, error) {
	body, err := c.fetchWithCache(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := c.createDocument(pageURL, body)
	if err != nil {
		return nil, err
	}

	listings, err := ExtractListings(doc, c.Selectors)
	if err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("page", pageURL).
		Int("listings", len(listings)).
		Msg("Extracted listings")

	return listings, nil
}

// ExtractListings pairs the i-th title, date and price of a result page once
// the header entries of each group are dropped. Groups of unequal length
// mean the markup changed and yield an ErrorTypeStructure error.
func ExtractListings(doc *goquery.Document, sel Selectors) ([]Listing, error) {
	titles := skipHeader(doc.Find(sel.Title), sel.TitleHeaderSkip)
	dates := skipHeader(doc.Find(sel.Date), sel.DateHeaderSkip)
	prices := skipHeader(doc.Find(sel.Price), sel.PriceHeaderSkip)

	n := titles.Length()
	if dates.Length() != n || prices.Length() != n {
		var pageURL string
		if doc.Url != nil {
			pageURL = doc.Url.String()
		}
		return nil, apperrors.NewStructure(pageURL, fmt.Sprintf(
			"element groups do not align: titles=%d dates=%d prices=%d",
			n, dates.Length(), prices.Length(),
		))
	}

	listings := make([]Listing, 0, n)
	for i := 0; i < n; i++ {
		listings = append(listings, Listing{
			Name:       titles.Eq(i).Text(),
			DateSold:   CleanSoldDate(dates.Eq(i).Text()),
			SoldAmount: prices.Eq(i).Text(),
		})
	}

	return listings, nil
}

// CleanSoldDate strips the "Sold " label and surrounding whitespace
func CleanSoldDate(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, soldPrefix, ""))
}

// skipHeader drops the first n entries of s; fewer than n leaves it empty
func skipHeader(s *goquery.Selection, n int) *goquery.Selection {
	if n <= 0 {
		return s
	}
	if n > s.Length() {
		n = s.Length()
	}
	return s.Slice(n, s.Length())
}
