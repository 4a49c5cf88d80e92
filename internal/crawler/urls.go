package crawler

import (
	"net/url"
	"strings"
)

// DefaultSearchBaseURL is eBay's search endpoint
const DefaultSearchBaseURL = "https://www.ebay.com/sch/i.html"

// soldFilters restricts results to sold, completed listings
const soldFilters = "&LH_Sold=1&LH_Complete=1"

// BuildSearchURL turns keywords into an eBay sold-listings search URL
func BuildSearchURL(keywords string) string {
	return BuildSearchURLWithBase(DefaultSearchBaseURL, keywords)
}

// BuildSearchURLWithBase builds a sold-listings search URL against base.
// Spaces become '+'; nothing else is escaped. Empty keywords yield "".
func BuildSearchURLWithBase(base, keywords string) string {
	if keywords == "" {
		return ""
	}
	return base + "?_nkw=" + strings.ReplaceAll(keywords, " ", "+") + soldFilters
}

// ResolveURL resolves href against base. Unparseable input is returned as is.
func ResolveURL(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
