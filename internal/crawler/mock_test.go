package crawler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"sjsage522/soldlistings/helpers"
	"sjsage522/soldlistings/services/cache"
)

// Ensure MockCacheService implements cache.CacheService
var _ cache.CacheService = (*MockCacheService)(nil)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	cache map[string][]byte
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, &mockError{message: "cache miss"}
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

type mockError struct {
	message string
}

func (e *mockError) Error() string {
	return e.message
}

// resultPageHTML renders a sold-listings result page with the two
// promotional title and price entries eBay puts above the items
func resultPageHTML(titles, dates, prices []string) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="srp-results">`)
	b.WriteString(`<li><div class=s-item__title><span role=heading aria-level=3>Shop on eBay</span></div>`)
	b.WriteString(`<span class=s-item__price>$20.00</span></li>`)
	b.WriteString(`<li><div class=s-item__title><span role=heading aria-level=3>Shop on eBay</span></div>`)
	b.WriteString(`<span class=s-item__price>$20.00</span></li>`)
	for _, title := range titles {
		fmt.Fprintf(&b, `<li><div class=s-item__title><span role=heading aria-level=3><!--F#f_0-->%s<!--F/--></span></div></li>`, title)
	}
	for _, date := range dates {
		fmt.Fprintf(&b, `<li><div class=s-item__caption><div class=s-item__caption--row><span class="s-item__caption--signal POSITIVE"><span>%s</span></span></div></div></li>`, date)
	}
	for _, price := range prices {
		fmt.Fprintf(&b, `<li><div class="s-item__detail s-item__detail--primary"><span class=s-item__price><!--F#f_0--><span class=POSITIVE>%s</span><!--F/--></span></div></li>`, price)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

// newTestCrawler points a SoldCrawler at server
func newTestCrawler(server *httptest.Server, cacheSvc cache.CacheService) *SoldCrawler {
	return NewSoldCrawler(CrawlerConfig{
		SearchBaseURL: server.URL + "/sch/i.html",
		BlockTime:     time.Minute,
	}, helpers.NewFetcher(5*time.Second), cacheSvc)
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
