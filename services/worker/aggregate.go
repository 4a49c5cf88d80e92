package worker

import (
	"sjsage522/soldlistings/internal/crawler"
)

// Result is the outcome of a run. Records and Rows always hold the same
// listings in the same order.
type Result struct {
	Records      []crawler.Listing
	Rows         [][]string
	NextID       int
	Pages        int
	SkippedPages int
}

// Aggregator numbers listings from a start id and collects them
type Aggregator struct {
	next    int
	records []crawler.Listing
	rows    [][]string
	pages   int
	skipped int
}

// NewAggregator creates an aggregator whose first listing gets id start
func NewAggregator(start int) *Aggregator {
	return &Aggregator{
		next:    start,
		records: []crawler.Listing{},
		rows:    [][]string{},
	}
}

// Add numbers one page's listings and appends them
func (a *Aggregator) Add(batch []crawler.Listing) {
	for _, l := range batch {
		l.ID = a.next
		a.next++
		a.records = append(a.records, l)
		a.rows = append(a.rows, l.Row())
	}
	a.pages++
}

// Skip records a page that contributed nothing because it failed
func (a *Aggregator) Skip() {
	a.skipped++
}

// NextID returns the id the next listing will get
func (a *Aggregator) NextID() int {
	return a.next
}

// Result returns the collected listings
func (a *Aggregator) Result() *Result {
	return &Result{
		Records:      a.records,
		Rows:         a.rows,
		NextID:       a.next,
		Pages:        a.pages,
		SkippedPages: a.skipped,
	}
}
