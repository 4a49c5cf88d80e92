package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sjsage522/soldlistings/internal/crawler"
	"sjsage522/soldlistings/logger"
	apperrors "sjsage522/soldlistings/pkg/errors"
	"sjsage522/soldlistings/services/publisher"
	"sjsage522/soldlistings/storage"
)

// ListingStreamKey is the stream field each published listing is stored under
const ListingStreamKey = "b64_listing"

// Options controls a run
type Options struct {
	// StartID is the id given to the first listing
	StartID int
	// Strict aborts the run on the first page whose structure changed
	Strict bool
}

// Worker handles the discover, extract and emit process
type Worker struct {
	crawler   crawler.Crawler
	publisher publisher.Publisher
	sinks     []storage.Sink
	opts      Options
	log       *logger.Logger
}

// NewWorker creates a new worker. pub may be nil.
func NewWorker(c crawler.Crawler, pub publisher.Publisher, sinks []storage.Sink, opts Options) *Worker {
	return &Worker{
		crawler:   c,
		publisher: pub,
		sinks:     sinks,
		opts:      opts,
		log:       logger.ForWorker(),
	}
}

// Run scrapes every query and hands the numbered listings to the sinks and
// publisher. Nothing is emitted when no result page was discovered or when
// the run fails before the end.
func (w *Worker) Run(ctx context.Context, queries []string) (*Result, error) {
	start := time.Now()
	agg := NewAggregator(w.opts.StartID)

	if len(queries) == 0 {
		w.log.Info().Msg("No queries given, nothing to do")
		return agg.Result(), nil
	}

	sets, err := w.crawler.DiscoverPages(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("discover pages: %w", err)
	}

	totalPages := 0
	for _, set := range sets {
		totalPages += len(set.Pages)
	}
	if totalPages == 0 {
		w.log.Warn().
			Int("queries", len(queries)).
			Msg("No result pages discovered, nothing written")
		return agg.Result(), nil
	}

	for _, set := range sets {
		for _, page := range set.Pages {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			listings, err := w.crawler.ExtractPage(ctx, page)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				if !skippable(err, w.opts.Strict) {
					return nil, fmt.Errorf("query %q: %w", set.Query, err)
				}
				w.log.Warn().
					Err(err).
					Str("query", set.Query).
					Str("page", page).
					Msg("Page skipped")
				agg.Skip()
				continue
			}

			agg.Add(listings)
		}
	}

	result := agg.Result()
	if err := w.emit(ctx, result); err != nil {
		return result, err
	}

	w.log.Info().
		Int("listings", len(result.Records)).
		Int("pages", result.Pages).
		Int("skipped_pages", result.SkippedPages).
		Int("next_id", result.NextID).
		Dur("elapsed", time.Since(start)).
		Msg("Run complete")

	return result, nil
}

// skippable reports whether a page error leaves the rest of the run valid
func skippable(err error, strict bool) bool {
	var se *apperrors.ScrapeError
	if !errors.As(err, &se) || !se.IsPageLocal() {
		return false
	}
	return !strict || se.Type != apperrors.ErrorTypeStructure
}

// emit writes the result to every sink, then publishes it
func (w *Worker) emit(ctx context.Context, result *Result) error {
	for _, sink := range w.sinks {
		if err := sink.Write(ctx, result.Records); err != nil {
			return fmt.Errorf("%s sink: %w", sink.Name(), err)
		}
	}

	if w.publisher == nil {
		return nil
	}

	for _, listing := range result.Records {
		data, err := json.Marshal(listing)
		if err != nil {
			return apperrors.NewPublisher("", "failed to encode listing", err)
		}
		if err := w.publisher.Publish(ctx, ListingStreamKey, data); err != nil {
			return err
		}
	}

	if err := w.publisher.TrimStreams(ctx); err != nil {
		w.log.Warn().Err(err).Msg("Stream trimming failed")
	}

	return nil
}
