package worker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/soldlistings/internal/crawler"
	apperrors "sjsage522/soldlistings/pkg/errors"
	"sjsage522/soldlistings/services/publisher"
	"sjsage522/soldlistings/storage"
)

// MockCrawler implements the crawler.Crawler interface for testing
type MockCrawler struct {
	sets        []crawler.PageSet
	discoverErr error
	pages       map[string][]crawler.Listing
	pageErrs    map[string]error
	visited     []string
}

// Ensure MockCrawler implements crawler.Crawler
var _ crawler.Crawler = (*MockCrawler)(nil)

func (m *MockCrawler) DiscoverPages(ctx context.Context, queries []string) ([]crawler.PageSet, error) {
	return m.sets, m.discoverErr
}

func (m *MockCrawler) ExtractPage(ctx context.Context, pageURL string) ([]crawler.Listing, error) {
	m.visited = append(m.visited, pageURL)
	if err, ok := m.pageErrs[pageURL]; ok {
		return nil, err
	}
	return m.pages[pageURL], nil
}

func (m *MockCrawler) GetName() string {
	return "MockCrawler"
}

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu       sync.Mutex
	messages []string
	trimmed  bool
}

// Ensure MockPublisher implements publisher.Publisher
var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, key+"="+base64.StdEncoding.EncodeToString(message))
	return nil
}

func (m *MockPublisher) TrimStreams(ctx context.Context) error {
	m.trimmed = true
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// MockSink implements storage.Sink for testing
type MockSink struct {
	writes   [][]crawler.Listing
	writeErr error
}

// Ensure MockSink implements storage.Sink
var _ storage.Sink = (*MockSink)(nil)

func (m *MockSink) Name() string {
	return "mock"
}

func (m *MockSink) Write(ctx context.Context, listings []crawler.Listing) error {
	m.writes = append(m.writes, listings)
	return m.writeErr
}

func listings(names ...string) []crawler.Listing {
	var out []crawler.Listing
	for _, name := range names {
		out = append(out, crawler.Listing{Name: name, DateSold: "Apr 23, 2025", SoldAmount: "$1.00"})
	}
	return out
}

func twoQueryCrawler() *MockCrawler {
	return &MockCrawler{
		sets: []crawler.PageSet{
			{Query: "first", Pages: []string{"p1", "p2"}},
			{Query: "second", Pages: []string{"p3"}},
		},
		pages: map[string][]crawler.Listing{
			"p1": listings("a", "b"),
			"p2": listings("c"),
			"p3": listings("d", "e"),
		},
	}
}

func TestWorkerRunNumbersAcrossQueriesAndPages(t *testing.T) {
	mockCrawler := twoQueryCrawler()
	sink := &MockSink{}

	w := NewWorker(mockCrawler, nil, []storage.Sink{sink}, Options{StartID: 10})
	result, err := w.Run(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2", "p3"}, mockCrawler.visited)
	require.Len(t, result.Records, 5)
	for i, record := range result.Records {
		assert.Equal(t, 10+i, record.ID)
	}
	assert.Equal(t, "a", result.Records[0].Name)
	assert.Equal(t, "e", result.Records[4].Name)
	assert.Equal(t, 15, result.NextID)
	assert.Equal(t, storage.Rows(result.Records), result.Rows)

	require.Len(t, sink.writes, 1)
	assert.Equal(t, result.Records, sink.writes[0])
}

func TestWorkerRunSkipsFailedPages(t *testing.T) {
	mockCrawler := twoQueryCrawler()
	mockCrawler.pageErrs = map[string]error{
		"p1": apperrors.NewNetwork("p1", "fetch failed", errors.New("status 500")),
		"p2": apperrors.NewStructure("p2", "titles=2 dates=1 prices=2"),
	}

	w := NewWorker(mockCrawler, nil, nil, Options{})
	result, err := w.Run(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2", "p3"}, mockCrawler.visited)
	require.Len(t, result.Records, 2)
	assert.Equal(t, 0, result.Records[0].ID)
	assert.Equal(t, "d", result.Records[0].Name)
	assert.Equal(t, 1, result.Records[1].ID)
	assert.Equal(t, 2, result.SkippedPages)
}

func TestWorkerRunStrictAbortsOnStructureChange(t *testing.T) {
	mockCrawler := twoQueryCrawler()
	mockCrawler.pageErrs = map[string]error{
		"p2": apperrors.NewStructure("p2", "titles=2 dates=1 prices=2"),
	}
	sink := &MockSink{}

	w := NewWorker(mockCrawler, nil, []storage.Sink{sink}, Options{Strict: true})
	result, err := w.Run(context.Background(), []string{"first", "second"})
	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStructureMismatch)
	assert.Contains(t, err.Error(), `query "first"`)
	assert.Empty(t, sink.writes, "nothing is written when the run aborts")
}

func TestWorkerRunStrictStillSkipsNetworkFailures(t *testing.T) {
	mockCrawler := twoQueryCrawler()
	mockCrawler.pageErrs = map[string]error{
		"p1": apperrors.NewNetwork("p1", "fetch failed", nil),
	}

	w := NewWorker(mockCrawler, nil, nil, Options{Strict: true})
	result, err := w.Run(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Len(t, result.Records, 3)
}

func TestWorkerRunNoQueries(t *testing.T) {
	mockCrawler := twoQueryCrawler()
	sink := &MockSink{}

	w := NewWorker(mockCrawler, nil, []storage.Sink{sink}, Options{StartID: 3})
	result, err := w.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Equal(t, 3, result.NextID)
	assert.Empty(t, mockCrawler.visited)
	assert.Empty(t, sink.writes)
}

func TestWorkerRunNoPagesDiscovered(t *testing.T) {
	mockCrawler := &MockCrawler{
		sets: []crawler.PageSet{{Query: "rare", Pages: nil}},
	}
	sink := &MockSink{}
	mockPublisher := &MockPublisher{}

	w := NewWorker(mockCrawler, mockPublisher, []storage.Sink{sink}, Options{})
	result, err := w.Run(context.Background(), []string{"rare", "broken"})
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Empty(t, sink.writes)
	assert.Empty(t, mockPublisher.messages)
	assert.False(t, mockPublisher.trimmed)
}

func TestWorkerRunWritesEvenWhenPagesHoldNoListings(t *testing.T) {
	mockCrawler := &MockCrawler{
		sets: []crawler.PageSet{{Query: "q", Pages: []string{"p1"}}},
	}
	sink := &MockSink{}

	w := NewWorker(mockCrawler, nil, []storage.Sink{sink}, Options{})
	result, err := w.Run(context.Background(), []string{"q"})
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	require.Len(t, sink.writes, 1)
	assert.Empty(t, sink.writes[0])
}

func TestWorkerRunDiscoverError(t *testing.T) {
	mockCrawler := &MockCrawler{discoverErr: context.Canceled}

	w := NewWorker(mockCrawler, nil, nil, Options{})
	_, err := w.Run(context.Background(), []string{"q"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkerRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mockCrawler := twoQueryCrawler()
	w := NewWorker(mockCrawler, nil, nil, Options{})
	_, err := w.Run(ctx, []string{"first"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mockCrawler.visited)
}

func TestWorkerRunSinkError(t *testing.T) {
	sink := &MockSink{writeErr: apperrors.NewStorage("out.csv", "disk full", nil)}

	w := NewWorker(twoQueryCrawler(), nil, []storage.Sink{sink}, Options{})
	result, err := w.Run(context.Background(), []string{"first", "second"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mock sink")
	assert.Equal(t, apperrors.ErrorTypeStorage, apperrors.TypeOf(err))
	assert.Len(t, result.Records, 5, "records are still returned")
}

func TestWorkerRunPublishes(t *testing.T) {
	mockPublisher := &MockPublisher{}

	w := NewWorker(twoQueryCrawler(), mockPublisher, nil, Options{StartID: 1})
	result, err := w.Run(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	require.Len(t, mockPublisher.messages, len(result.Records))
	assert.True(t, mockPublisher.trimmed)

	key, encoded, found := strings.Cut(mockPublisher.messages[0], "=")
	require.True(t, found)
	assert.Equal(t, ListingStreamKey, key)

	data, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var published crawler.Listing
	require.NoError(t, json.Unmarshal(data, &published))
	assert.Equal(t, result.Records[0], published)
	assert.Equal(t, 1, published.ID)
}

func TestWorkerRunAbortsOnUnexpectedPageError(t *testing.T) {
	mockCrawler := twoQueryCrawler()
	mockCrawler.pageErrs = map[string]error{"p2": errors.New("boom")}

	w := NewWorker(mockCrawler, nil, nil, Options{})
	_, err := w.Run(context.Background(), []string{"first", "second"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []string{"p1", "p2"}, mockCrawler.visited)
}
