package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"sjsage522/soldlistings/internal/crawler"
	"sjsage522/soldlistings/logger"
	apperrors "sjsage522/soldlistings/pkg/errors"
)

// ItemsKey is the top-level key wrapping the listing array
const ItemsKey = "items"

// Document is the JSON file layout
type Document struct {
	Items []crawler.Listing `json:"items"`
}

// JSONWriter saves listings as one pretty-printed JSON object
type JSONWriter struct {
	path string
}

func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path}
}

func (w *JSONWriter) Name() string {
	return "json"
}

func (w *JSONWriter) Write(_ context.Context, listings []crawler.Listing) error {
	if listings == nil {
		listings = []crawler.Listing{}
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return apperrors.NewStorage(w.path, "could not create output dir", err)
	}

	file, err := os.Create(w.path)
	if err != nil {
		return apperrors.NewStorage(w.path, "could not create file", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(Document{Items: listings}); err != nil {
		return apperrors.NewStorage(w.path, "json encode failed", err)
	}

	if err := file.Close(); err != nil {
		return apperrors.NewStorage(w.path, "could not close file", err)
	}

	logger.ForStorage(w.Name()).Info().
		Int("listings", len(listings)).
		Str("path", w.path).
		Msg("Saved listings")
	return nil
}
