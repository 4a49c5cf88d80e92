package storage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"sjsage522/soldlistings/internal/crawler"
	"sjsage522/soldlistings/logger"
	apperrors "sjsage522/soldlistings/pkg/errors"
)

// CSVWriter saves listings to a comma-separated UTF-8 file
type CSVWriter struct {
	path string
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

func (w *CSVWriter) Name() string {
	return "csv"
}

// Write saves all listings under crawler.Header.
// Creates the output directory if it does not exist.
func (w *CSVWriter) Write(_ context.Context, listings []crawler.Listing) error {
	if err := w.WriteRows(crawler.Header, Rows(listings)); err != nil {
		return err
	}

	logger.ForStorage(w.Name()).Info().
		Int("listings", len(listings)).
		Str("path", w.path).
		Msg("Saved listings")
	return nil
}

// WriteRows writes header followed by rows. Fields are quoted only when they
// need it and lines end in CRLF.
func (w *CSVWriter) WriteRows(header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return apperrors.NewStorage(w.path, "could not create output dir", err)
	}

	file, err := os.Create(w.path)
	if err != nil {
		return apperrors.NewStorage(w.path, "could not create file", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.UseCRLF = true

	if err := writer.Write(header); err != nil {
		return apperrors.NewStorage(w.path, "csv header write failed", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return apperrors.NewStorage(w.path, "csv write failed", err)
	}

	if err := file.Close(); err != nil {
		return apperrors.NewStorage(w.path, "could not close file", err)
	}
	return nil
}
