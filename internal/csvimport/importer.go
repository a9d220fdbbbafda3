// Package csvimport loads transactions from CSV files through the engine, so
// imported rows get the same validation and balance accounting as manual
// entries.
package csvimport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/satangapp/satang/internal/engine"
	"github.com/satangapp/satang/internal/model"
)

// Expected header columns, in order. Tags are pipe-separated in one cell.
var expectedHeader = []string{"date", "type", "amount", "account_id", "category_id", "description", "note", "tags"}

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{time.RFC3339, "2006-01-02", "02/01/2006"}

// Importer reads CSV rows and creates transactions one at a time.
type Importer struct {
	engine   *engine.Engine
	progress io.Writer
}

// NewImporter creates an importer. When progress is non-nil a progress bar is
// rendered to it during Import.
func NewImporter(eng *engine.Engine, progress io.Writer) (*Importer, error) {
	if eng == nil {
		return nil, errors.New("engine is required")
	}
	return &Importer{engine: eng, progress: progress}, nil
}

// Result summarizes a completed import.
type Result struct {
	Imported int
	Total    int
}

// Import reads every row of r and creates a transaction per row. The first
// failing row aborts the import; rows created before it are kept.
func (i *Importer) Import(ctx context.Context, userID string, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	bar := i.newProgressBar(len(records))
	result := &Result{Total: len(records)}

	for idx, record := range records {
		params, err := parseRow(record)
		if err != nil {
			return result, fmt.Errorf("row %d: %w", idx+2, err)
		}
		if _, err := i.engine.Create(ctx, userID, params); err != nil {
			return result, fmt.Errorf("row %d: %w", idx+2, err)
		}
		result.Imported++
		if bar != nil {
			if err := bar.Add(1); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
		}
	}

	slog.Info("CSV import complete", "imported", result.Imported, "total", result.Total)
	return result, nil
}

func (i *Importer) newProgressBar(total int) *progressbar.ProgressBar {
	if i.progress == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(i.progress),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(i.progress); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func validateHeader(header []string) error {
	if len(header) != len(expectedHeader) {
		return fmt.Errorf("expected %d columns, got %d", len(expectedHeader), len(header))
	}
	for i, want := range expectedHeader {
		if strings.ToLower(strings.TrimSpace(header[i])) != want {
			return fmt.Errorf("column %d: expected %q, got %q", i+1, want, header[i])
		}
	}
	return nil
}

func parseRow(record []string) (engine.CreateParams, error) {
	var params engine.CreateParams
	if len(record) != len(expectedHeader) {
		return params, fmt.Errorf("expected %d columns, got %d", len(expectedHeader), len(record))
	}

	date, err := parseDate(record[0])
	if err != nil {
		return params, err
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return params, fmt.Errorf("invalid amount %q: %w", record[2], err)
	}

	params = engine.CreateParams{
		Date:        date,
		Type:        model.TransactionType(strings.ToLower(strings.TrimSpace(record[1]))),
		Amount:      amount,
		AccountID:   strings.TrimSpace(record[3]),
		CategoryID:  strings.TrimSpace(record[4]),
		Description: strings.TrimSpace(record[5]),
		Note:        strings.TrimSpace(record[6]),
		Tags:        parseTags(record[7]),
	}
	return params, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func parseTags(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
