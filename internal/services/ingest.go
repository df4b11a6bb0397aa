package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"superstore-analytics/internal/models"
	"superstore-analytics/internal/normalize"
)

// ReadRows parses header-keyed rows from CSV input. Blank lines are skipped
// and short rows leave trailing columns unset.
func ReadRows(ctx context.Context, r io.Reader) ([]string, []models.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, normalize.ErrNoRows
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []models.RawRow
	for line := 2; ; line++ {
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}

		row := make(models.RawRow, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(record) {
				continue
			}
			row[h] = record[i]
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// normalizeBatches normalizes rows on up to workers goroutines. Each batch
// writes to its own slot so the output keeps input order.
func normalizeBatches(ctx context.Context, rows []models.RawRow, workers, batchSize int) ([]models.TransactionRecord, error) {
	if batchSize <= 0 {
		batchSize = len(rows)
	}
	if batchSize == 0 {
		return []models.TransactionRecord{}, nil
	}

	batches := (len(rows) + batchSize - 1) / batchSize
	results := make([][]models.TransactionRecord, batches)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i := 0; i < batches; i++ {
		start := i * batchSize
		end := min(start+batchSize, len(rows))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = normalize.NormalizeRows(rows[start:end])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, batch := range results {
		total += len(batch)
	}
	records := make([]models.TransactionRecord, 0, total)
	for _, batch := range results {
		records = append(records, batch...)
	}
	return records, nil
}
