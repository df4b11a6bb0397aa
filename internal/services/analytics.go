package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"superstore-analytics/internal/models"
	"superstore-analytics/internal/normalize"
	"superstore-analytics/internal/observability"
)

const (
	defaultWorkers   = 4
	defaultBatchSize = 5000
)

var (
	// ErrNoDataset is returned by session readers before anything was loaded.
	ErrNoDataset = errors.New("no dataset loaded")
	// ErrNoValidRecords means every row failed admission. The previous
	// dataset, if any, stays in place.
	ErrNoValidRecords = errors.New("no valid records found")
	// ErrMissingColumns is returned in strict mode when the header lacks
	// required columns. The accompanying ColumnReport lists them.
	ErrMissingColumns = errors.New("missing required columns")
)

// Analytics is the session state: the current record set, its summary and
// dataset metadata. A new upload replaces all three at once; readers always
// see a consistent snapshot.
type Analytics struct {
	mu      sync.RWMutex
	records []models.TransactionRecord
	summary models.AnalyticsSummary
	dataset *models.DatasetInfo

	logger        *slog.Logger
	workers       int
	batchSize     int
	strictColumns bool
}

type Option func(*Analytics)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithIngest sets the normalization fan-out used for uploads.
func WithIngest(workers, batchSize int) Option {
	return func(a *Analytics) {
		if workers > 0 {
			a.workers = workers
		}
		if batchSize > 0 {
			a.batchSize = batchSize
		}
	}
}

// WithStrictColumns makes ingestion reject files whose header misses any
// required column. When off, missing columns are only logged.
func WithStrictColumns(strict bool) Option {
	return func(a *Analytics) {
		a.strictColumns = strict
	}
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		logger:        slog.Default(),
		workers:       defaultWorkers,
		batchSize:     defaultBatchSize,
		strictColumns: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetData replaces the session with already normalized records.
func (a *Analytics) SetData(records []models.TransactionRecord) {
	a.replace(records, models.DatasetInfo{
		ID:          uuid.NewString(),
		LoadedAt:    time.Now(),
		RowsRead:    len(records),
		RecordsKept: len(records),
	})
}

func (a *Analytics) replace(records []models.TransactionRecord, info models.DatasetInfo) models.AnalyticsSummary {
	summary := Aggregate(records)

	a.mu.Lock()
	a.records = records
	a.summary = summary
	a.dataset = &info
	a.mu.Unlock()

	return summary
}

// LoadFromCSV ingests a CSV file from disk.
func (a *Analytics) LoadFromCSV(ctx context.Context, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	if _, err := a.Ingest(ctx, file, filepath.Base(filename)); err != nil {
		return fmt.Errorf("process csv: %w", err)
	}
	return nil
}

// IngestResult describes the dataset an Ingest call installed. Every field
// comes from the same record set, even if another upload replaces the
// session right after.
type IngestResult struct {
	Dataset   models.DatasetInfo
	Columns   models.ColumnReport
	Summary   models.AnalyticsSummary
	Customers []models.CustomerRef
}

// Ingest parses, validates, normalizes and aggregates one CSV upload, then
// swaps it in as the current session. On any error the previous session is
// left untouched; Columns is still set once the header has been read.
func (a *Analytics) Ingest(ctx context.Context, r io.Reader, filename string) (IngestResult, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "ingest")
	span.SetTag("filename", filename)
	logger := observability.FromContext(ctx, a.logger)
	defer span.End(logger)

	fail := func(err error) error {
		span.SetError(err)
		return err
	}

	var (
		headers []string
		rows    []models.RawRow
	)
	err := observability.Stage(ctx, logger, "ingest.parse", func(ctx context.Context, _ *observability.Span) (err error) {
		headers, rows, err = ReadRows(ctx, r)
		return err
	})
	if err != nil {
		return IngestResult{}, fail(err)
	}

	report := normalize.CheckColumns(headers)
	if len(rows) == 0 {
		report, err = normalize.ValidateDataset(rows)
		return IngestResult{Columns: report}, fail(err)
	}
	if !report.Valid {
		logger.Warn("csv header is missing required columns",
			"filename", filename,
			"missing", report.Missing,
		)
		if a.strictColumns {
			return IngestResult{Columns: report}, fail(ErrMissingColumns)
		}
	}

	var records []models.TransactionRecord
	err = observability.Stage(ctx, logger, "ingest.normalize", func(ctx context.Context, span *observability.Span) (err error) {
		span.SetTag("rows", strconv.Itoa(len(rows)))
		records, err = normalizeBatches(ctx, rows, a.workers, a.batchSize)
		return err
	})
	if err != nil {
		return IngestResult{Columns: report}, fail(err)
	}
	if len(records) == 0 {
		return IngestResult{Columns: report}, fail(ErrNoValidRecords)
	}

	info := models.DatasetInfo{
		ID:          uuid.NewString(),
		Filename:    filename,
		LoadedAt:    time.Now(),
		RowsRead:    len(rows),
		RecordsKept: len(records),
		RowsDropped: len(rows) - len(records),
	}

	_, aggSpan := observability.StartSpan(ctx, "ingest.aggregate")
	summary := a.replace(records, info)
	aggSpan.End(logger)

	if summary.UndatedRecords > 0 {
		logger.Debug("records with unparseable order dates excluded from monthly trends",
			"count", summary.UndatedRecords,
			"sample", firstUndated(records),
		)
	}

	duration := time.Since(start)
	logger.Info("csv processing complete",
		observability.Dataset(info),
		"dropped", info.RowsDropped,
		"undated", summary.UndatedRecords,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(info.RowsRead)/duration.Seconds()),
	)

	return IngestResult{
		Dataset:   info,
		Columns:   report,
		Summary:   summary,
		Customers: Customers(records),
	}, nil
}

// ValidateCSV runs only the structural and column checks on CSV input.
func (a *Analytics) ValidateCSV(ctx context.Context, r io.Reader) (models.ColumnReport, error) {
	_, rows, err := ReadRows(ctx, r)
	if err != nil && !errors.Is(err, normalize.ErrNoRows) {
		return models.ColumnReport{}, err
	}
	return normalize.ValidateDataset(rows)
}

func firstUndated(records []models.TransactionRecord) string {
	for i := range records {
		if _, ok := normalize.ParseDate(records[i].OrderDate); !ok {
			return records[i].OrderDate
		}
	}
	return ""
}

// Summary returns the current analytics snapshot.
func (a *Analytics) Summary() (models.AnalyticsSummary, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.dataset == nil {
		return models.AnalyticsSummary{}, ErrNoDataset
	}
	return a.summary, nil
}

func (a *Analytics) Dataset() (models.DatasetInfo, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.dataset == nil {
		return models.DatasetInfo{}, ErrNoDataset
	}
	return *a.dataset, nil
}

func (a *Analytics) HasData() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset != nil
}

// Fast query methods over the precomputed summary. They return empty slices,
// not nil, when nothing is loaded.
func (a *Analytics) TopProducts(limit int) []models.ProductSales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return limitSlice(a.summary.TopProducts, limit)
}

func (a *Analytics) TopCustomers(limit int) []models.CustomerSales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return limitSlice(a.summary.TopCustomers, limit)
}

func (a *Analytics) MonthlyTrends() []models.MonthlyTrend {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return limitSlice(a.summary.MonthlyTrends, 0)
}

func (a *Analytics) SalesByRegion() []models.RegionSales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return limitSlice(a.summary.SalesByRegion, 0)
}

func limitSlice[T any](s []T, limit int) []T {
	if s == nil {
		return []T{}
	}
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}

// Customers lists the customers of the current dataset, sorted by name.
func (a *Analytics) Customers() ([]models.CustomerRef, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.dataset == nil {
		return nil, ErrNoDataset
	}
	return Customers(a.records), nil
}

// CustomerProfile reports ok=false for ids absent from the dataset.
func (a *Analytics) CustomerProfile(customerID string) (models.CustomerProfile, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.dataset == nil {
		return models.CustomerProfile{}, false, ErrNoDataset
	}
	profile, ok := Profile(a.records, customerID)
	return profile, ok, nil
}

// Recommendations are computed on every call and never cached.
func (a *Analytics) Recommendations(customerID string) ([]models.ProductRecommendation, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.dataset == nil {
		return nil, ErrNoDataset
	}
	return Recommend(a.records, customerID), nil
}

// Reset drops the current session.
func (a *Analytics) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = nil
	a.summary = models.AnalyticsSummary{}
	a.dataset = nil
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"loaded":         a.dataset != nil,
		"records":        len(a.records),
		"regions":        len(a.summary.SalesByRegion),
		"categories":     len(a.summary.SalesByCategory),
		"months":         len(a.summary.MonthlyTrends),
		"customers":      a.summary.UniqueCustomers,
		"products":       a.summary.UniqueProducts,
		"undated":        a.summary.UndatedRecords,
		"strict_columns": a.strictColumns,
	}
	if a.dataset != nil {
		stats["dataset_id"] = a.dataset.ID
		stats["filename"] = a.dataset.Filename
		stats["last_processed"] = a.dataset.LoadedAt
	}
	return stats
}
