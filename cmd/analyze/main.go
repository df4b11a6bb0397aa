// Command analyze runs the analytics pipeline over a CSV file and prints the
// summary, and optionally one customer's recommendations, as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"superstore-analytics/internal/config"
	"superstore-analytics/internal/models"
	"superstore-analytics/internal/observability"
	"superstore-analytics/internal/services"
)

type report struct {
	Dataset         models.DatasetInfo             `json:"dataset"`
	Columns         models.ColumnReport            `json:"columns"`
	Summary         models.AnalyticsSummary        `json:"summary"`
	Customer        *models.CustomerProfile        `json:"customer,omitempty"`
	Recommendations []models.ProductRecommendation `json:"recommendations,omitempty"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "analyze:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)

	file := fs.String("file", "", "CSV file to analyze (required)")
	customer := fs.String("customer", "", "customer id to recommend products for")
	pretty := fs.Bool("pretty", false, "indent JSON output")
	lenient := fs.Bool("lenient", false, "accept files with missing columns")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		fs.Usage()
		return errors.New("-file is required")
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read .env: %w", err)
	}

	logCfg := config.LoggerConfig{
		Level:  envOr("LOG_LEVEL", "warn"),
		Format: envOr("LOG_FORMAT", "text"),
		Output: "stderr",
	}
	logger := observability.NewLogger(logCfg)

	analytics := services.NewAnalytics(
		services.WithLogger(logger),
		services.WithStrictColumns(!*lenient),
	)

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	ingested, err := analytics.Ingest(ctx, f, filepath.Base(*file))
	if err != nil {
		if missing := ingested.Columns.Missing; len(missing) > 0 {
			return fmt.Errorf("%w: %v", err, missing)
		}
		return err
	}

	out := report{Dataset: ingested.Dataset, Columns: ingested.Columns, Summary: ingested.Summary}

	if *customer != "" {
		profile, ok, err := analytics.CustomerProfile(*customer)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("customer %q not found", *customer)
		}
		recs, err := analytics.Recommendations(*customer)
		if err != nil {
			return err
		}
		out.Customer = &profile
		out.Recommendations = recs
	}

	enc := json.NewEncoder(stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
