package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"pricefeed/internal/config"
	"pricefeed/internal/engine"
	"pricefeed/internal/metrics"
	"pricefeed/internal/metrics/datadog"
	"pricefeed/internal/normalizer"
	"pricefeed/internal/reader"
	"pricefeed/internal/reader/csv"
	"pricefeed/internal/reader/htmltable"
	"pricefeed/internal/reader/xlsx"
	"pricefeed/internal/storage"

	// register all storage backends with the factory.
	_ "pricefeed/internal/storage/all"
)

// main is the entry point for the ingest binary. It loads the supplier
// config, optionally initializes a metrics backend, processes one price-list
// file and optionally persists the accepted offers.
func main() {
	var (
		cfgPath           string
		catalogPath       string
		inputPath         string
		format            string
		storageKind       string
		storageDSN        string
		metricsBackendFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/suppliers/sample.json", "supplier config JSON path")
	flag.StringVar(&catalogPath, "catalog", "", "market-wide property catalog JSON path (optional)")
	flag.StringVar(&inputPath, "input", "", "price-list file to ingest")
	flag.StringVar(&format, "format", "", "input format (csv, xlsx, html); default from file extension")
	flag.StringVar(&storageKind, "storage-kind", "", "storage backend kind (postgres, sqlite, mssql); empty disables persistence")
	flag.StringVar(&storageDSN, "storage-dsn", "", "storage DSN (overrides env STORAGE_DSN)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (datadog, none)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	sup, err := config.LoadSupplierFile(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if catalogPath != "" {
		catalog, err := config.LoadCatalogFile(catalogPath)
		if err != nil {
			fatalf("load catalog: %v", err)
		}
		sup.Properties = config.MergeProperties(catalog, sup.Properties)
	}

	issues := config.ValidateSupplier(sup, engine.IsKnownOp)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	if inputPath == "" {
		fatalf("missing -input")
	}

	// Decide metrics backend: flag → env → default.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "datadog":
		jobName := sup.Name
		if jobName == "" {
			jobName = "pricefeed"
		}
		extraTags := datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS"))

		b, err := datadog.NewBackend(context.Background(), datadog.Options{
			JobName: jobName,
			Tags:    extraTags,
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
		} else {
			log.Printf("metrics: backend=%v job_name=%v tags=%v", backendName, jobName, extraTags)
			metrics.SetBackend(b)
			// Close stops the periodic flush loop and does a final flush.
			defer func() {
				if err := b.Close(); err != nil {
					log.Printf("metrics: datadog close/flush error: %v", err)
				}
			}()
		}

	case "", "none":
		if *verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	rd, err := openReader(inputPath, format, sup.Settings.Reader)
	if err != nil {
		fatalf("open input: %v", err)
	}
	defer rd.Close()

	ctx := context.Background()
	start := time.Now()

	runner := &normalizer.Runner{Normalizer: normalizer.New(sup)}
	if *verbose {
		runner.Logger = log.Default()
	}
	res := runner.Run(ctx, rd)

	for _, e := range res.Errors {
		fmt.Fprintln(os.Stderr, e)
	}
	log.Printf("supplier=%s rows=%d skipped=%d offers=%d errors=%d duration=%s",
		sup.Name, res.Stats.RowsProcessed, res.Stats.RowsSkipped,
		res.Stats.OffersCreated, res.Stats.ErrorCount,
		time.Since(start).Truncate(time.Millisecond))

	if storageKind != "" {
		dsn := storageDSN
		if dsn == "" {
			dsn = os.Getenv("STORAGE_DSN")
		}
		repo, err := storage.New(ctx, storage.Config{Kind: storageKind, DSN: dsn})
		if err != nil {
			fatalf("storage: %v", err)
		}
		defer repo.Close()

		if err := repo.EnsureSchema(ctx); err != nil {
			fatalf("storage: %v", err)
		}
		n, err := repo.SaveAggregates(ctx, sup.Name, res.Aggregates)
		if err != nil {
			fatalf("storage: %v", err)
		}
		log.Printf("storage: kind=%s saved=%d of %d", storageKind, n, len(res.Aggregates))
	}

	if res.Stats.ErrorCount > 0 {
		os.Exit(1)
	}
}

// openReader selects a reader from the explicit format flag or, failing that,
// the file extension.
func openReader(path, format string, opt config.Options) (reader.Reader, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv", ".txt":
			format = "csv"
		case ".xlsx", ".xlsm":
			format = "xlsx"
		case ".html", ".htm":
			format = "html"
		default:
			return nil, fmt.Errorf("cannot infer format from %q; pass -format", path)
		}
	}

	switch format {
	case "csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return csv.New(f, opt), nil
	case "xlsx":
		return xlsx.Open(path, opt)
	case "html":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return htmltable.Parse(f, opt)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
