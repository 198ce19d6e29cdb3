package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"marketcache/internal/config"
	"marketcache/internal/coordinator"
	"marketcache/internal/dataset"
	"marketcache/internal/extract"
	"marketcache/internal/loader"
	"marketcache/internal/scrub"
	"marketcache/internal/source"
	"marketcache/internal/status"
	"marketcache/internal/store"
	"marketcache/internal/table"
)

func main() {
	load := flag.Bool("load", false, "fetch datasets from the source API and cache them before extracting")
	fromS3 := flag.Bool("from-s3", false, "extract from the S3 archive instead of redis")
	date := flag.String("date", time.Now().Format("2006-01-02"), "snapshot date the cache keys are derived from")
	scrubMode := flag.String("scrub", scrub.ModeSortByDate, "scrub mode applied to extracted tables")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	log := logger.WithField("app", "marketcache")

	snapshot, err := time.Parse("2006-01-02", *date)
	if err != nil {
		log.WithError(err).Fatal("invalid -date")
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Connect to the dataset cache
	rc, err := store.NewRedis(&store.RedisConfig{
		Addr:         cfg.RedisAddr,
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  cfg.RedisDialTimeout,
		ReadTimeout:  cfg.RedisReadTimeout,
		WriteTimeout: cfg.RedisWriteTimeout,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer rc.Close()

	if len(cfg.Tickers) == 0 {
		log.Fatal("no tickers configured")
	}

	// Optionally seed the cache from the source API
	if *load {
		src := source.NewClient(cfg.SourceAPIKey, cfg.SourceBaseURL)
		ld := loader.New(src, rc, log)
		for _, ticker := range cfg.Tickers {
			if _, err := ld.Load(ctx, ticker, snapshot); err != nil {
				log.WithError(err).WithField("ticker", ticker).Fatal("failed to load datasets")
			}
		}
	}

	// Extraction reads from redis unless the S3 archive is requested. Alias
	// resolution sets redis and s3 keys to the same value, so the archive is
	// addressed by the same keys the loader writes.
	var fetchStore extract.Store = rc
	if *fromS3 {
		s3c, err := store.NewS3(&store.S3Config{Bucket: cfg.S3Bucket, Region: cfg.S3Region}, log)
		if err != nil {
			log.WithError(err).Fatal("failed to build s3 reader")
		}
		fetchStore = s3c
	}

	extractor := extract.New(fetchStore, scrub.Dataset, log)

	// One task per dataset per ticker; calls and puts extract independently
	var tasks []coordinator.Task
	for _, ticker := range cfg.Tickers {
		keys := loader.DatasetKeys(ticker, snapshot)
		tasks = append(tasks, extractionTasks(extractor, ticker, keys, *scrubMode)...)
	}

	fetchCtx, fetchCancel := context.WithTimeout(ctx, 30*time.Second)
	defer fetchCancel()

	fmt.Println("Extracting cached market datasets...")
	fmt.Println("====================================")
	outcomes, err := coordinator.New(tasks, log).Run(fetchCtx)
	if err != nil {
		log.WithError(err).Fatal("coordinator failed")
	}

	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Printf("%s %s: FAULT - %v\n", o.Ticker, o.Dataset, o.Err)
		} else if o.Table == nil {
			fmt.Printf("%s %s: %s\n", o.Ticker, o.Dataset, o.Status)
		} else {
			fmt.Printf("%s %s: %s rows=%d\n", o.Ticker, o.Dataset, o.Status, o.Table.Len())
		}
	}
	fmt.Println("====================================")
	fmt.Println("All extractions completed!")
}

// extractionTasks builds the four per-ticker extraction tasks. Requests use
// the legacy alias fields, exercising the same normalization path older
// callers rely on.
func extractionTasks(e *extract.Extractor, ticker string, keys loader.Keys, scrubMode string) []coordinator.Task {
	return []coordinator.Task{
		{
			Ticker:  ticker,
			Dataset: dataset.Pricing,
			Extract: func(ctx context.Context) (status.Status, *table.Table, error) {
				return e.ExtractPricing(ctx, extract.WorkRequest{Ticker: ticker, Pricing: keys.Pricing}, scrubMode)
			},
		},
		{
			Ticker:  ticker,
			Dataset: dataset.News,
			Extract: func(ctx context.Context) (status.Status, *table.Table, error) {
				return e.ExtractNews(ctx, extract.WorkRequest{Ticker: ticker, News: keys.News}, scrubMode)
			},
		},
		{
			Ticker:  ticker,
			Dataset: dataset.OptionCalls,
			Extract: func(ctx context.Context) (status.Status, *table.Table, error) {
				return e.ExtractOptionCalls(ctx, extract.WorkRequest{Ticker: ticker, Options: keys.Options}, scrubMode)
			},
		},
		{
			Ticker:  ticker,
			Dataset: dataset.OptionPuts,
			Extract: func(ctx context.Context) (status.Status, *table.Table, error) {
				return e.ExtractOptionPuts(ctx, extract.WorkRequest{Ticker: ticker, Options: keys.Options}, scrubMode)
			},
		},
	}
}
