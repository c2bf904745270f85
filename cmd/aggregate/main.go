// Command aggregate loads a trades CSV into the dark-pool aggregate store.
//
//	aggregate -config config/config.yaml -in trades.csv
//
// Each date found in the file is merged into the configured store; tickers
// already stored for that date are kept unless the file recomputes them.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"DarkPull/internal/di"
	internalrepo "DarkPull/internal/repository"
	"DarkPull/internal/usecase"
	"DarkPull/pkg/config"
	applogger "DarkPull/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	in := flag.String("in", "-", "trades CSV, - for stdin")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := run(cfg, *in); err != nil {
		log.Fatalf("aggregate: %v", err)
	}
}

func run(cfg *config.Config, path string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := di.ProvideLogger(cfg)
	if err != nil {
		return err
	}
	if cfg.Store.Backend == "memory" {
		l.Warn("memory store selected, results are discarded on exit")
	}
	store, cleanup, err := di.ProvideAggregateStore(cfg, l)
	if err != nil {
		return err
	}
	defer cleanup()

	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	src, err := internalrepo.NewCSVTradeSource(r)
	if err != nil {
		return err
	}

	ingestor := usecase.NewIngestor(nil, store, nil, di.ProvideMetrics(), l, di.AggregatorOptions(cfg)...)
	report, err := ingestor.IngestSource(ctx, src)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", path, err)
	}
	l.Info("aggregate complete",
		applogger.Strings("dates", report.Dates),
		applogger.Int("tickers", report.Tickers),
		applogger.Int64("trades", report.Trades),
		applogger.Int64("dark_pool_trades", report.DarkPool),
		applogger.Int("skipped_rows", src.Skipped()),
	)
	return nil
}
