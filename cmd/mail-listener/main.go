package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pricescout/internal/aggregate"
	"pricescout/internal/alertmail"
	"pricescout/internal/analyzer"
	"pricescout/internal/config"
	"pricescout/internal/listener"
	"pricescout/internal/sources"
	"pricescout/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	store, err := storage.Open(cfg.DBPath, cfg.HistoryLimit)
	must(err)
	defer store.Close()

	metrics := sources.NewMetrics()
	clients := []sources.Client{
		sources.NewVinted(cfg, metrics),
		sources.NewLeBonCoin(cfg, metrics),
		sources.NewEbay(cfg, metrics),
	}
	aggregator := aggregate.New(cfg, clients, logger)
	a, err := analyzer.New(cfg, aggregator, store, logger)
	must(err)

	processor := alertmail.NewProcessor(store, a, logger)
	svc := listener.NewService(store, cfg, processor, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
