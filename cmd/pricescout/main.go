package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pricescout/internal"
	"pricescout/internal/aggregate"
	"pricescout/internal/alertmail"
	"pricescout/internal/analyzer"
	"pricescout/internal/config"
	"pricescout/internal/connectors"
	gmailconnector "pricescout/internal/connectors/gmail"
	imapconnector "pricescout/internal/connectors/imap"
	"pricescout/internal/export"
	"pricescout/internal/listener"
	"pricescout/internal/sources"
	"pricescout/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	store, err := storage.Open(cfg.DBPath, cfg.HistoryLimit)
	must(err)
	defer store.Close()

	cmd := os.Args[1]
	switch cmd {
	case "analyze":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		title := fs.String("title", "", "product listing title")
		price := fs.Float64("price", 0, "listed price in EUR")
		asJSON := fs.Bool("json", false, "print the full analysis as JSON")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*title) == "" {
			must(fmt.Errorf("--title is required"))
		}

		a, err := buildAnalyzer(cfg, store, logger)
		must(err)
		analysis := a.Analyze(context.Background(), internal.ProductInfo{Title: *title, Price: *price})

		if *asJSON {
			blob, err := json.MarshalIndent(analysis, "", "  ")
			must(err)
			fmt.Println(string(blob))
			return
		}
		printAnalysis(analysis)
	case "history:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max rows")
		_ = fs.Parse(os.Args[2:])
		rows, err := store.ListAnalyses(*limit)
		must(err)
		for _, row := range rows {
			fmt.Printf("#%d  %s  %.2f€  score=%d (%s)  %s\n",
				row.ID, row.Title, row.Price, row.DealScore, row.DealRating, row.CreatedAt)
		}
		fmt.Printf("%d analyses\n", len(rows))
	case "history:stats":
		stats, err := store.Stats()
		must(err)
		fmt.Printf("analyses=%d avgDealScore=%.1f\n", stats.TotalAnalyses, stats.AvgDealScore)
		if stats.TotalAnalyses > 0 {
			fmt.Printf("best deal: score=%d %q\n", stats.BestDealScore, stats.BestDealTitle)
			fmt.Printf("last analyzed: %s\n", stats.LastAnalyzedAt)
		}
	case "history:clear":
		must(store.ClearAnalyses())
		fmt.Println("history cleared")
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		outPath := strings.TrimSpace(*out)
		if outPath == "" {
			outPath = filepath.Join(cfg.OutputDir, fmt.Sprintf("history_%s.xlsx", time.Now().UTC().Format("20060102_150405")))
		}
		rows, err := store.ListAnalyses(0)
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("history is empty, nothing to export"))
		}
		written, err := export.HistoryToXLSX(rows, outPath)
		must(err)
		fmt.Printf("exported %d rows to %s\n", len(rows), written)
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.MailListenerLabel, "mailbox/label")
		max := fs.Int("max", cfg.MailListenerFetchMax, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(store, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d skipped=%d\n",
			*provider, result.Fetched, result.Stored, result.Skipped)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "", "restrict to one provider")
		batch := fs.Int("batch", cfg.MailListenerBatch, "batch size")
		_ = fs.Parse(os.Args[2:])
		a, err := buildAnalyzer(cfg, store, logger)
		must(err)
		processor := alertmail.NewProcessor(store, a, logger)
		emails, listings, err := processor.ProcessPending(context.Background(), *batch, *provider)
		must(err)
		fmt.Printf("processed emails=%d listings=%d\n", emails, listings)
	case "mail:listen":
		a, err := buildAnalyzer(cfg, store, logger)
		must(err)
		processor := alertmail.NewProcessor(store, a, logger)
		svc := listener.NewService(store, cfg, processor, logger)
		must(svc.Run(context.Background()))
	default:
		usage()
		os.Exit(1)
	}
}

func buildAnalyzer(cfg config.Config, store *storage.Store, logger *slog.Logger) (*analyzer.Analyzer, error) {
	metrics := sources.NewMetrics()
	clients := []sources.Client{
		sources.NewVinted(cfg, metrics),
		sources.NewLeBonCoin(cfg, metrics),
		sources.NewEbay(cfg, metrics),
	}
	aggregator := aggregate.New(cfg, clients, logger)
	return analyzer.New(cfg, aggregator, store, logger)
}

func printAnalysis(analysis internal.Analysis) {
	summary := analysis.Summary
	fmt.Printf("query: %s\n", summary.SearchQuery)
	fmt.Printf("listed price: %.2f€\n", summary.CurrentPrice)
	if analysis.Prices.OccasionPrice.Available {
		fmt.Printf("market avg: %.0f€ (min %.0f€, max %.0f€, %d listings from %s)\n",
			summary.AverageUsedPrice, summary.PriceRange.Min, summary.PriceRange.Max,
			summary.DataPoints, strings.Join(summary.SourcesUsed, ", "))
		fmt.Printf("profit: %.0f€ (%d%%)\n", summary.Profit, summary.Discount)
	} else {
		fmt.Println("market avg: no data")
	}
	fmt.Printf("deal score: %d/100 (%s, confidence %s)\n", summary.DealScore, summary.RatingLabel, summary.Confidence)
	fmt.Printf("recommendation: %s\n", summary.Recommendation)
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: pricescout <command>")
	fmt.Println("commands:")
	fmt.Println("  analyze --title=\"...\" --price=450 [--json]")
	fmt.Println("  history:list [--limit=20]")
	fmt.Println("  history:stats")
	fmt.Println("  history:clear")
	fmt.Println("  export:xlsx [--out=./out/history.xlsx]")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=20")
	fmt.Println("  mail:process [--provider=gmail|imap] [--batch=20]")
	fmt.Println("  mail:listen")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
