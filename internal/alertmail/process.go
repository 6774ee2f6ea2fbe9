package alertmail

import (
	"context"
	"log/slog"
	"os"

	"pricescout/internal"
	"pricescout/internal/connectors"
	"pricescout/internal/storage"
)

// ProductAnalyzer runs the full pricing pipeline for one listing.
// Satisfied by *analyzer.Analyzer.
type ProductAnalyzer interface {
	Analyze(ctx context.Context, product internal.ProductInfo) internal.Analysis
}

// Processor turns stored alert emails into analyses: each listing found
// in a pending message goes through the full pricing pipeline.
type Processor struct {
	store    *storage.Store
	analyzer ProductAnalyzer
	logger   *slog.Logger
}

func NewProcessor(store *storage.Store, analyzer ProductAnalyzer, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: store, analyzer: analyzer, logger: logger}
}

type ProcessResult struct {
	EmailID  int
	Listings int
	Skipped  bool
}

// ProcessPending walks pending emails oldest first. A broken message
// stops the batch so the failure is visible instead of silently skipped.
func (p *Processor) ProcessPending(ctx context.Context, limit int, provider string) (int, int, error) {
	pending, err := p.store.ListEmailsByStatus(connectors.StatusPending, limit)
	if err != nil {
		return 0, 0, err
	}

	emails := 0
	listings := 0
	for _, email := range pending {
		if provider != "" && email.Provider != provider {
			continue
		}
		result, err := p.ProcessEmail(ctx, email)
		if err != nil {
			return emails, listings, err
		}
		emails++
		listings += result.Listings
	}
	return emails, listings, nil
}

func (p *Processor) ProcessEmail(ctx context.Context, email internal.EmailRow) (ProcessResult, error) {
	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}

	found, subject, _, err := ExtractListings(raw)
	if err != nil {
		return ProcessResult{}, err
	}
	if len(found) == 0 {
		if err := p.store.UpdateEmailStatus(email.ID, connectors.StatusSkipped); err != nil {
			return ProcessResult{}, err
		}
		p.logger.Debug("email skipped", "id", email.ID, "subject", subject)
		return ProcessResult{EmailID: email.ID, Skipped: true}, nil
	}

	for _, listing := range found {
		analysis := p.analyzer.Analyze(ctx, internal.ProductInfo{Title: listing.Title, Price: listing.Price})
		p.logger.Info("alert listing analyzed",
			"platform", listing.Platform,
			"title", listing.Title,
			"price", listing.Price,
			"dealScore", analysis.Profitability.DealScore,
			"rating", analysis.Profitability.DealRating)
	}

	if err := p.store.UpdateEmailStatus(email.ID, connectors.StatusProcessed); err != nil {
		return ProcessResult{}, err
	}
	return ProcessResult{EmailID: email.ID, Listings: len(found)}, nil
}
