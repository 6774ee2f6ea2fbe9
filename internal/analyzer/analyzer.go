package analyzer

import (
	"context"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"pricescout/internal"
	"pricescout/internal/config"
	"pricescout/internal/keywords"
	"pricescout/internal/profit"
)

// PriceAggregator is the market-search side of an analysis. Satisfied by
// *aggregate.Aggregator; narrowed to an interface so tests can stub it.
type PriceAggregator interface {
	Aggregate(ctx context.Context, title string) internal.AggregatedPriceData
}

// HistoryStore persists finished analyses. Saving is best effort.
type HistoryStore interface {
	SaveAnalysis(analysis internal.Analysis) error
}

// Analyzer runs the full pipeline for one product: market search,
// profitability evaluation, summary, history save. Search results are
// cached per search query so re-analyzing the same product is free.
type Analyzer struct {
	aggregator PriceAggregator
	store      HistoryStore
	cache      *lru.Cache[string, internal.AggregatedPriceData]
	logger     *slog.Logger
}

func New(cfg config.Config, aggregator PriceAggregator, store HistoryStore, logger *slog.Logger) (*Analyzer, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New[string, internal.AggregatedPriceData](size)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		aggregator: aggregator,
		store:      store,
		cache:      cache,
		logger:     logger,
	}, nil
}

// Analyze never fails: invalid input or a history write error degrades
// the result instead of aborting it.
func (a *Analyzer) Analyze(ctx context.Context, product internal.ProductInfo) internal.Analysis {
	if product.Title == "" && product.Price == 0 {
		prices := internal.AggregatedPriceData{
			Descriptor:    internal.QueryDescriptor{ProductType: internal.ProductOther, Numbers: []string{}, Keywords: []string{}},
			OccasionPrice: internal.OccasionPrice{Sources: []internal.SourceStats{}},
			RawResults:    map[string]internal.SourceBreakdown{},
		}
		profitability := profit.Evaluate(product.Price, prices)
		return internal.Analysis{
			Product:       product,
			Prices:        prices,
			Profitability: profitability,
			Summary:       profit.BuildSummary(product, prices, profitability),
			Timestamp:     time.Now().UnixMilli(),
		}
	}

	prices := a.fetchPrices(ctx, product.Title)
	profitability := profit.Evaluate(product.Price, prices)

	analysis := internal.Analysis{
		Product:       product,
		Prices:        prices,
		Profitability: profitability,
		Summary:       profit.BuildSummary(product, prices, profitability),
		Timestamp:     time.Now().UnixMilli(),
	}

	if a.store != nil {
		if err := a.store.SaveAnalysis(analysis); err != nil {
			a.logger.Warn("history save failed", "error", err)
		}
	}
	return analysis
}

func (a *Analyzer) fetchPrices(ctx context.Context, title string) internal.AggregatedPriceData {
	key := keywords.Extract(title).SearchQuery
	if key != "" {
		if cached, ok := a.cache.Get(key); ok {
			a.logger.Debug("serving cached market data", "query", key)
			return cached
		}
	}

	prices := a.aggregator.Aggregate(ctx, title)
	// Only successful fan-outs are worth remembering; a transient outage
	// must not pin an empty result.
	if key != "" && prices.OccasionPrice.Available {
		a.cache.Add(key, prices)
	}
	return prices
}
