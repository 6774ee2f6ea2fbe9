package aggregate

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"

	"pricescout/internal"
	"pricescout/internal/config"
	"pricescout/internal/keywords"
	"pricescout/internal/relevance"
	"pricescout/internal/sources"
)

// Aggregator fans a search out to every registered source, filters each
// source's listings for relevance, and pools the survivors into one
// market price estimate.
type Aggregator struct {
	cfg     config.Config
	clients []sources.Client
	logger  *slog.Logger
}

func New(cfg config.Config, clients []sources.Client, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{cfg: cfg, clients: clients, logger: logger}
}

// Aggregate never returns an error: a source failure is recorded in its
// breakdown entry and the pool is built from whatever succeeded. All
// sources are awaited; there is no first-wins short-circuit.
func (a *Aggregator) Aggregate(ctx context.Context, title string) internal.AggregatedPriceData {
	descriptor := keywords.Extract(title)
	query := descriptor.SearchQuery

	raw := make([]internal.SourceResult, len(a.clients))
	var wg sync.WaitGroup
	for i, client := range a.clients {
		wg.Add(1)
		go func(i int, client sources.Client) {
			defer wg.Done()
			raw[i] = client.Search(ctx, query)
		}(i, client)
	}
	wg.Wait()

	data := internal.AggregatedPriceData{
		Query:      query,
		Descriptor: descriptor,
		RawResults: make(map[string]internal.SourceBreakdown, len(a.clients)),
	}

	pooled := []float64{}
	sourcesUsed := []internal.SourceStats{}
	for i, client := range a.clients {
		result := raw[i]
		breakdown := internal.SourceBreakdown{
			Source:        client.Name(),
			Success:       result.Success,
			Error:         result.Error,
			Prices:        []internal.ScoredListing{},
			OriginalCount: len(result.Prices),
		}

		if result.Success {
			scored := relevance.Filter(result.Prices, descriptor, a.cfg.MinRelevanceScore)
			breakdown.Prices = scored
			breakdown.FilteredCount = len(scored)
			if len(scored) > 0 {
				for _, l := range scored {
					pooled = append(pooled, l.Price)
				}
				sourcesUsed = append(sourcesUsed, sourceStats(client.Name(), scored))
			}
			a.logger.Debug("source searched",
				"source", client.Name(),
				"found", breakdown.OriginalCount,
				"kept", breakdown.FilteredCount)
		} else {
			a.logger.Warn("source failed", "source", client.Name(), "error", result.Error)
		}

		data.RawResults[strings.ToLower(client.Name())] = breakdown
	}

	data.OccasionPrice = poolPrices(pooled, sourcesUsed)
	return data
}

// sourceStats recomputes per-source statistics over the filtered subset,
// not over everything the source returned.
func sourceStats(name string, listings []internal.ScoredListing) internal.SourceStats {
	sum := 0.0
	minPrice := listings[0].Price
	maxPrice := listings[0].Price
	for _, l := range listings {
		sum += l.Price
		if l.Price < minPrice {
			minPrice = l.Price
		}
		if l.Price > maxPrice {
			maxPrice = l.Price
		}
	}
	return internal.SourceStats{
		Name:  name,
		Avg:   math.Round(sum / float64(len(listings))),
		Min:   minPrice,
		Max:   maxPrice,
		Count: len(listings),
	}
}

// poolPrices computes the cross-source estimate. Every retained listing
// weighs equally; a source with more listings weighs more.
func poolPrices(prices []float64, sourcesUsed []internal.SourceStats) internal.OccasionPrice {
	if len(prices) == 0 {
		return internal.OccasionPrice{Sources: []internal.SourceStats{}}
	}

	sum := 0.0
	minPrice := prices[0]
	maxPrice := prices[0]
	for _, p := range prices {
		sum += p
		if p < minPrice {
			minPrice = p
		}
		if p > maxPrice {
			maxPrice = p
		}
	}

	return internal.OccasionPrice{
		Available: true,
		Avg:       math.Round(sum / float64(len(prices))),
		Min:       minPrice,
		Max:       maxPrice,
		Count:     len(prices),
		Sources:   sourcesUsed,
	}
}
