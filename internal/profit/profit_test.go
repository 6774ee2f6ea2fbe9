package profit

import (
	"sort"
	"testing"

	"pricescout/internal"
)

func marketData(avg float64, count, sourceCount int) internal.AggregatedPriceData {
	stats := make([]internal.SourceStats, 0, sourceCount)
	names := []string{"Vinted", "LeBonCoin", "eBay"}
	for i := 0; i < sourceCount; i++ {
		stats = append(stats, internal.SourceStats{Name: names[i], Avg: avg, Count: count / sourceCount})
	}
	return internal.AggregatedPriceData{
		Query: "rtx 3070",
		OccasionPrice: internal.OccasionPrice{
			Available: true,
			Avg:       avg,
			Min:       avg * 0.8,
			Max:       avg * 1.2,
			Count:     count,
			Sources:   stats,
		},
		RawResults: map[string]internal.SourceBreakdown{},
	}
}

func TestEvaluateExcellentDeal(t *testing.T) {
	result := Evaluate(450, marketData(585, 20, 2))

	if result.VsOccasion.Difference != 135 {
		t.Fatalf("difference=%v", result.VsOccasion.Difference)
	}
	if result.VsOccasion.PercentDiff != 23 {
		t.Fatalf("percentDiff=%d", result.VsOccasion.PercentDiff)
	}
	if result.VsOccasion.Verdict != "excellent" {
		t.Fatalf("verdict=%q", result.VsOccasion.Verdict)
	}
	if result.DealScore != 96 {
		t.Fatalf("dealScore=%d", result.DealScore)
	}
	if result.DealRating != RatingExceptional {
		t.Fatalf("rating=%q", result.DealRating)
	}
}

func TestEvaluateNoMarketData(t *testing.T) {
	data := internal.AggregatedPriceData{
		OccasionPrice: internal.OccasionPrice{Sources: []internal.SourceStats{}},
		RawResults:    map[string]internal.SourceBreakdown{},
	}
	result := Evaluate(450, data)

	if result.DealScore != 50 {
		t.Fatalf("dealScore=%d", result.DealScore)
	}
	if result.DealRating != RatingInsufficient {
		t.Fatalf("rating=%q", result.DealRating)
	}
	if result.VsOccasion.Verdict != "" {
		t.Fatalf("verdict=%q", result.VsOccasion.Verdict)
	}
}

func TestEvaluateVerdictBands(t *testing.T) {
	tests := []struct {
		price   float64
		verdict string
	}{
		{80, "excellent"},  // +20%
		{85, "good"},       // +15%
		{100, "fair"},      // 0%
		{108, "high"},      // -8%
		{150, "overpriced"}, // -50%
	}
	for _, tc := range tests {
		result := Evaluate(tc.price, marketData(100, 10, 1))
		if result.VsOccasion.Verdict != tc.verdict {
			t.Fatalf("price=%v verdict=%q want %q", tc.price, result.VsOccasion.Verdict, tc.verdict)
		}
	}
}

func TestEvaluateDealScoreClamped(t *testing.T) {
	if got := Evaluate(1, marketData(1000, 10, 1)).DealScore; got != 100 {
		t.Fatalf("dealScore=%d", got)
	}
	if got := Evaluate(5000, marketData(1000, 10, 1)).DealScore; got != 0 {
		t.Fatalf("dealScore=%d", got)
	}
}

func TestBuildSummaryConfidence(t *testing.T) {
	tests := []struct {
		count      int
		sources    int
		confidence string
	}{
		{20, 2, "high"},
		{15, 2, "high"},
		{15, 1, "medium"},
		{6, 1, "medium"},
		{3, 1, "medium"},
	}
	product := internal.ProductInfo{Title: "RTX 3070", Price: 450}
	for _, tc := range tests {
		data := marketData(585, tc.count, tc.sources)
		summary := BuildSummary(product, data, Evaluate(450, data))
		if summary.Confidence != tc.confidence {
			t.Fatalf("count=%d sources=%d confidence=%q want %q", tc.count, tc.sources, summary.Confidence, tc.confidence)
		}
	}
}

func TestBuildSummaryNoData(t *testing.T) {
	data := internal.AggregatedPriceData{
		OccasionPrice: internal.OccasionPrice{Sources: []internal.SourceStats{}},
		RawResults:    map[string]internal.SourceBreakdown{},
	}
	product := internal.ProductInfo{Title: "objet inconnu", Price: 42}
	summary := BuildSummary(product, data, Evaluate(42, data))

	if summary.Confidence != "none" {
		t.Fatalf("confidence=%q", summary.Confidence)
	}
	if summary.RatingLabel != RatingInsufficient {
		t.Fatalf("ratingLabel=%q", summary.RatingLabel)
	}
	if summary.DataPoints != 0 || len(summary.SourcesUsed) != 0 {
		t.Fatalf("summary=%+v", summary)
	}
}

func TestBuildSummaryListingsSortedByPrice(t *testing.T) {
	data := marketData(300, 4, 2)
	data.RawResults = map[string]internal.SourceBreakdown{
		"vinted": {Prices: []internal.ScoredListing{
			{RawListing: internal.RawListing{Price: 350, Title: "a"}, RelevanceScore: 90},
			{RawListing: internal.RawListing{Price: 250, Title: "b"}, RelevanceScore: 80},
		}},
		"leboncoin": {Prices: []internal.ScoredListing{
			{RawListing: internal.RawListing{Price: 300, Title: "c"}, RelevanceScore: 85},
		}},
	}
	summary := BuildSummary(internal.ProductInfo{Price: 280}, data, Evaluate(280, data))

	if len(summary.Listings) != 3 {
		t.Fatalf("listings=%d", len(summary.Listings))
	}
	if !sort.SliceIsSorted(summary.Listings, func(i, j int) bool {
		return summary.Listings[i].Price < summary.Listings[j].Price
	}) {
		t.Fatalf("not sorted: %+v", summary.Listings)
	}
}
