package analyzer

import (
	"context"
	"errors"
	"testing"

	"pricescout/internal"
	"pricescout/internal/config"
)

type stubAggregator struct {
	calls int
	data  internal.AggregatedPriceData
}

func (s *stubAggregator) Aggregate(ctx context.Context, title string) internal.AggregatedPriceData {
	s.calls++
	return s.data
}

type stubStore struct {
	saved []internal.Analysis
	err   error
}

func (s *stubStore) SaveAnalysis(analysis internal.Analysis) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, analysis)
	return nil
}

func availableData() internal.AggregatedPriceData {
	return internal.AggregatedPriceData{
		Query: "rtx 3070",
		OccasionPrice: internal.OccasionPrice{
			Available: true,
			Avg:       300,
			Min:       250,
			Max:       350,
			Count:     6,
			Sources:   []internal.SourceStats{{Name: "Vinted", Avg: 300, Count: 6}},
		},
		RawResults: map[string]internal.SourceBreakdown{},
	}
}

func TestAnalyzeSavesHistory(t *testing.T) {
	cfg, _ := config.Load()
	agg := &stubAggregator{data: availableData()}
	store := &stubStore{}
	a, err := New(cfg, agg, store, nil)
	if err != nil {
		t.Fatal(err)
	}

	analysis := a.Analyze(context.Background(), internal.ProductInfo{Title: "RTX 3070", Price: 240})
	if analysis.Profitability.DealScore <= 50 {
		t.Fatalf("dealScore=%d", analysis.Profitability.DealScore)
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved=%d", len(store.saved))
	}
	if analysis.Summary.SearchQuery != "rtx 3070" {
		t.Fatalf("query=%q", analysis.Summary.SearchQuery)
	}
}

func TestAnalyzeCachesByQuery(t *testing.T) {
	cfg, _ := config.Load()
	agg := &stubAggregator{data: availableData()}
	a, err := New(cfg, agg, &stubStore{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Same derived search query, different raw titles.
	a.Analyze(context.Background(), internal.ProductInfo{Title: "RTX 3070 très bon état", Price: 240})
	a.Analyze(context.Background(), internal.ProductInfo{Title: "RTX 3070 comme neuf", Price: 250})

	if agg.calls != 1 {
		t.Fatalf("aggregator called %d times", agg.calls)
	}
}

func TestAnalyzeDoesNotCacheEmptyResults(t *testing.T) {
	cfg, _ := config.Load()
	agg := &stubAggregator{data: internal.AggregatedPriceData{
		Query:         "rtx 3070",
		OccasionPrice: internal.OccasionPrice{Sources: []internal.SourceStats{}},
		RawResults:    map[string]internal.SourceBreakdown{},
	}}
	a, err := New(cfg, agg, &stubStore{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	a.Analyze(context.Background(), internal.ProductInfo{Title: "RTX 3070", Price: 240})
	a.Analyze(context.Background(), internal.ProductInfo{Title: "RTX 3070", Price: 240})

	if agg.calls != 2 {
		t.Fatalf("aggregator called %d times", agg.calls)
	}
}

func TestAnalyzeSurvivesStoreFailure(t *testing.T) {
	cfg, _ := config.Load()
	agg := &stubAggregator{data: availableData()}
	a, err := New(cfg, agg, &stubStore{err: errors.New("disk full")}, nil)
	if err != nil {
		t.Fatal(err)
	}

	analysis := a.Analyze(context.Background(), internal.ProductInfo{Title: "RTX 3070", Price: 240})
	if analysis.Profitability.DealRating == "" {
		t.Fatalf("analysis=%+v", analysis)
	}
}

func TestAnalyzeInvalidProduct(t *testing.T) {
	cfg, _ := config.Load()
	agg := &stubAggregator{data: availableData()}
	store := &stubStore{}
	a, err := New(cfg, agg, store, nil)
	if err != nil {
		t.Fatal(err)
	}

	analysis := a.Analyze(context.Background(), internal.ProductInfo{})
	if agg.calls != 0 {
		t.Fatalf("aggregator called %d times", agg.calls)
	}
	if len(store.saved) != 0 {
		t.Fatal("invalid product should not be saved")
	}
	if analysis.Profitability.DealRating == "" || analysis.Profitability.DealScore != 50 {
		t.Fatalf("profitability=%+v", analysis.Profitability)
	}
}
