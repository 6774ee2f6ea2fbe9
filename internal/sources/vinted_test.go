package sources

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"pricescout/internal/config"
)

func TestVintedSearchAPI(t *testing.T) {
	cfg, _ := config.Load()
	cfg.VintedBaseURL = "https://vinted.test"

	client := NewVinted(cfg, nil)
	client.fetcher.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/api/v2/catalog/items" {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("search_text"); got != "rtx 3070" {
				t.Fatalf("search_text=%q", got)
			}
			body := `{"items":[
				{"id":1,"title":"RTX 3070 occasion","price":"310.0","url":"https://vinted.test/items/1"},
				{"id":2,"title":"RTX 3070 FE","total_item_price":{"amount":"290"}},
				{"id":3,"title":"RTX 3070 HS","price":0}
			]}`
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(body)),
				Header:     make(http.Header),
			}, nil
		}),
	}

	result := client.Search(context.Background(), "rtx 3070")
	if !result.Success {
		t.Fatalf("result=%+v", result)
	}
	if result.Count != 2 {
		t.Fatalf("count=%d", result.Count)
	}
	if result.AvgPrice != 300 || result.MinPrice != 290 || result.MaxPrice != 310 {
		t.Fatalf("stats=%+v", result)
	}
	if result.Prices[1].URL != "https://vinted.test/items/2" {
		t.Fatalf("url=%q", result.Prices[1].URL)
	}
}

func TestVintedFallsBackToScrape(t *testing.T) {
	cfg, _ := config.Load()
	cfg.VintedBaseURL = "https://vinted.test"

	client := NewVinted(cfg, nil)
	client.fetcher.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				return &http.Response{
					StatusCode: http.StatusForbidden,
					Body:       io.NopCloser(strings.NewReader("blocked")),
					Header:     make(http.Header),
				}, nil
			}
			if r.URL.Path != "/catalog" {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			html := `<html><head><script>{"catalogItems":[{"title":"RTX 3070","price":280,"url":"https://vinted.test/items/7"}]}</script></head><body></body></html>`
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(html)),
				Header:     make(http.Header),
			}, nil
		}),
	}

	result := client.Search(context.Background(), "rtx 3070")
	if !result.Success || result.Count != 1 {
		t.Fatalf("result=%+v", result)
	}
	if result.Prices[0].Price != 280 {
		t.Fatalf("price=%v", result.Prices[0].Price)
	}
}

func TestVintedTotalFailure(t *testing.T) {
	cfg, _ := config.Load()
	cfg.VintedBaseURL = "https://vinted.test"

	client := NewVinted(cfg, nil)
	client.fetcher.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusInternalServerError,
				Body:       io.NopCloser(strings.NewReader("boom")),
				Header:     make(http.Header),
			}, nil
		}),
	}

	result := client.Search(context.Background(), "rtx 3070")
	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.Error == "" {
		t.Fatal("missing error")
	}
	if result.Prices == nil || len(result.Prices) != 0 {
		t.Fatalf("prices=%v", result.Prices)
	}
}
