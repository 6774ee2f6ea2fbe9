package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"pricescout/internal/config"
)

func TestLeBonCoinSearchAPI(t *testing.T) {
	cfg, _ := config.Load()
	cfg.LeBonCoinAPIURL = "https://api.lbc.test/finder/search"
	cfg.MaxResults = 30

	client := NewLeBonCoin(cfg, nil)
	client.fetcher.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.Method != http.MethodPost {
				t.Fatalf("method=%s", r.Method)
			}
			if r.URL.Host != "api.lbc.test" {
				t.Fatalf("host=%s", r.URL.Host)
			}
			payload, _ := io.ReadAll(r.Body)
			var req lbcRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				t.Fatalf("bad payload: %v", err)
			}
			if req.Filters.Keywords.Text != "rtx 3070" {
				t.Fatalf("keywords=%q", req.Filters.Keywords.Text)
			}
			if req.Limit != 30 || req.SortBy != "relevance" || req.SortOrder != "desc" {
				t.Fatalf("request=%+v", req)
			}

			body := `{"ads":[
				{"subject":"RTX 3070 Gaming","url":"https://lbc.test/ad/1","price":[320],"images":{"thumb_url":"https://lbc.test/t1.jpg"}},
				{"subject":"RTX 3070 OC","url":"https://lbc.test/ad/2","price":[300],"images":{"urls":["https://lbc.test/u2.jpg"]}}
			]}`
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(body)),
				Header:     make(http.Header),
			}, nil
		}),
	}

	result := client.Search(context.Background(), "rtx 3070")
	if !result.Success || result.Count != 2 {
		t.Fatalf("result=%+v", result)
	}
	if result.AvgPrice != 310 {
		t.Fatalf("avg=%v", result.AvgPrice)
	}
	if result.Prices[0].Image != "https://lbc.test/t1.jpg" {
		t.Fatalf("image=%q", result.Prices[0].Image)
	}
	if result.Prices[1].Image != "https://lbc.test/u2.jpg" {
		t.Fatalf("image=%q", result.Prices[1].Image)
	}
}

func TestLeBonCoinFallsBackToScrape(t *testing.T) {
	cfg, _ := config.Load()
	cfg.LeBonCoinAPIURL = "https://api.lbc.test/finder/search"
	cfg.LeBonCoinBaseURL = "https://lbc.test"

	client := NewLeBonCoin(cfg, nil)
	client.fetcher.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.Method == http.MethodPost {
				return &http.Response{
					StatusCode: http.StatusTooManyRequests,
					Body:       io.NopCloser(strings.NewReader("rate limited")),
					Header:     make(http.Header),
				}, nil
			}
			if r.URL.Path != "/recherche" {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			html := `<html><body><p>RTX 3070 occasion 295 €</p></body></html>`
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
	if result.Prices[0].Price != 295 {
		t.Fatalf("price=%v", result.Prices[0].Price)
	}
}
