package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"pricescout/internal"
	"pricescout/internal/config"
)

type LeBonCoin struct {
	cfg     config.Config
	fetcher *fetcher
}

func NewLeBonCoin(cfg config.Config, metrics *Metrics) *LeBonCoin {
	return &LeBonCoin{cfg: cfg, fetcher: newFetcher(cfg, metrics)}
}

func (l *LeBonCoin) Name() string { return "LeBonCoin" }

// Search posts to the finder API first, then falls back to scraping the
// public search page.
func (l *LeBonCoin) Search(ctx context.Context, query string) internal.SourceResult {
	result := newResult(l.Name())
	clean := cleanQuery(query)

	var lastErr error
	listings, err := l.searchAPI(ctx, clean)
	if err != nil {
		lastErr = err
		l.fetcher.metrics.IncSearch("leboncoin", "api", "error")
	} else if applyListings(&result, listings) {
		l.fetcher.metrics.IncSearch("leboncoin", "api", "ok")
		l.fetcher.metrics.AddListings("leboncoin", result.Count)
		return result
	} else {
		l.fetcher.metrics.IncSearch("leboncoin", "api", "empty")
	}

	pageURL := fmt.Sprintf("%s/recherche?text=%s", l.cfg.LeBonCoinBaseURL, url.QueryEscape(clean))
	listings, err = l.scrapePage(ctx, pageURL)
	if err != nil {
		lastErr = err
		l.fetcher.metrics.IncSearch("leboncoin", "scrape", "error")
	} else if applyListings(&result, listings) {
		l.fetcher.metrics.IncSearch("leboncoin", "scrape", "ok")
		l.fetcher.metrics.AddListings("leboncoin", result.Count)
		return result
	} else {
		l.fetcher.metrics.IncSearch("leboncoin", "scrape", "empty")
	}

	if lastErr != nil {
		result.Error = lastErr.Error()
	} else {
		result.Error = "no results"
	}
	return result
}

type lbcRequest struct {
	Limit     int        `json:"limit"`
	LimitAlu  int        `json:"limit_alu"`
	Filters   lbcFilters `json:"filters"`
	SortBy    string     `json:"sort_by"`
	SortOrder string     `json:"sort_order"`
}

type lbcFilters struct {
	Category map[string]any `json:"category"`
	Keywords lbcKeywords    `json:"keywords"`
	Ranges   map[string]any `json:"ranges"`
}

type lbcKeywords struct {
	Text string `json:"text"`
}

// Ad prices come back as a single-element array.
type lbcAd struct {
	Subject string    `json:"subject"`
	URL     string    `json:"url"`
	Price   any       `json:"price"`
	Images  lbcImages `json:"images"`
}

type lbcImages struct {
	URLs     []string `json:"urls"`
	ThumbURL string   `json:"thumb_url"`
}

type lbcResponse struct {
	Ads []lbcAd `json:"ads"`
}

func (l *LeBonCoin) searchAPI(ctx context.Context, query string) ([]internal.RawListing, error) {
	payload, err := json.Marshal(lbcRequest{
		Limit:    l.cfg.MaxResults,
		LimitAlu: 3,
		Filters: lbcFilters{
			Category: map[string]any{},
			Keywords: lbcKeywords{Text: query},
			Ranges:   map[string]any{},
		},
		SortBy:    "relevance",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"Origin":       l.cfg.LeBonCoinBaseURL,
		"Referer":      l.cfg.LeBonCoinBaseURL + "/",
	}
	blob, err := l.fetcher.do(ctx, "POST", l.cfg.LeBonCoinAPIURL, headers, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var resp lbcResponse
	if err := json.Unmarshal(blob, &resp); err != nil {
		return nil, fmt.Errorf("decode leboncoin response: %w", err)
	}

	listings := make([]internal.RawListing, 0, len(resp.Ads))
	for _, ad := range resp.Ads {
		title := ad.Subject
		if title == "" {
			title = "Annonce LeBonCoin"
		}
		image := ad.Images.ThumbURL
		if image == "" && len(ad.Images.URLs) > 0 {
			image = ad.Images.URLs[0]
		}
		listings = append(listings, internal.RawListing{
			Price:    priceFromAny(ad.Price),
			Title:    title,
			URL:      ad.URL,
			Image:    image,
			Platform: l.Name(),
		})
	}
	return listings, nil
}

func (l *LeBonCoin) scrapePage(ctx context.Context, pageURL string) ([]internal.RawListing, error) {
	blob, err := l.fetcher.do(ctx, "GET", pageURL, map[string]string{"Accept": "text/html"}, nil)
	if err != nil {
		return nil, err
	}
	return extractListingsFromHTML(string(blob), l.Name()), nil
}
