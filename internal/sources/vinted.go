package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"pricescout/internal"
	"pricescout/internal/config"
)

type Vinted struct {
	cfg     config.Config
	fetcher *fetcher
}

func NewVinted(cfg config.Config, metrics *Metrics) *Vinted {
	return &Vinted{cfg: cfg, fetcher: newFetcher(cfg, metrics)}
}

func (v *Vinted) Name() string { return "Vinted" }

// Search tries the catalog API first (two endpoint shapes, the older one
// as backup), then falls back to scraping the public search page.
func (v *Vinted) Search(ctx context.Context, query string) internal.SourceResult {
	result := newResult(v.Name())
	clean := cleanQuery(query)
	escaped := url.QueryEscape(clean)

	apiURLs := []string{
		fmt.Sprintf("%s/api/v2/catalog/items?search_text=%s&order=relevance&per_page=%d", v.cfg.VintedBaseURL, escaped, v.cfg.MaxResults),
		fmt.Sprintf("%s/api/v2/items?search_text=%s&per_page=%d", v.cfg.VintedBaseURL, escaped, v.cfg.MaxResults),
	}

	var lastErr error
	for _, apiURL := range apiURLs {
		listings, err := v.searchAPI(ctx, apiURL)
		if err != nil {
			lastErr = err
			v.fetcher.metrics.IncSearch("vinted", "api", "error")
			continue
		}
		if applyListings(&result, listings) {
			v.fetcher.metrics.IncSearch("vinted", "api", "ok")
			v.fetcher.metrics.AddListings("vinted", result.Count)
			return result
		}
		v.fetcher.metrics.IncSearch("vinted", "api", "empty")
	}

	pageURL := fmt.Sprintf("%s/catalog?search_text=%s", v.cfg.VintedBaseURL, escaped)
	listings, err := v.scrapePage(ctx, pageURL)
	if err != nil {
		lastErr = err
		v.fetcher.metrics.IncSearch("vinted", "scrape", "error")
	} else if applyListings(&result, listings) {
		v.fetcher.metrics.IncSearch("vinted", "scrape", "ok")
		v.fetcher.metrics.AddListings("vinted", result.Count)
		return result
	} else {
		v.fetcher.metrics.IncSearch("vinted", "scrape", "empty")
	}

	if lastErr != nil {
		result.Error = lastErr.Error()
	} else {
		result.Error = "no results"
	}
	return result
}

// The API renders prices in several shapes depending on endpoint version:
// a plain number, a string, or an object with an amount field. Everything
// is normalized to float64 here.
type vintedItem struct {
	ID             json.Number  `json:"id"`
	Title          string       `json:"title"`
	URL            string       `json:"url"`
	Price          any          `json:"price"`
	TotalItemPrice any          `json:"total_item_price"`
	PriceNumeric   any          `json:"price_numeric"`
	Photo          *vintedPhoto `json:"photo"`
	Photos         []vintedPhoto `json:"photos"`
}

type vintedPhoto struct {
	URL string `json:"url"`
}

type vintedResponse struct {
	Items []vintedItem `json:"items"`
	Data  []vintedItem `json:"data"`
}

func (v *Vinted) searchAPI(ctx context.Context, apiURL string) ([]internal.RawListing, error) {
	blob, err := v.fetcher.do(ctx, "GET", apiURL, map[string]string{"Accept": "application/json"}, nil)
	if err != nil {
		return nil, err
	}

	var resp vintedResponse
	if err := json.Unmarshal(blob, &resp); err != nil {
		return nil, fmt.Errorf("decode vinted response: %w", err)
	}
	items := resp.Items
	if len(items) == 0 {
		items = resp.Data
	}

	listings := make([]internal.RawListing, 0, len(items))
	for _, item := range items {
		price := priceFromAny(item.Price)
		if price == 0 {
			price = priceFromAny(item.TotalItemPrice)
		}
		if price == 0 {
			price = priceFromAny(item.PriceNumeric)
		}

		title := item.Title
		if title == "" {
			title = "Article Vinted"
		}
		link := item.URL
		if link == "" && item.ID != "" {
			link = v.cfg.VintedBaseURL + "/items/" + item.ID.String()
		}
		image := ""
		if item.Photo != nil {
			image = item.Photo.URL
		} else if len(item.Photos) > 0 {
			image = item.Photos[0].URL
		}

		listings = append(listings, internal.RawListing{
			Price:    price,
			Title:    title,
			URL:      link,
			Image:    image,
			Platform: v.Name(),
		})
	}
	return listings, nil
}

func (v *Vinted) scrapePage(ctx context.Context, pageURL string) ([]internal.RawListing, error) {
	blob, err := v.fetcher.do(ctx, "GET", pageURL, map[string]string{"Accept": "text/html"}, nil)
	if err != nil {
		return nil, err
	}
	return extractListingsFromHTML(string(blob), v.Name()), nil
}
