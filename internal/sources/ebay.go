package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricescout/internal"
	"pricescout/internal/config"
)

type Ebay struct {
	cfg     config.Config
	fetcher *fetcher
}

func NewEbay(cfg config.Config, metrics *Metrics) *Ebay {
	return &Ebay{cfg: cfg, fetcher: newFetcher(cfg, metrics)}
}

func (e *Ebay) Name() string { return "eBay" }

// Search uses the Browse API when a token is configured, otherwise goes
// straight to scraping the public search results page.
func (e *Ebay) Search(ctx context.Context, query string) internal.SourceResult {
	result := newResult(e.Name())
	clean := cleanQuery(query)

	var lastErr error
	if e.cfg.EbayAPIToken != "" {
		listings, err := e.searchAPI(ctx, clean)
		if err != nil {
			lastErr = err
			e.fetcher.metrics.IncSearch("ebay", "api", "error")
		} else if applyListings(&result, listings) {
			e.fetcher.metrics.IncSearch("ebay", "api", "ok")
			e.fetcher.metrics.AddListings("ebay", result.Count)
			return result
		} else {
			e.fetcher.metrics.IncSearch("ebay", "api", "empty")
		}
	} else {
		lastErr = errors.New("no API token configured")
	}

	pageURL := fmt.Sprintf("%s/sch/i.html?_nkw=%s", e.cfg.EbayBaseURL, url.QueryEscape(clean))
	listings, err := e.scrapePage(ctx, pageURL)
	if err != nil {
		lastErr = err
		e.fetcher.metrics.IncSearch("ebay", "scrape", "error")
	} else if applyListings(&result, listings) {
		e.fetcher.metrics.IncSearch("ebay", "scrape", "ok")
		e.fetcher.metrics.AddListings("ebay", result.Count)
		return result
	} else {
		e.fetcher.metrics.IncSearch("ebay", "scrape", "empty")
	}

	if lastErr != nil {
		result.Error = lastErr.Error()
	} else {
		result.Error = "no results"
	}
	return result
}

type ebayResponse struct {
	ItemSummaries []ebayItem `json:"itemSummaries"`
}

type ebayItem struct {
	Title           string      `json:"title"`
	ItemWebURL      string      `json:"itemWebUrl"`
	Price           ebayPrice   `json:"price"`
	Image           ebayImage   `json:"image"`
	ThumbnailImages []ebayImage `json:"thumbnailImages"`
}

type ebayPrice struct {
	Value string `json:"value"`
}

type ebayImage struct {
	ImageURL string `json:"imageUrl"`
}

func (e *Ebay) searchAPI(ctx context.Context, query string) ([]internal.RawListing, error) {
	apiURL := fmt.Sprintf("%s/buy/browse/v1/item_summary/search?q=%s&limit=%d",
		e.cfg.EbayAPIBaseURL, url.QueryEscape(query), e.cfg.MaxResults)
	headers := map[string]string{
		"Authorization":   "Bearer " + e.cfg.EbayAPIToken,
		"Accept":          "application/json",
		"X-EBAY-C-MARKETPLACE-ID": "EBAY_FR",
	}
	blob, err := e.fetcher.do(ctx, "GET", apiURL, headers, nil)
	if err != nil {
		return nil, err
	}

	var resp ebayResponse
	if err := json.Unmarshal(blob, &resp); err != nil {
		return nil, fmt.Errorf("decode ebay response: %w", err)
	}

	listings := make([]internal.RawListing, 0, len(resp.ItemSummaries))
	for _, item := range resp.ItemSummaries {
		image := item.Image.ImageURL
		if image == "" && len(item.ThumbnailImages) > 0 {
			image = item.ThumbnailImages[0].ImageURL
		}
		listings = append(listings, internal.RawListing{
			Price:    ParsePrice(item.Price.Value),
			Title:    item.Title,
			URL:      item.ItemWebURL,
			Image:    image,
			Platform: e.Name(),
		})
	}
	return listings, nil
}

func (e *Ebay) scrapePage(ctx context.Context, pageURL string) ([]internal.RawListing, error) {
	blob, err := e.fetcher.do(ctx, "GET", pageURL, map[string]string{"Accept": "text/html"}, nil)
	if err != nil {
		return nil, err
	}
	html := string(blob)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return extractListingsFromHTML(html, e.Name()), nil
	}

	listings := []internal.RawListing{}
	doc.Find("li.s-item, div.s-item").Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find(".s-item__title").Text())
		// The first card is usually a "Shop on eBay" placeholder.
		if title == "" || strings.EqualFold(title, "shop on ebay") {
			return
		}
		price := ParsePrice(card.Find(".s-item__price").First().Text())
		if price <= 0 {
			return
		}
		link, _ := card.Find("a.s-item__link").Attr("href")
		image, _ := card.Find(".s-item__image img").Attr("src")
		listings = append(listings, internal.RawListing{
			Price:    price,
			Title:    title,
			URL:      link,
			Image:    image,
			Platform: e.Name(),
		})
	})
	if len(listings) > 0 {
		return listings, nil
	}

	return extractListingsFromHTML(html, e.Name()), nil
}
