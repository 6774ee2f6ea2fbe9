package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pricescout/internal"
	"pricescout/internal/config"
)

// Client is one marketplace search backend. Search never returns an
// error: every failure is captured inside the SourceResult so one bad
// source cannot abort a concurrent fan-out.
type Client interface {
	Name() string
	Search(ctx context.Context, query string) internal.SourceResult
}

// Query characters outside this set confuse marketplace search engines;
// accented letters are kept for French titles.
var queryNoisePattern = regexp.MustCompile(`[^\w\s\-àâäéèêëïîôùûüç]`)

func cleanQuery(query string) string {
	return strings.TrimSpace(queryNoisePattern.ReplaceAllString(query, " "))
}

func newResult(source string) internal.SourceResult {
	return internal.SourceResult{Source: source, Prices: []internal.RawListing{}}
}

// applyListings keeps positive-price listings and fills the result stats.
// Returns true when the tier produced at least one usable price.
func applyListings(result *internal.SourceResult, listings []internal.RawListing) bool {
	kept := make([]internal.RawListing, 0, len(listings))
	for _, l := range listings {
		if l.Price > 0 {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return false
	}

	sum := 0.0
	minPrice := kept[0].Price
	maxPrice := kept[0].Price
	for _, l := range kept {
		sum += l.Price
		if l.Price < minPrice {
			minPrice = l.Price
		}
		if l.Price > maxPrice {
			maxPrice = l.Price
		}
	}

	result.Prices = kept
	result.Count = len(kept)
	result.MinPrice = minPrice
	result.MaxPrice = maxPrice
	result.AvgPrice = math.Round(sum / float64(len(kept)))
	result.Success = true
	result.Error = ""
	return true
}

type fetcher struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	metrics    *Metrics
}

func newFetcher(cfg config.Config, metrics *Metrics) *fetcher {
	return &fetcher{
		httpClient: &http.Client{},
		userAgent:  cfg.UserAgent,
		timeout:    time.Duration(cfg.SearchTimeoutMs) * time.Millisecond,
		metrics:    metrics,
	}
}

// do issues one bounded request. The timeout aborts only this request;
// sibling sources keep running.
func (f *fetcher) do(ctx context.Context, method, url string, headers map[string]string, body io.Reader) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	f.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return blob, nil
}

// extractListingsFromHTML is the shared Tier B extractor: first look for
// server-rendered JSON blobs in script tags, then fall back to bare
// currency amounts in the page text as unstructured price points.
func extractListingsFromHTML(html, platform string) []internal.RawListing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return priceFallback(html, platform)
	}

	out := []internal.RawListing{}
	doc.Find("script").Each(func(_ int, script *goquery.Selection) {
		text := strings.TrimSpace(script.Text())
		if len(text) < 2 || (text[0] != '{' && text[0] != '[') {
			return
		}
		out = append(out, listingsFromJSONBlob([]byte(text), platform)...)
	})
	if len(out) > 0 {
		return out
	}

	return priceFallback(doc.Text(), platform)
}

// listingsFromJSONBlob walks an arbitrary decoded JSON document and
// collects every object that looks like a listing (a title next to a
// positive price). Field-name variants are normalized here and never
// leak past this boundary.
func listingsFromJSONBlob(blob []byte, platform string) []internal.RawListing {
	var root any
	if err := json.Unmarshal(blob, &root); err != nil {
		return nil
	}
	out := []internal.RawListing{}
	walkForListings(root, platform, &out)
	return out
}

func walkForListings(node any, platform string, out *[]internal.RawListing) {
	switch v := node.(type) {
	case map[string]any:
		title := stringFromAny(firstPresent(v, "title", "subject", "name"))
		price := priceFromAny(firstPresent(v, "price", "total_item_price", "price_numeric", "amount"))
		if title != "" && price > 0 {
			*out = append(*out, internal.RawListing{
				Price:    price,
				Title:    title,
				URL:      stringFromAny(v["url"]),
				Image:    imageFromAny(v),
				Platform: platform,
			})
			return
		}
		for _, child := range v {
			walkForListings(child, platform, out)
		}
	case []any:
		for _, child := range v {
			walkForListings(child, platform, out)
		}
	}
}

var pageAmountPattern = regexp.MustCompile(`(\d{1,4}(?:\s?\d{3})*(?:[.,]\d{1,2})?)\s*€`)

// priceFallback scans raw page text for currency amounts. Listings built
// here carry a placeholder title and no URL.
func priceFallback(text, platform string) []internal.RawListing {
	out := []internal.RawListing{}
	for _, m := range pageAmountPattern.FindAllStringSubmatch(text, -1) {
		price := ParsePrice(m[1])
		if price <= 0 {
			continue
		}
		out = append(out, internal.RawListing{
			Price:    price,
			Title:    "Annonce " + platform,
			Platform: platform,
		})
	}
	return out
}

// ParsePrice reads a price out of marketplace text, tolerating currency
// symbols, thin spaces and both decimal conventions ("1 234,56", "1,234.56").
func ParsePrice(text string) float64 {
	s := strings.NewReplacer("€", "", "EUR", "", "\u00a0", " ", "\u202f", " ").Replace(text)
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0
	}

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if len(s)-comma-1 == 3 && strings.Count(s, ",") == 1 && len(s) > 4 {
			// "1,234" reads as a thousands separator, "12,5" as decimals.
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringFromAny(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func priceFromAny(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		return ParsePrice(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	case map[string]any:
		return priceFromAny(firstPresent(t, "amount", "value"))
	case []any:
		if len(t) > 0 {
			return priceFromAny(t[0])
		}
	}
	return 0
}

func imageFromAny(m map[string]any) string {
	switch photo := firstPresent(m, "photo", "image", "thumbnail").(type) {
	case map[string]any:
		return stringFromAny(firstPresent(photo, "url", "imageUrl"))
	case string:
		return strings.TrimSpace(photo)
	}
	if photos, ok := m["photos"].([]any); ok && len(photos) > 0 {
		if p, ok := photos[0].(map[string]any); ok {
			return stringFromAny(p["url"])
		}
	}
	return ""
}
