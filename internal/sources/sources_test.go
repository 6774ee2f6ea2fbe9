package sources

import (
	"net/http"
	"testing"

	"pricescout/internal"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"300", 300},
		{"300 €", 300},
		{"12,5", 12.5},
		{"123,45 EUR", 123.45},
		{"1 234,56", 1234.56},
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"1,234", 1234},
		{"245.50", 245.5},
		{"", 0},
		{"gratuit", 0},
	}
	for _, tc := range tests {
		if got := ParsePrice(tc.in); got != tc.want {
			t.Fatalf("ParsePrice(%q)=%v want %v", tc.in, got, tc.want)
		}
	}
}

func TestCleanQuery(t *testing.T) {
	got := cleanQuery("rtx 3070 ti (8go) à 300€!")
	if got != "rtx 3070 ti  8go  à 300" {
		t.Fatalf("got %q", got)
	}
}

func TestListingsFromJSONBlob(t *testing.T) {
	blob := []byte(`{
		"props": {
			"results": [
				{"title": "RTX 3070 occasion", "price": {"amount": "310.0"}, "url": "/items/1"},
				{"subject": "RTX 3070 Founders", "price": [290], "url": "/items/2"},
				{"name": "sans prix", "stock": 3}
			]
		}
	}`)
	listings := listingsFromJSONBlob(blob, "Vinted")
	if len(listings) != 2 {
		t.Fatalf("len=%d: %+v", len(listings), listings)
	}
	total := listings[0].Price + listings[1].Price
	if total != 600 {
		t.Fatalf("prices %v %v", listings[0].Price, listings[1].Price)
	}
	for _, l := range listings {
		if l.Platform != "Vinted" {
			t.Fatalf("platform=%q", l.Platform)
		}
	}
}

func TestExtractListingsFromHTMLScriptBlob(t *testing.T) {
	html := `<html><head>
		<script>{"items":[{"title":"PS5 Slim","price":340,"url":"https://x/items/9"}]}</script>
	</head><body>rien</body></html>`
	listings := extractListingsFromHTML(html, "Vinted")
	if len(listings) != 1 {
		t.Fatalf("len=%d", len(listings))
	}
	if listings[0].Title != "PS5 Slim" || listings[0].Price != 340 {
		t.Fatalf("listing=%+v", listings[0])
	}
}

func TestExtractListingsFromHTMLPriceFallback(t *testing.T) {
	html := `<html><body>
		<div>Annonce A 250 €</div>
		<div>Annonce B 310,50 €</div>
	</body></html>`
	listings := extractListingsFromHTML(html, "LeBonCoin")
	if len(listings) != 2 {
		t.Fatalf("len=%d: %+v", len(listings), listings)
	}
	if listings[0].Price != 250 || listings[1].Price != 310.5 {
		t.Fatalf("prices %v %v", listings[0].Price, listings[1].Price)
	}
}

func TestApplyListingsStats(t *testing.T) {
	result := newResult("Vinted")
	ok := applyListings(&result, []internal.RawListing{
		{Price: 100, Title: "a"},
		{Price: 200, Title: "b"},
		{Price: 0, Title: "gratuit"},
		{Price: 301, Title: "c"},
	})
	if !ok || !result.Success {
		t.Fatalf("result=%+v", result)
	}
	if result.Count != 3 || result.MinPrice != 100 || result.MaxPrice != 301 {
		t.Fatalf("stats=%+v", result)
	}
	if result.AvgPrice != 200 {
		t.Fatalf("avg=%v", result.AvgPrice)
	}
}

func TestApplyListingsAllUnusable(t *testing.T) {
	result := newResult("Vinted")
	if applyListings(&result, []internal.RawListing{{Price: 0}, {Price: -5}}) {
		t.Fatal("expected false")
	}
	if result.Success {
		t.Fatal("success should stay false")
	}
}
