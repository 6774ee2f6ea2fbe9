package keywords

import (
	"reflect"
	"strings"
	"testing"

	"pricescout/internal"
)

func TestExtractGPU(t *testing.T) {
	desc := Extract("Carte graphique RTX 3070 Ti 8GB ASUS ROG")

	if desc.Model != "rtx 3070 ti" {
		t.Fatalf("model=%q", desc.Model)
	}
	if desc.Brand != "asus" {
		t.Fatalf("brand=%q", desc.Brand)
	}
	if desc.ProductType != internal.ProductGPU {
		t.Fatalf("type=%s", desc.ProductType)
	}
	if !reflect.DeepEqual(desc.Numbers, []string{"3070"}) {
		t.Fatalf("numbers=%v", desc.Numbers)
	}
	if desc.SearchQuery != "asus rtx 3070 ti" {
		t.Fatalf("query=%q", desc.SearchQuery)
	}
}

func TestExtractCPUSuffixMerge(t *testing.T) {
	desc := Extract("Processeur Intel Core i7 9700 K LGA1151")

	if desc.Model != "i7 9700k" {
		t.Fatalf("model=%q", desc.Model)
	}
	if desc.Brand != "intel" {
		t.Fatalf("brand=%q", desc.Brand)
	}
	if desc.ProductType != internal.ProductCPU {
		t.Fatalf("type=%s", desc.ProductType)
	}
	if !reflect.DeepEqual(desc.Numbers, []string{"9700k"}) {
		t.Fatalf("numbers=%v", desc.Numbers)
	}
}

func TestExtractTable(t *testing.T) {
	tests := []struct {
		title string
		model string
		brand string
		ptype internal.ProductType
	}{
		{"iPhone 13 Pro 128Go très bon état", "iphone 13 pro", "", internal.ProductPhone},
		{"Console Sony PS5 Slim avec manette", "ps5 slim", "sony", internal.ProductConsole},
		{"Nintendo Switch OLED blanche", "switch oled", "nintendo", internal.ProductConsole},
		{"Moniteur LG UltraGear 27 pouces", "", "lg", internal.ProductMonitor},
		{"AMD R7 5800X boxed", "r7 5800x", "amd", internal.ProductCPU},
		{"Samsung Galaxy S21 Ultra", "galaxy s21 ultra", "samsung", internal.ProductPhone},
		{"Vélo de course vintage", "", "", internal.ProductOther},
	}

	for _, tc := range tests {
		desc := Extract(tc.title)
		if desc.Model != tc.model {
			t.Fatalf("%q: model=%q want %q", tc.title, desc.Model, tc.model)
		}
		if desc.Brand != tc.brand {
			t.Fatalf("%q: brand=%q want %q", tc.title, desc.Brand, tc.brand)
		}
		if desc.ProductType != tc.ptype {
			t.Fatalf("%q: type=%s want %s", tc.title, desc.ProductType, tc.ptype)
		}
	}
}

func TestNormalizeRules(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Intel Core i7 9700K", "intel i7 9700k"},
		{"i 7 9700", "i7 9700"},
		{"9700 KF", "9700kf"},
		{"i9 10900 K F", "i9 10900k f"},
		{"RTX 3080 (10GB, occasion)", "rtx 3080"},
		{"  double   espace  ", "double espace"},
	}

	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractEmptyTitle(t *testing.T) {
	for _, title := range []string{"", "   "} {
		desc := Extract(title)
		if desc.Model != "" || desc.Brand != "" || desc.SearchQuery != "" {
			t.Fatalf("%q: non-empty descriptor %+v", title, desc)
		}
		if desc.ProductType != internal.ProductOther {
			t.Fatalf("%q: type=%s", title, desc.ProductType)
		}
		if desc.Numbers == nil || desc.Keywords == nil {
			t.Fatalf("%q: nil slices", title)
		}
	}
}

func TestExtractDeterministic(t *testing.T) {
	title := "MSI GeForce RTX 4070 Super Gaming X Trio 12GB"
	first := Extract(title)
	for i := 0; i < 5; i++ {
		if got := Extract(title); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestSearchQueryCapped(t *testing.T) {
	long := strings.Repeat("clavier mécanique rétroéclairé ", 10)
	desc := Extract(long)
	if n := len([]rune(desc.SearchQuery)); n > 60 {
		t.Fatalf("query length %d: %q", n, desc.SearchQuery)
	}
	if desc.SearchQuery == "" {
		t.Fatal("empty query")
	}
}

func TestSearchQueryStripsCurrencyAndPunctuation(t *testing.T) {
	desc := Extract("Tapis de souris XXL!!! 25,99€ <<PROMO>>")
	if strings.ContainsAny(desc.SearchQuery, "€!<>") {
		t.Fatalf("query=%q", desc.SearchQuery)
	}
}
