package keywords

import (
	"regexp"
	"strings"

	"pricescout/internal"
)

const maxQueryLen = 60
const maxKeywords = 10

// rewriteRule is one step of the title normalization pipeline. The rules
// run in order; CPU suffix merging must happen before model matching.
type rewriteRule struct {
	pattern     *regexp.Regexp
	replacement string
}

var normalizeRules = []rewriteRule{
	{regexp.MustCompile(`core\s*`), ""},
	{regexp.MustCompile(`processeur\s*`), ""},
	{regexp.MustCompile(`processor\s*`), ""},
	{regexp.MustCompile(`\bi\s*([3579])\b`), "i$1"},
	{regexp.MustCompile(`(\d{4,5})\s*([kfx]+)\b`), "$1$2"},
	{regexp.MustCompile(`(\d{4,5})\s+([kfx])\s+([kfx])\b`), "$1$2$3"},
	{regexp.MustCompile(`\(.*?\)`), " "},
	{regexp.MustCompile(`\s+`), " "},
}

// Ordered by priority: the first matching pattern decides the model.
var modelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(rtx|gtx)\s*(\d{3,4})\s*(ti|super)?\b`),
	regexp.MustCompile(`\b(rx)\s*(\d{3,4})\s*(xt|xtx)?\b`),
	regexp.MustCompile(`\b(radeon|geforce)\s*(rtx|gtx|rx)?\s*(\d{3,4})\s*(ti|super|xt)?\b`),
	regexp.MustCompile(`\b(i[3579])\s*-?\s*(\d{4,5})([kfx]*)\b`),
	regexp.MustCompile(`\b(ryzen\s*[3579])\s*(\d{4}[a-z]*)\b`),
	regexp.MustCompile(`\b(r[3579])\s*(\d{4}[a-z]*)\b`),
	regexp.MustCompile(`\b(iphone|ipad)\s*(\d{1,2})\s*(pro|max|plus|mini)?\b`),
	regexp.MustCompile(`\b(galaxy)\s*(s|a|z|note)?\s*(\d{1,2})\s*(ultra|plus|fe)?\b`),
	regexp.MustCompile(`\b(pixel)\s*(\d{1,2})\s*(pro|a)?\b`),
	regexp.MustCompile(`\b(ps[45]|playstation\s*[45])\s*(pro|slim)?\b`),
	regexp.MustCompile(`\b(xbox)\s*(series\s*[xs]|one|one\s*[xs])?\b`),
	regexp.MustCompile(`\b(switch)\s*(oled|lite)?\b`),
}

var cpuFallbackPattern = regexp.MustCompile(`i([3579])\s*-?\s*(\d{4,5})([kfx]*)`)

// knownBrands order is a deliberate tie-break: earlier entries win.
var knownBrands = []string{
	"nvidia", "amd", "intel", "asus", "msi", "gigabyte", "evga", "zotac", "sapphire", "powercolor",
	"apple", "samsung", "sony", "microsoft", "nintendo", "logitech", "razer", "corsair", "steelseries",
	"hp", "dell", "lenovo", "acer", "lg", "benq", "aoc", "viewsonic",
	"seagate", "western digital", "wd", "crucial", "kingston", "sandisk",
}

var intelSeriesPattern = regexp.MustCompile(`\bi[3579]\b`)

// Product type checks in fixed priority order. GPU runs before CPU because
// combo titles mention both and the GPU pattern should win.
var (
	gpuTypePattern     = regexp.MustCompile(`\b(rtx|gtx|rx|radeon|geforce)\s*\d{3,4}`)
	cpuTypePattern     = regexp.MustCompile(`\bi[3579]\s*-?\s*\d{4,5}`)
	cpuAmdTypePattern  = regexp.MustCompile(`\b(ryzen|r[3579])\s*\d{4}`)
	phoneTypePattern   = regexp.MustCompile(`\b(iphone|ipad|galaxy|pixel)\b`)
	consoleTypePattern = regexp.MustCompile(`\b(ps[45]|playstation|xbox|switch)\b`)
	monitorTypePattern = regexp.MustCompile(`\b(écran|moniteur|monitor)\b`)
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"le", "la", "les", "de", "du", "des", "un", "une", "et", "ou", "the", "a", "an",
		"for", "with", "très", "bon", "état", "neuf", "occasion", "comme", "parfait",
		"excellent", "good", "great", "new", "used", "etat", "tbe", "ttbe", "lga",
		"socket", "processeur", "processor", "core",
	} {
		stopWords[w] = struct{}{}
	}
}

var (
	numberTokenPattern = regexp.MustCompile(`\b\d{4,5}[a-z]*\b`)
	nonWordPattern     = regexp.MustCompile(`[^\w\s\-]`)
	spacesPattern      = regexp.MustCompile(`\s+`)
	currencyPattern    = regexp.MustCompile(`\d+[,.]?\d*\s*€`)
)

// Extract derives a QueryDescriptor from a raw listing title. It is pure
// and total: an empty title yields an empty descriptor.
func Extract(title string) internal.QueryDescriptor {
	desc := internal.QueryDescriptor{
		ProductType: internal.ProductOther,
		Numbers:     []string{},
		Keywords:    []string{},
		Original:    title,
	}
	if strings.TrimSpace(title) == "" {
		return desc
	}

	normalized := Normalize(title)

	for _, pattern := range modelPatterns {
		if match := pattern.FindString(normalized); match != "" {
			desc.Model = strings.TrimSpace(spacesPattern.ReplaceAllString(match, " "))
			break
		}
	}
	if desc.Model == "" {
		if m := cpuFallbackPattern.FindStringSubmatch(normalized); m != nil {
			desc.Model = strings.TrimSpace("i" + m[1] + " " + m[2] + m[3])
		}
	}

	seen := map[string]struct{}{}
	for _, n := range numberTokenPattern.FindAllString(normalized, -1) {
		n = strings.ToLower(n)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		desc.Numbers = append(desc.Numbers, n)
	}

	if intelSeriesPattern.MatchString(normalized) {
		desc.Brand = "intel"
	} else {
		for _, b := range knownBrands {
			if strings.Contains(normalized, b) {
				desc.Brand = b
				break
			}
		}
	}

	desc.ProductType = classify(normalized)

	for _, w := range strings.Fields(nonWordPattern.ReplaceAllString(normalized, " ")) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		desc.Keywords = append(desc.Keywords, w)
		if len(desc.Keywords) >= maxKeywords {
			break
		}
	}

	desc.SearchQuery = buildSearchQuery(desc, normalized)
	return desc
}

// Normalize applies the ordered rewrite rules to a lowercased title.
// Exposed so the rules can be exercised one by one in tests.
func Normalize(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	for _, rule := range normalizeRules {
		s = rule.pattern.ReplaceAllString(s, rule.replacement)
	}
	return strings.TrimSpace(s)
}

func classify(normalized string) internal.ProductType {
	switch {
	case gpuTypePattern.MatchString(normalized):
		return internal.ProductGPU
	case cpuTypePattern.MatchString(normalized) || cpuAmdTypePattern.MatchString(normalized):
		return internal.ProductCPU
	case phoneTypePattern.MatchString(normalized):
		return internal.ProductPhone
	case consoleTypePattern.MatchString(normalized):
		return internal.ProductConsole
	case monitorTypePattern.MatchString(normalized):
		return internal.ProductMonitor
	default:
		return internal.ProductOther
	}
}

func buildSearchQuery(desc internal.QueryDescriptor, normalized string) string {
	query := desc.Model
	if query == "" && len(desc.Keywords) > 0 {
		limit := len(desc.Keywords)
		if limit > 5 {
			limit = 5
		}
		query = strings.Join(desc.Keywords[:limit], " ")
	}
	if query == "" {
		query = normalized
	}

	if desc.Brand != "" && !strings.Contains(strings.ToLower(query), desc.Brand) {
		query = desc.Brand + " " + query
	}

	query = currencyPattern.ReplaceAllString(query, "")
	query = nonWordPattern.ReplaceAllString(query, " ")
	query = strings.TrimSpace(spacesPattern.ReplaceAllString(query, " "))

	// A title made of pure punctuation would clean down to nothing;
	// fall back to the normalized text so the query stays non-empty.
	if query == "" {
		query = normalized
	}
	if runes := []rune(query); len(runes) > maxQueryLen {
		query = strings.TrimSpace(string(runes[:maxQueryLen]))
	}
	return query
}
