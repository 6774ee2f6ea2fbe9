package relevance

import (
	"math"
	"regexp"
	"strings"

	"pricescout/internal"
)

// Excluded is the sentinel score for hard-excluded listings. It is distinct
// from a legitimate score of 0 and never reaches aggregation.
const Excluded = -1

// Phrases that disqualify a listing whatever the searched product is:
// bundle sales, wanted/exchange posts, buy requests.
var alwaysExclude = []string{
	"lot de", "pack de", "bundle", "kit complet",
	"tout inclus", "prêt à jouer", "pret a jouer",
	"recherche", "cherche", "échange", "echange", "troc",
	"achat", "achète", "achete",
}

// Whole-machine phrasing. A GPU or CPU search matching a full PC listing
// would pull the machine's price into the part's estimate.
var gpuExclusions = []string{
	"pc gamer", "pc gaming", "pc complet", "pc fixe", "ordinateur",
	"tour complète", "tour complete", "config", "configuration",
	"setup complet", "setup gaming", "desktop",
	"unité centrale", "unite centrale",
	"laptop", "portable", "notebook", "ultrabook", "macbook",
}

var cpuExclusions = []string{
	"pc gamer", "pc gaming", "pc complet", "pc fixe", "ordinateur",
	"tour complète", "tour complete", "config complète", "configuration",
	"setup complet", "desktop complet", "pc de bureau", "pc bureau",
	"laptop", "portable", "notebook",
	"unité centrale", "unite centrale",
}

var phoneExclusions = []string{
	"coque", "etui", "protection", "chargeur seul", "câble",
	"pièces", "pieces", "pour pièces", "hs", "bloqué", "bloque",
	"ecran seul", "écran seul", "batterie seule",
}

var consoleExclusions = []string{
	"jeu ", "jeux ", "manette seule", "controller",
	"pour pièces", "hs", "en panne",
}

var (
	cpuTokenPattern   = regexp.MustCompile(`\b(i[3579]|ryzen\s*[3579]|r[3579]|core)[-\s]*\d{4,5}\b`)
	gpuTokenPattern   = regexp.MustCompile(`\b(rtx|gtx|rx|radeon|geforce)\s*\d{3,4}`)
	ramPattern        = regexp.MustCompile(`\b\d+\s*go?\s*(de\s*)?(ram|ddr)`)
	storagePattern    = regexp.MustCompile(`\b\d+\s*(to|tb|go|gb)\s*(ssd|hdd|nvme)`)
	pcWordPattern     = regexp.MustCompile(`^pc\s|\spc\s`)
	multiPlusPattern = regexp.MustCompile(`\+.*\+`)
	mainboardPattern = regexp.MustCompile(`carte\s*m[eè]re|motherboard|mobo`)
)

// Score rates how well a candidate listing matches the searched product.
// It returns Excluded, or a value in [0,100] normalized against the
// signals actually present in the descriptor. Deterministic and pure.
func Score(listing internal.RawListing, query internal.QueryDescriptor) int {
	title := strings.ToLower(listing.Title)

	for _, phrase := range alwaysExclude {
		if strings.Contains(title, phrase) {
			return Excluded
		}
	}
	if excludedForType(title, query.ProductType) {
		return Excluded
	}

	score := 0.0
	maxScore := 0.0

	if query.Model != "" {
		maxScore += 50
		modelCompact := strings.ToLower(strings.ReplaceAll(query.Model, " ", ""))
		titleCompact := strings.ReplaceAll(title, " ", "")
		if strings.Contains(titleCompact, modelCompact) || strings.Contains(title, strings.ToLower(query.Model)) {
			score += 50
		}
	}

	if len(query.Numbers) > 0 {
		maxScore += 30
		found := 0
		for _, num := range query.Numbers {
			pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(num) + `\b`)
			if err == nil && pattern.MatchString(title) {
				found++
			}
		}
		score += float64(found) / float64(len(query.Numbers)) * 30
	}

	if query.Brand != "" {
		maxScore += 10
		if strings.Contains(title, query.Brand) {
			score += 10
		}
	}

	if len(query.Keywords) > 0 {
		maxScore += 10
		limit := len(query.Keywords)
		if limit > 5 {
			limit = 5
		}
		found := 0
		for _, kw := range query.Keywords[:limit] {
			if strings.Contains(title, kw) {
				found++
			}
		}
		score += float64(found) / float64(limit) * 10
	}

	if maxScore == 0 {
		return 0
	}
	return int(math.Round(score / maxScore * 100))
}

func excludedForType(title string, productType internal.ProductType) bool {
	switch productType {
	case internal.ProductGPU:
		for _, phrase := range gpuExclusions {
			if strings.Contains(title, phrase) {
				return true
			}
		}
		// A CPU model token or bundled RAM/storage capacity next to the
		// searched GPU means a multi-component listing.
		if cpuTokenPattern.MatchString(title) {
			return true
		}
		if ramPattern.MatchString(title) || storagePattern.MatchString(title) {
			return true
		}
	case internal.ProductCPU:
		for _, phrase := range cpuExclusions {
			if strings.Contains(title, phrase) {
				return true
			}
		}
		if pcWordPattern.MatchString(title) {
			return true
		}
		if gpuTokenPattern.MatchString(title) {
			return true
		}
		if ramPattern.MatchString(title) || storagePattern.MatchString(title) {
			return true
		}
		if multiPlusPattern.MatchString(title) {
			return true
		}
		if mainboardPattern.MatchString(title) {
			return true
		}
	case internal.ProductPhone:
		for _, phrase := range phoneExclusions {
			if strings.Contains(title, phrase) {
				return true
			}
		}
	case internal.ProductConsole:
		for _, phrase := range consoleExclusions {
			if strings.Contains(title, phrase) {
				return true
			}
		}
	}
	return false
}
