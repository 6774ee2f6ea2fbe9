package alertmail

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"

	"pricescout/internal"
	"pricescout/internal/sources"
)

type DetectResult struct {
	IsAlert  bool
	Score    float64
	Platform string
	Reason   string
}

// Sender domains map straight to a platform; subject keywords only add
// to the confidence score.
var platformDomains = map[string]string{
	"vinted":    "Vinted",
	"leboncoin": "LeBonCoin",
	"ebay":      "eBay",
}

var alertKeywords = []string{
	"nouvelle annonce", "nouvelles annonces", "new listing", "new items",
	"alerte", "alert", "recherche sauvegardée", "saved search",
	"correspond à votre recherche", "matches your search",
}

// DetectAlert decides whether a message is a marketplace search alert
// worth mining for listings.
func DetectAlert(subject, sender, text, html string) DetectResult {
	subject = strings.ToLower(subject)
	sender = strings.ToLower(sender)
	text = strings.ToLower(text)
	html = strings.ToLower(html)

	score := 0.0
	platform := ""
	for domain, name := range platformDomains {
		if strings.Contains(sender, domain) {
			score += 0.5
			platform = name
			break
		}
	}
	if platform == "" {
		for domain, name := range platformDomains {
			if strings.Contains(subject, domain) {
				score += 0.2
				platform = name
				break
			}
		}
	}

	for _, kw := range alertKeywords {
		if strings.Contains(subject, kw) {
			score += 0.3
		}
		if strings.Contains(text, kw) || strings.Contains(html, kw) {
			score += 0.1
		}
	}

	if strings.Contains(html, "€") || strings.Contains(text, "€") {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}

	isAlert := score >= 0.5 && platform != ""
	reason := "rules_negative"
	if isAlert {
		reason = "rules_positive"
	}
	return DetectResult{IsAlert: isAlert, Score: score, Platform: platform, Reason: reason}
}

// ExtractListings parses one raw RFC 5322 message and lifts out the
// advertised listings. The HTML part is the primary source; the plain
// text part is the fallback.
func ExtractListings(raw []byte) ([]internal.AlertListing, string, string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, "", "", err
	}

	subject := env.GetHeader("Subject")
	sender := env.GetHeader("From")
	detected := DetectAlert(subject, sender, env.Text, env.HTML)
	if !detected.IsAlert {
		return []internal.AlertListing{}, subject, sender, nil
	}

	listings := []internal.AlertListing{}
	if env.HTML != "" {
		listings = append(listings, parseAlertHTML(env.HTML, detected.Platform)...)
	}
	if len(listings) == 0 && env.Text != "" {
		listings = append(listings, parseAlertText(env.Text, detected.Platform)...)
	}

	return dedupeListings(listings), subject, sender, nil
}

// parseAlertHTML walks anchors that wrap both a title and a price,
// the layout every marketplace digest shares.
func parseAlertHTML(html, platform string) []internal.AlertListing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	out := []internal.AlertListing{}
	doc.Find("a").Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		text := normalizeSpaces(anchor.Text())
		if href == "" || text == "" {
			return
		}

		m := priceInTextPattern.FindStringSubmatch(text)
		if m == nil {
			return
		}
		price := sources.ParsePrice(m[1])
		if price <= 0 {
			return
		}

		title := normalizeSpaces(strings.Replace(text, m[0], "", 1))
		if title == "" {
			return
		}
		out = append(out, internal.AlertListing{
			Platform: platform,
			Title:    title,
			Price:    price,
			URL:      href,
		})
	})
	return out
}

var priceInTextPattern = regexp.MustCompile(`(\d{1,4}(?:\s?\d{3})*(?:[.,]\d{1,2})?)\s*€`)

// parseAlertText treats every line holding both letters and a price as
// one listing.
func parseAlertText(text, platform string) []internal.AlertListing {
	out := []internal.AlertListing{}
	for _, line := range splitLines(text) {
		m := priceInTextPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		price := sources.ParsePrice(m[1])
		if price <= 0 {
			continue
		}
		title := normalizeSpaces(strings.Replace(line, m[0], "", 1))
		if len([]rune(title)) < 4 || !hasLetterPattern.MatchString(title) {
			continue
		}
		out = append(out, internal.AlertListing{
			Platform: platform,
			Title:    title,
			Price:    price,
		})
	}
	return out
}

var hasLetterPattern = regexp.MustCompile(`[A-Za-zÀ-ÿ]`)

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeSpaces(input string) string {
	return strings.TrimSpace(spacesPattern.ReplaceAllString(input, " "))
}

var spacesPattern = regexp.MustCompile(`\s+`)

func dedupeListings(listings []internal.AlertListing) []internal.AlertListing {
	seen := map[string]struct{}{}
	out := make([]internal.AlertListing, 0, len(listings))
	for _, l := range listings {
		key := l.Title + "|" + l.URL
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}
