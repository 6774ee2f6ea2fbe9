package profit

import (
	"math"
	"sort"

	"pricescout/internal"
)

// Deal rating labels, keyed by the dealScore bands below.
const (
	RatingExceptional  = "exceptional deal"
	RatingGood         = "good deal"
	RatingFair         = "fair price"
	RatingHigh         = "high price"
	RatingTooExpensive = "too expensive"
	RatingInsufficient = "insufficient data"
)

// Evaluate compares the listed price against the pooled market estimate.
// With no market data the score stays at the neutral 50 and the rating
// reports insufficient data. Pure and total.
func Evaluate(currentPrice float64, prices internal.AggregatedPriceData) internal.ProfitabilityResult {
	result := internal.ProfitabilityResult{
		CurrentPrice: currentPrice,
		VsOccasion: internal.VsOccasion{
			Available:      prices.OccasionPrice.Available,
			AvgMarketPrice: prices.OccasionPrice.Avg,
		},
	}

	if prices.OccasionPrice.Available && prices.OccasionPrice.Avg > 0 {
		result.VsOccasion.Difference = prices.OccasionPrice.Avg - currentPrice
		result.VsOccasion.PercentDiff = int(math.Round(result.VsOccasion.Difference / prices.OccasionPrice.Avg * 100))

		switch {
		case result.VsOccasion.PercentDiff >= 20:
			result.VsOccasion.Verdict = "excellent"
		case result.VsOccasion.PercentDiff >= 10:
			result.VsOccasion.Verdict = "good"
		case result.VsOccasion.PercentDiff >= 0:
			result.VsOccasion.Verdict = "fair"
		case result.VsOccasion.PercentDiff >= -10:
			result.VsOccasion.Verdict = "high"
		default:
			result.VsOccasion.Verdict = "overpriced"
		}
	}

	score := 50.0
	if result.VsOccasion.Available {
		score += float64(result.VsOccasion.PercentDiff) * 2
	}
	result.DealScore = int(math.Round(math.Max(0, math.Min(100, score))))

	switch {
	case !result.VsOccasion.Available:
		result.DealRating = RatingInsufficient
		result.Recommendation = "Not enough data to evaluate"
	case result.DealScore >= 80:
		result.DealRating = RatingExceptional
		result.Recommendation = "Buy immediately"
	case result.DealScore >= 65:
		result.DealRating = RatingGood
		result.Recommendation = "Attractive price, worth grabbing"
	case result.DealScore >= 50:
		result.DealRating = RatingFair
		result.Recommendation = "In line with the market"
	case result.DealScore >= 35:
		result.DealRating = RatingHigh
		result.Recommendation = "Negotiate or look elsewhere"
	default:
		result.DealRating = RatingTooExpensive
		result.Recommendation = "Avoid, well above market price"
	}

	return result
}

// BuildSummary flattens one analysis into the UI-facing view: rating
// band, confidence level, and every retained listing sorted cheapest
// first.
func BuildSummary(product internal.ProductInfo, prices internal.AggregatedPriceData, profitability internal.ProfitabilityResult) internal.Summary {
	rating := "fair"
	ratingLabel := RatingFair
	switch {
	case !profitability.VsOccasion.Available:
		rating = "unknown"
		ratingLabel = RatingInsufficient
	case profitability.DealScore >= 80:
		rating = "excellent"
		ratingLabel = RatingExceptional
	case profitability.DealScore >= 65:
		rating = "good"
		ratingLabel = RatingGood
	case profitability.DealScore >= 50:
		rating = "fair"
		ratingLabel = RatingFair
	case profitability.DealScore >= 35:
		rating = "overpriced"
		ratingLabel = RatingHigh
	default:
		rating = "overpriced"
		ratingLabel = RatingTooExpensive
	}

	confidence := "none"
	dataPoints := prices.OccasionPrice.Count
	sourceCount := len(prices.OccasionPrice.Sources)
	switch {
	case dataPoints >= 15 && sourceCount >= 2:
		confidence = "high"
	case dataPoints >= 5 || sourceCount >= 1:
		confidence = "medium"
	case dataPoints > 0:
		confidence = "low"
	}

	sourcesUsed := make([]string, 0, sourceCount)
	for _, s := range prices.OccasionPrice.Sources {
		sourcesUsed = append(sourcesUsed, s.Name)
	}

	// Map order is randomized; walk sources in name order so equal-price
	// listings land deterministically.
	sourceKeys := make([]string, 0, len(prices.RawResults))
	for key := range prices.RawResults {
		sourceKeys = append(sourceKeys, key)
	}
	sort.Strings(sourceKeys)

	listings := []internal.ScoredListing{}
	for _, key := range sourceKeys {
		listings = append(listings, prices.RawResults[key].Prices...)
	}
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].Price < listings[j].Price
	})

	return internal.Summary{
		CurrentPrice:     product.Price,
		AverageUsedPrice: prices.OccasionPrice.Avg,
		Profit:           profitability.VsOccasion.Difference,
		Discount:         profitability.VsOccasion.PercentDiff,
		Rating:           rating,
		RatingLabel:      ratingLabel,
		DealScore:        profitability.DealScore,
		Confidence:       confidence,
		DataPoints:       dataPoints,
		SourcesUsed:      sourcesUsed,
		PriceRange:       internal.PriceRange{Min: prices.OccasionPrice.Min, Max: prices.OccasionPrice.Max},
		Listings:         listings,
		Recommendation:   profitability.Recommendation,
		SearchQuery:      prices.Query,
	}
}
