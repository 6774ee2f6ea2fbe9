package relevance

import (
	"sort"

	"pricescout/internal"
)

// Filter scores every listing against the descriptor, drops hard
// exclusions and anything under minScore, and returns the survivors
// sorted by descending score. Ties keep their input order.
func Filter(listings []internal.RawListing, query internal.QueryDescriptor, minScore int) []internal.ScoredListing {
	if len(listings) == 0 {
		return []internal.ScoredListing{}
	}

	out := make([]internal.ScoredListing, 0, len(listings))
	for _, listing := range listings {
		score := Score(listing, query)
		if score == Excluded || score < minScore {
			continue
		}
		out = append(out, internal.ScoredListing{RawListing: listing, RelevanceScore: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	return out
}
