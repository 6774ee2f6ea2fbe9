package internal

type ProductType string

const (
	ProductGPU     ProductType = "gpu"
	ProductCPU     ProductType = "cpu"
	ProductPhone   ProductType = "phone"
	ProductConsole ProductType = "console"
	ProductMonitor ProductType = "monitor"
	ProductOther   ProductType = "other"
)

// QueryDescriptor is the structured form of a free-text listing title.
// Model and Brand are empty when nothing was detected.
type QueryDescriptor struct {
	Model       string      `json:"model"`
	Brand       string      `json:"brand"`
	ProductType ProductType `json:"productType"`
	Numbers     []string    `json:"numbers"`
	Keywords    []string    `json:"keywords"`
	SearchQuery string      `json:"searchQuery"`
	Original    string      `json:"original"`
}

// RawListing is one candidate offer returned by a marketplace search.
type RawListing struct {
	Price    float64 `json:"price"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Image    string  `json:"image,omitempty"`
	Platform string  `json:"platform"`
}

// ScoredListing carries the relevance score next to the listing.
// A score of -1 marks a hard exclusion, distinct from a legitimate 0.
type ScoredListing struct {
	RawListing
	RelevanceScore int `json:"relevanceScore"`
}

// SourceResult is the raw outcome of one marketplace search.
// Success is true iff at least one positive-price listing was extracted.
type SourceResult struct {
	Source   string       `json:"source"`
	Prices   []RawListing `json:"prices"`
	AvgPrice float64      `json:"avgPrice"`
	MinPrice float64      `json:"minPrice"`
	MaxPrice float64      `json:"maxPrice"`
	Count    int          `json:"count"`
	Success  bool         `json:"success"`
	Error    string       `json:"error,omitempty"`
}

// SourceStats is the per-marketplace contribution to the pooled estimate,
// recomputed over the relevance-filtered subset.
type SourceStats struct {
	Name  string  `json:"name"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

type OccasionPrice struct {
	Available bool          `json:"available"`
	Avg       float64       `json:"avg"`
	Min       float64       `json:"min"`
	Max       float64       `json:"max"`
	Count     int           `json:"count"`
	Sources   []SourceStats `json:"sources"`
}

// SourceBreakdown keeps both the raw and the filtered view of one source
// so callers can see how much the relevance filter removed.
type SourceBreakdown struct {
	Source        string          `json:"source"`
	Success       bool            `json:"success"`
	Error         string          `json:"error,omitempty"`
	Prices        []ScoredListing `json:"prices"`
	OriginalCount int             `json:"originalCount"`
	FilteredCount int             `json:"filteredCount"`
}

type AggregatedPriceData struct {
	Query         string                     `json:"query"`
	Descriptor    QueryDescriptor            `json:"searchKeywords"`
	OccasionPrice OccasionPrice              `json:"occasionPrice"`
	RawResults    map[string]SourceBreakdown `json:"rawResults"`
}

type VsOccasion struct {
	Available      bool    `json:"available"`
	AvgMarketPrice float64 `json:"avgMarketPrice"`
	Difference     float64 `json:"difference"`
	PercentDiff    int     `json:"percentDiff"`
	Verdict        string  `json:"verdict"`
}

type ProfitabilityResult struct {
	CurrentPrice   float64    `json:"currentPrice"`
	VsOccasion     VsOccasion `json:"vsOccasion"`
	DealScore      int        `json:"dealScore"`
	DealRating     string     `json:"dealRating"`
	Recommendation string     `json:"recommendation"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Summary is the flattened, UI-facing view of one analysis.
type Summary struct {
	CurrentPrice     float64         `json:"currentPrice"`
	AverageUsedPrice float64         `json:"averageUsedPrice"`
	Profit           float64         `json:"profit"`
	Discount         int             `json:"discount"`
	Rating           string          `json:"rating"`
	RatingLabel      string          `json:"ratingLabel"`
	DealScore        int             `json:"dealScore"`
	Confidence       string          `json:"confidence"`
	DataPoints       int             `json:"dataPoints"`
	SourcesUsed      []string        `json:"sourcesUsed"`
	PriceRange       PriceRange      `json:"priceRange"`
	Listings         []ScoredListing `json:"usedSources"`
	Recommendation   string          `json:"recommendation"`
	SearchQuery      string          `json:"searchQuery"`
}

type ProductInfo struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

type Analysis struct {
	Product       ProductInfo         `json:"product"`
	Prices        AggregatedPriceData `json:"prices"`
	Profitability ProfitabilityResult `json:"profitability"`
	Summary       Summary             `json:"summary"`
	Timestamp     int64               `json:"timestamp"`
}

// AnalysisRow is one persisted history entry.
type AnalysisRow struct {
	ID             int
	Title          string
	Price          float64
	Query          string
	ProductType    string
	MarketAvg      float64
	MarketMin      float64
	MarketMax      float64
	DataPoints     int
	DealScore      int
	DealRating     string
	Recommendation string
	ResultJSON     string
	CreatedAt      string
}

type HistoryStats struct {
	TotalAnalyses  int
	AvgDealScore   float64
	BestDealScore  int
	BestDealTitle  string
	LastAnalyzedAt string
}

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

// AlertListing is one listing lifted out of a marketplace alert email.
type AlertListing struct {
	Platform string
	Title    string
	Price    float64
	URL      string
}
