package domain

// SearchFilters holds the optional structured constraints of a search. The
// zero value means unfiltered.
type SearchFilters struct {
	Colors      []string `json:"colors,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	MinPrice    *float64 `json:"min_price,omitempty"`
	MaxPrice    *float64 `json:"max_price,omitempty"`
	BeltType    string   `json:"belt_type,omitempty"`
	CategoryKey string   `json:"category_key,omitempty"`
	AICategory  string   `json:"ai_category,omitempty"`
}

// IsEmpty reports whether no filter is set.
func (f SearchFilters) IsEmpty() bool {
	return len(f.Colors) == 0 && f.Brand == "" && f.MinPrice == nil && f.MaxPrice == nil &&
		f.BeltType == "" && f.CategoryKey == "" && f.AICategory == ""
}

// SearchResult is the projection of a product returned to callers. Score is
// set only by vector and hybrid search and lies in [0,1].
type SearchResult struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Brand        string   `json:"brand,omitempty"`
	Price        Price    `json:"price"`
	URL          string   `json:"url"`
	ImageURLs    []string `json:"image_urls"`
	Category     string   `json:"category,omitempty"`
	CategoryKey  string   `json:"category_key,omitempty"`
	Colors       []string `json:"colors,omitempty"`
	Styles       []string `json:"styles,omitempty"`
	Materials    []string `json:"materials,omitempty"`
	BeltType     string   `json:"belt_type,omitempty"`
	AICategory   string   `json:"ai_category,omitempty"`
	GenderTarget string   `json:"ai_gender_target,omitempty"`
	Description  string   `json:"description,omitempty"`
	Score        float64  `json:"score,omitempty"`
}

// NewSearchResult projects p with the given relevance score.
func NewSearchResult(p *Product, score float64) SearchResult {
	images := p.ImageURLs
	if images == nil {
		images = []string{}
	}
	return SearchResult{
		ID:           p.ID,
		Name:         p.Name,
		Brand:        p.Brand,
		Price:        p.Price,
		URL:          p.URL,
		ImageURLs:    images,
		Category:     p.Category,
		CategoryKey:  p.CategoryKey,
		Colors:       p.Colors,
		Styles:       p.Styles,
		Materials:    p.Materials,
		BeltType:     p.BeltType,
		AICategory:   p.AICategory,
		GenderTarget: p.GenderTarget,
		Description:  p.Description,
		Score:        score,
	}
}

// Results is one page of a keyword or range search. Total is the size of the
// full result set, capped at the service's pool size.
type Results struct {
	Items []SearchResult `json:"items"`
	Total int            `json:"total_found"`
}

// KeywordQuery is a name search optionally scoped by category and price.
type KeywordQuery struct {
	Query       string   `json:"query"`
	MaxResults  int      `json:"max_results"`
	Offset      int      `json:"offset,omitempty"`
	CategoryKey string   `json:"category_key,omitempty"`
	MinPrice    *float64 `json:"min_price,omitempty"`
	MaxPrice    *float64 `json:"max_price,omitempty"`
}

// RangeQuery selects a category by inclusive price bounds.
type RangeQuery struct {
	CategoryKey string  `json:"category_key"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	MaxResults  int     `json:"max_results"`
	Offset      int     `json:"offset,omitempty"`
}

// IndexStats summarizes embedding coverage of the catalog.
type IndexStats struct {
	Total      int64   `json:"total_products"`
	Indexed    int64   `json:"indexed_products"`
	Percentage float64 `json:"indexing_percentage"`
}

// NewIndexStats computes the percentage, rounded to two decimals.
func NewIndexStats(total, indexed int64) IndexStats {
	s := IndexStats{Total: total, Indexed: indexed}
	if total > 0 {
		s.Percentage = float64(int64(float64(indexed)/float64(total)*10000+0.5)) / 100
	}
	return s
}

// Float64 returns a pointer to v, for optional price bounds.
func Float64(v float64) *float64 {
	return &v
}
