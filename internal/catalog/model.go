package catalog

import "time"

// TargetAudience classifies who a fashion product is made for.
type TargetAudience string

const (
	AudienceMen      TargetAudience = "men"
	AudienceWomen    TargetAudience = "women"
	AudienceChildren TargetAudience = "children"
)

// ValidAudience reports whether s is a known target audience.
func ValidAudience(s string) bool {
	switch TargetAudience(s) {
	case AudienceMen, AudienceWomen, AudienceChildren:
		return true
	}
	return false
}

// Size enumerates clothing sizes.
type Size string

const (
	SizeXS   Size = "xs"
	SizeS    Size = "s"
	SizeM    Size = "m"
	SizeL    Size = "l"
	SizeXL   Size = "xl"
	SizeXXL  Size = "xxl"
	SizeXXXL Size = "xxxl"
)

// Sizes lists the defined clothing sizes in ascending order.
func Sizes() []Size {
	return []Size{SizeXS, SizeS, SizeM, SizeL, SizeXL, SizeXXL, SizeXXXL}
}

// SizeOptions returns the size enum as plain strings for form rendering.
func SizeOptions() []string {
	sizes := Sizes()
	out := make([]string, len(sizes))
	for i, s := range sizes {
		out[i] = string(s)
	}
	return out
}

// ValidSize reports whether s is a known clothing size.
func ValidSize(s string) bool {
	for _, size := range Sizes() {
		if Size(s) == size {
			return true
		}
	}
	return false
}

// Season enumerates fashion seasons.
type Season string

const (
	SeasonSpring    Season = "spring"
	SeasonSummer    Season = "summer"
	SeasonAutumn    Season = "autumn"
	SeasonWinter    Season = "winter"
	SeasonAllSeason Season = "all_season"
)

// Product represents a fashion product entity.
type Product struct {
	ID             int64          `json:"id"`
	Code           string         `json:"code"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Brand          string         `json:"brand"`
	TargetAudience TargetAudience `json:"target_audience"`
	Color          string         `json:"color"`
	Size           Size           `json:"size"`
	Season         Season         `json:"season"`
	Material       string         `json:"material"`
	Price          float64        `json:"price"`
	B2BPrice       float64        `json:"b2b_price"`
	MinStockLevel  float64        `json:"min_stock_level"`
	MaxStockLevel  float64        `json:"max_stock_level"`
	IsPublished    bool           `json:"is_published"`
	IsSaleable     bool           `json:"is_saleable"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Listing is a product row enriched with the derived storefront aggregates.
// Aggregates come from one grouped join, never per-product queries.
type Listing struct {
	Product
	QtyAvailable  float64 `json:"qty_available"`
	ReviewCount   int     `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
	StockStatus   string  `json:"stock_status"`
}

// Facets summarises filter options over the published catalog.
type Facets struct {
	Brands   []string `json:"brands"`
	Colors   []string `json:"colors"`
	MinPrice float64  `json:"min_price"`
	MaxPrice float64  `json:"max_price"`
}

// Suggestion is a single autocomplete hit.
type Suggestion struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Brand string  `json:"brand"`
	Price float64 `json:"price"`
}
