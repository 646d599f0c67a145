package catalog

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// PageSize is the fixed number of products per catalog page.
const PageSize = 20

// ErrBadPage indicates an unparseable page parameter. Handlers redirect to
// the unfiltered listing instead of failing the request.
var ErrBadPage = errors.New("catalog: invalid page parameter")

// Filter describes optional catalog constraints. Zero values mean "not set".
// The published/saleable/audience-present restriction is always applied on
// top of the filter.
type Filter struct {
	Audience string
	Brand    string
	Color    string
	Size     string
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Page     int
}

// ParseFilter builds a Filter from request query values. Out-of-enum
// audience and size values are dropped, malformed prices are ignored, and a
// malformed page returns ErrBadPage.
func ParseFilter(values url.Values) (Filter, error) {
	f := Filter{Page: 1}

	if audience := strings.TrimSpace(values.Get("target_audience")); ValidAudience(audience) {
		f.Audience = audience
	}
	f.Brand = strings.TrimSpace(values.Get("brand"))
	f.Color = strings.TrimSpace(values.Get("color"))
	if size := strings.ToLower(strings.TrimSpace(values.Get("size"))); ValidSize(size) {
		f.Size = size
	}
	f.Search = strings.TrimSpace(values.Get("search"))

	if raw := strings.TrimSpace(values.Get("min_price")); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 {
			f.MinPrice = &v
		}
	}
	if raw := strings.TrimSpace(values.Get("max_price")); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 {
			f.MaxPrice = &v
		}
	}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return Filter{}, ErrBadPage
		}
		if page < 1 {
			page = 1
		}
		f.Page = page
	}

	return f, nil
}
