package discovery

const (
	// DefaultPageSize applies when a caller does not ask for a size.
	DefaultPageSize = 20
	// MaxPageSize caps every paginated discovery listing.
	MaxPageSize = 100
	// MaxRecommendationPageSize caps personalised listings and the home feed.
	MaxRecommendationPageSize = 50
	// DefaultTrendingSize is the trending list size when none is requested.
	DefaultTrendingSize = 10
	// DefaultHomeSectionSize is the per-section size of the home feed.
	DefaultHomeSectionSize = 6
	// featuredSize bounds each tier of the featured fallback chain.
	featuredSize = 20
)

// ClampLimit applies the pagination policy: a non-positive limit becomes def
// and anything above max becomes max.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// ClampOffset turns negative offsets into 0.
func ClampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
