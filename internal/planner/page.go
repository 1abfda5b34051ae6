package planner

// DefaultPageSize is the fallback page size for feed listings.
const DefaultPageSize = 10

// MaxPageSize caps the page size a client may request.
const MaxPageSize = 50

// Page is a normalized offset-pagination window.
type Page struct {
	Number int
	Limit  int
}

// NormalizePage clamps raw pagination arguments into a valid window.
func NormalizePage(number, limit int) Page {
	if number < 1 {
		number = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Page{Number: number, Limit: limit}
}

// Offset returns the row offset for the window.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// PageInfo is the pagination envelope returned with every list response.
type PageInfo struct {
	CurrentPage     int
	TotalPages      int
	TotalCount      int
	HasNextPage     bool
	HasPreviousPage bool
}

// NewPageInfo computes the envelope for a window over totalCount rows.
func NewPageInfo(p Page, totalCount int) PageInfo {
	totalPages := 0
	if totalCount > 0 {
		totalPages = (totalCount + p.Limit - 1) / p.Limit
	}
	return PageInfo{
		CurrentPage:     p.Number,
		TotalPages:      totalPages,
		TotalCount:      totalCount,
		HasNextPage:     p.Number < totalPages,
		HasPreviousPage: p.Number > 1,
	}
}

// EmptyPageInfo is the envelope for a listing that short-circuits to no
// rows, e.g. a follow-graph feed with nothing followed.
func EmptyPageInfo() PageInfo {
	return PageInfo{CurrentPage: 1}
}
