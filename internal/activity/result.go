package activity

// Record is a mapped read result.
//
// This is a sealed interface - only *Activity and *GroupedActivity implement it.
type Record interface {
	recordNode()
}

// GroupedActivity summarizes fact rows sharing the same dimension values.
// It carries no per-row identity; Coordinate and Timestamp are averages.
type GroupedActivity struct {
	Activity
	Count int64 `json:"count"`
}

func (*GroupedActivity) recordNode() {}

// PaginatedResult is one page of query results.
type PaginatedResult struct {
	Results     []Record `json:"results"`
	Total       int64    `json:"total"`
	PerPage     int      `json:"per_page"`
	CurrentPage int      `json:"current_page"`
}

// NewPaginatedResult computes page arithmetic for a result page.
// currentPage is offset/limit + 1; a zero limit yields a single page.
func NewPaginatedResult(results []Record, total int64, offset, limit int) PaginatedResult {
	if results == nil {
		results = []Record{}
	}
	page := 1
	if limit > 0 {
		page = offset/limit + 1
	}
	return PaginatedResult{
		Results:     results,
		Total:       total,
		PerPage:     limit,
		CurrentPage: page,
	}
}

// TotalPages returns the number of pages needed for Total results.
func (p PaginatedResult) TotalPages() int {
	if p.PerPage <= 0 {
		if p.Total == 0 {
			return 0
		}
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// HasNext reports whether a page follows the current one.
func (p PaginatedResult) HasNext() bool {
	return p.CurrentPage < p.TotalPages()
}

// HasPrevious reports whether a page precedes the current one.
func (p PaginatedResult) HasPrevious() bool {
	return p.CurrentPage > 1
}
