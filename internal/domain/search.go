package domain

// SearchQuery is one page request against a supplier catalog.
type SearchQuery struct {
	Category string
	MinPrice float64
	MaxPrice float64
	Country  string
	Page     int
	PageSize int
}

// SearchPage is one page of supplier results.
type SearchPage struct {
	Items []Candidate
	Total int
}

// FetchBatch aggregates candidates across suppliers and categories.
// Attempts counts supplier/category pairs; Failures holds the ones that failed.
type FetchBatch struct {
	Candidates []Candidate
	Failures   []*FetchError
	Attempts   int
}

// TotalFailure reports whether every attempted category failed.
func (b FetchBatch) TotalFailure() bool {
	return b.Attempts > 0 && len(b.Failures) >= b.Attempts
}
