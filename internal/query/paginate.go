package query

import "github.com/tripnest/catalog/internal/domain"

const (
	DefaultPageSize     = 9
	DefaultRoomPageSize = 6
	MaxPageSize         = 100
)

// TotalPages is ceil(total/pageSize), never less than one: an empty result
// is still "page 1 of 1".
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage moves an out-of-range page to the nearest valid one.
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate returns the 1-indexed page of sorted. Pages outside the data are
// clamped rather than returned empty. The result never aliases sorted.
func Paginate(sorted []domain.ListingRecord, page, pageSize int) []domain.ListingRecord {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page = ClampPage(page, TotalPages(len(sorted), pageSize))

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(sorted))
	if start >= end {
		return []domain.ListingRecord{}
	}
	out := make([]domain.ListingRecord, end-start)
	copy(out, sorted[start:end])
	return out
}
