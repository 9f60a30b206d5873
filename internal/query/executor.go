package query

import (
	"github.com/tripnest/catalog/internal/domain"
)

// Execute runs filter, search, sort and paginate over already normalized
// records, in that fixed order. It keeps no state between calls and never
// fails: bad query combinations degrade to an empty or clamped page.
func Execute(records []domain.ListingRecord, q domain.QueryState, desc Descriptor) domain.Page {
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = desc.PageSize
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageSize = min(pageSize, MaxPageSize)

	keep := BuildPredicate(q, desc)
	search := SearchPredicate(q.SearchQuery)

	matched := make([]domain.ListingRecord, 0, len(records))
	for _, r := range records {
		if keep(r) && search(r) {
			matched = append(matched, r)
		}
	}
	matched = Sort(matched, ComparatorFor(q.SortKey, desc))

	totalPages := TotalPages(len(matched), pageSize)
	current := ClampPage(q.Page, totalPages)

	return domain.Page{
		Items:       Paginate(matched, current, pageSize),
		TotalCount:  len(matched),
		TotalPages:  totalPages,
		CurrentPage: current,
		PageSize:    pageSize,
	}
}
