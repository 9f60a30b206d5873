package query

import (
	"cmp"
	"math"
	"slices"
	"strconv"

	"github.com/tripnest/catalog/internal/domain"
)

// Comparator orders two records: negative when a goes first.
type Comparator func(a, b domain.ListingRecord) int

func keepOrder(domain.ListingRecord, domain.ListingRecord) int { return 0 }

// ComparatorFor returns the comparator registered under key. Unknown keys,
// and keys the descriptor cannot resolve, keep the input order. Every
// comparator is used with a stable sort, so remaining ties keep input order.
func ComparatorFor(key domain.SortKey, desc Descriptor) Comparator {
	switch key {
	case domain.SortRating:
		return func(a, b domain.ListingRecord) int {
			if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
				return c
			}
			return cmp.Compare(b.ReviewCount, a.ReviewCount)
		}
	case domain.SortPriceLow:
		if desc.Price == nil {
			return keepOrder
		}
		return func(a, b domain.ListingRecord) int {
			return cmp.Compare(desc.Price(a), desc.Price(b))
		}
	case domain.SortPriceHigh:
		if desc.Price == nil {
			return keepOrder
		}
		return func(a, b domain.ListingRecord) int {
			return cmp.Compare(desc.Price(b), desc.Price(a))
		}
	case domain.SortNewest:
		return newestFirst
	case domain.SortCapacity:
		if desc.Capacity == nil {
			return keepOrder
		}
		return func(a, b domain.ListingRecord) int {
			return cmp.Compare(desc.Capacity(b), desc.Capacity(a))
		}
	}
	return keepOrder
}

// newestFirst orders numeric ids descending. Non-numeric ids sort after the
// numeric ones and keep their relative order.
func newestFirst(a, b domain.ListingRecord) int {
	an, aok := numericID(a.ID)
	bn, bok := numericID(b.ID)
	switch {
	case aok && bok:
		return cmp.Compare(bn, an)
	case aok:
		return -1
	case bok:
		return 1
	}
	return 0
}

func numericID(id string) (float64, bool) {
	n, err := strconv.ParseFloat(id, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// Sort returns a stably sorted copy of records.
func Sort(records []domain.ListingRecord, c Comparator) []domain.ListingRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, c)
	return out
}
