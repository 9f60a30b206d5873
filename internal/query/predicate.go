package query

import (
	"strings"

	"github.com/tripnest/catalog/internal/domain"
)

// Predicate decides whether one record stays in the result set.
type Predicate func(domain.ListingRecord) bool

func always(domain.ListingRecord) bool { return true }
func never(domain.ListingRecord) bool  { return false }

// BuildPredicate combines every active filter of q with a logical AND.
// A filter is active only when its field is set; empty filters never reject.
// Filters naming a field the descriptor does not know are ignored.
func BuildPredicate(q domain.QueryState, desc Descriptor) Predicate {
	var preds []Predicate

	if loc := fold(q.LocationFilter); loc != "" {
		preds = append(preds, func(r domain.ListingRecord) bool {
			return strings.Contains(fold(r.Location), loc)
		})
	}

	if pr := q.PriceRange; pr != nil && desc.Price != nil {
		if pr.Min > pr.Max {
			return never
		}
		lo, hi, resolve := pr.Min, pr.Max, desc.Price
		preds = append(preds, func(r domain.ListingRecord) bool {
			p := resolve(r)
			return p >= lo && p <= hi
		})
	}

	for field, selected := range q.CategoricalFilters {
		cf, ok := desc.Categorical[field]
		if !ok || cf.Values == nil {
			continue
		}
		want := normalizeSet(selected)
		if len(want) == 0 {
			continue
		}
		preds = append(preds, categoricalPredicate(cf, want))
	}

	for field, want := range q.BooleanFilters {
		resolve, ok := desc.Boolean[field]
		if !ok || resolve == nil {
			continue
		}
		preds = append(preds, func(r domain.ListingRecord) bool {
			return resolve(r) == want
		})
	}

	if q.MinRating > 0 {
		floor := q.MinRating
		preds = append(preds, func(r domain.ListingRecord) bool {
			return r.Rating >= floor
		})
	}

	if q.MinCapacity > 0 && desc.Capacity != nil {
		need, capacity := q.MinCapacity, desc.Capacity
		preds = append(preds, func(r domain.ListingRecord) bool {
			return capacity(r) >= need
		})
	}

	if owner := strings.TrimSpace(q.HotelID); owner != "" && desc.Owner != nil {
		resolve := desc.Owner
		preds = append(preds, func(r domain.ListingRecord) bool {
			return resolve(r) == owner
		})
	}

	switch len(preds) {
	case 0:
		return always
	case 1:
		return preds[0]
	}
	return func(r domain.ListingRecord) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

func categoricalPredicate(cf CategoricalField, want map[string]struct{}) Predicate {
	return func(r domain.ListingRecord) bool {
		have := normalizeSet(cf.Values(r))
		if cf.Mode == MatchAll {
			for v := range want {
				if _, ok := have[v]; !ok {
					return false
				}
			}
			return true
		}
		for v := range want {
			if _, ok := have[v]; ok {
				return true
			}
		}
		return false
	}
}

func normalizeSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
