package query

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/tripnest/catalog/internal/domain"
)

// fold is the case-insensitive key used by search and location matching.
// A Caser keeps state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Matches reports whether query is a case-insensitive substring of the
// record's name or location. An empty query matches everything.
func Matches(rec domain.ListingRecord, query string) bool {
	return SearchPredicate(query)(rec)
}

// SearchPredicate folds query once and returns the matcher for it.
func SearchPredicate(query string) Predicate {
	q := fold(query)
	if q == "" {
		return always
	}
	return func(rec domain.ListingRecord) bool {
		return strings.Contains(fold(rec.Name), q) || strings.Contains(fold(rec.Location), q)
	}
}
