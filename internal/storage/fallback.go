package storage

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/tripnest/catalog/internal/domain"
)

//go:embed fallback/*.json
var fallbackFS embed.FS

// Fallback returns the static dataset of d. Each call decodes a fresh copy.
func Fallback(d domain.Domain) ([]domain.RawRecord, error) {
	b, err := fallbackFS.ReadFile("fallback/" + d.Plural() + ".json")
	if err != nil {
		return nil, fmt.Errorf("no fallback dataset for %s: %w", d, err)
	}
	var recs []domain.RawRecord
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("decode fallback %s: %w", d, err)
	}
	return recs, nil
}
