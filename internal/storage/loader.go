package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tripnest/catalog/internal/domain"
)

// LoadRecordsFromFile reads a JSON array of raw listing records.
func LoadRecordsFromFile(path string) ([]domain.RawRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}

	var recs []domain.RawRecord
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("unmarshal records: %w", err)
	}
	return recs, nil
}
