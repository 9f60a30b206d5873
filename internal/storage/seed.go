package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/tripnest/catalog/internal/domain"
)

// Seed fills every empty domain table. Records come from
// <dir>/<domain plural>.json when dir is set and the file exists, otherwise
// from the embedded fallback dataset.
func Seed(ctx context.Context, s *SQLiteStore, dir string, logger *slog.Logger) error {
	for _, d := range domain.Domains {
		n, err := s.Count(ctx, d)
		if err != nil {
			return fmt.Errorf("count %s: %w", d, err)
		}
		if n > 0 {
			continue
		}

		recs, origin, err := seedRecords(d, dir)
		if err != nil {
			return err
		}
		if err := s.UpsertMany(ctx, d, recs); err != nil {
			return fmt.Errorf("seed %s: %w", d, err)
		}
		logger.InfoContext(ctx, "seeded listings", "domain", d, "count", len(recs), "origin", origin)
	}
	return nil
}

func seedRecords(d domain.Domain, dir string) ([]domain.RawRecord, string, error) {
	if dir != "" {
		path := filepath.Join(dir, d.Plural()+".json")
		recs, err := LoadRecordsFromFile(path)
		if err == nil {
			return recs, path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", err
		}
	}
	recs, err := Fallback(d)
	return recs, "embedded", err
}
