package storage

import (
	"context"
	"log/slog"

	"github.com/tripnest/catalog/internal/domain"
)

// Source supplies the raw records of one domain.
type Source interface {
	List(ctx context.Context, d domain.Domain) ([]domain.RawRecord, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, d domain.Domain) ([]domain.RawRecord, error)

func (f SourceFunc) List(ctx context.Context, d domain.Domain) ([]domain.RawRecord, error) {
	return f(ctx, d)
}

// FallbackSource serves the static dataset whenever Primary fails. Callers
// cannot tell fallback data from live data.
type FallbackSource struct {
	Primary Source
	Logger  *slog.Logger
}

func (s *FallbackSource) List(ctx context.Context, d domain.Domain) ([]domain.RawRecord, error) {
	return s.ListHinted(ctx, d, Hints{})
}

func (s *FallbackSource) ListHinted(ctx context.Context, d domain.Domain, h Hints) ([]domain.RawRecord, error) {
	if s.Primary != nil {
		recs, err := ListHinted(ctx, s.Primary, d, h)
		if err == nil {
			return recs, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger().WarnContext(ctx, "using fallback data", "domain", d, "error", err)
	}
	return Fallback(d)
}

func (s *FallbackSource) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Router sends each domain to its own source, defaulting to Default.
type Router struct {
	Default Source
	Routes  map[domain.Domain]Source
}

func (r *Router) List(ctx context.Context, d domain.Domain) ([]domain.RawRecord, error) {
	return r.ListHinted(ctx, d, Hints{})
}

func (r *Router) ListHinted(ctx context.Context, d domain.Domain, h Hints) ([]domain.RawRecord, error) {
	if src, ok := r.Routes[d]; ok && src != nil {
		return ListHinted(ctx, src, d, h)
	}
	return ListHinted(ctx, r.Default, d, h)
}

// Hints are the filters a caller asked for explicitly. A source that can
// filter remotely may use them to fetch less; callers still filter the
// result themselves.
type Hints struct {
	Search    string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
	Amenities []string
}

func (h Hints) IsZero() bool {
	return h.Search == "" && h.MinPrice == nil && h.MaxPrice == nil &&
		h.MinRating == nil && len(h.Amenities) == 0
}

// HintedSource is implemented by sources that accept Hints.
type HintedSource interface {
	Source
	ListHinted(ctx context.Context, d domain.Domain, h Hints) ([]domain.RawRecord, error)
}

// ListHinted passes h to src when it accepts hints and lists d plainly
// otherwise.
func ListHinted(ctx context.Context, src Source, d domain.Domain, h Hints) ([]domain.RawRecord, error) {
	if hs, ok := src.(HintedSource); ok && !h.IsZero() {
		return hs.ListHinted(ctx, d, h)
	}
	return src.List(ctx, d)
}
