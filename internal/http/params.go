package httpapi

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/tripnest/catalog/internal/domain"
	"github.com/tripnest/catalog/internal/storage"
)

// listParams is the parsed query string of a listing request.
type listParams struct {
	Location    string   `json:"location" validate:"max=200"`
	Search      string   `json:"q" validate:"max=200"`
	MinPrice    *float64 `json:"min_price"`
	MaxPrice    *float64 `json:"max_price"`
	MinRating   *float64 `json:"min_rating" validate:"omitempty,gte=0,lte=5"`
	MinCapacity *int     `json:"min_capacity" validate:"omitempty,gte=0"`
	HotelID     string   `json:"hotel_id"`
	Sort        string   `json:"sort" validate:"sortkey"`
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
	PriceBasis  string   `json:"price_basis" validate:"omitempty,oneof=hour day week"`

	categorical map[string][]string
	boolean     map[string]bool
}

// query parameter -> descriptor field
var (
	categoricalParams = map[string]string{
		"amenities":    "amenities",
		"star":         "starCategory",
		"room_types":   "roomTypes",
		"type":         "type",
		"category":     "category",
		"transmission": "transmission",
		"fuel":         "fuel",
	}
	booleanParams = map[string]string{
		"available": "isAvailable",
		"ac":        "ac",
		"has_ac":    "hasAC",
		"top_room":  "isTopRoom",
	}
)

func parseListParams(v url.Values) (listParams, []ValidationError) {
	var errs []ValidationError
	p := listParams{
		Location:   strings.TrimSpace(v.Get("location")),
		Search:     v.Get("q"),
		HotelID:    strings.TrimSpace(v.Get("hotel_id")),
		Sort:       v.Get("sort"),
		PriceBasis: strings.ToLower(strings.TrimSpace(v.Get("price_basis"))),
	}

	p.MinPrice = optFloat(v, "min_price", &errs)
	p.MaxPrice = optFloat(v, "max_price", &errs)
	p.MinRating = optFloat(v, "min_rating", &errs)
	p.MinCapacity = optInt(v, "min_capacity", &errs)
	if n := optInt(v, "page", &errs); n != nil {
		p.Page = *n
	}
	if n := optInt(v, "page_size", &errs); n != nil {
		p.PageSize = *n
	}

	for param, field := range categoricalParams {
		if vals := multiValue(v[param]); len(vals) > 0 {
			if p.categorical == nil {
				p.categorical = map[string][]string{}
			}
			p.categorical[field] = vals
		}
	}
	for param, field := range booleanParams {
		raw := strings.TrimSpace(v.Get(param))
		if raw == "" || strings.EqualFold(raw, "any") {
			continue
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, ValidationError{Field: param, Message: param + " must be true or false"})
			continue
		}
		if p.boolean == nil {
			p.boolean = map[string]bool{}
		}
		p.boolean[field] = b
	}

	if len(errs) > 0 {
		return p, errs
	}
	return p, ValidateStruct(p)
}

// apply overlays the parameters on a domain's starting query.
func (p listParams) apply(q domain.QueryState) domain.QueryState {
	q = q.Clone()
	q.LocationFilter = p.Location
	q.SearchQuery = p.Search
	q.HotelID = p.HotelID
	q.CategoricalFilters = p.categorical
	q.BooleanFilters = p.boolean

	if p.MinPrice != nil || p.MaxPrice != nil {
		pr := domain.PriceRange{Max: math.MaxFloat64}
		if q.PriceRange != nil {
			pr = *q.PriceRange
		}
		if p.MinPrice != nil {
			pr.Min = *p.MinPrice
		}
		if p.MaxPrice != nil {
			pr.Max = *p.MaxPrice
		}
		q.PriceRange = &pr
	}
	if p.MinRating != nil {
		q.MinRating = *p.MinRating
	}
	if p.MinCapacity != nil {
		q.MinCapacity = *p.MinCapacity
	}
	if key, ok := parseSortKey(p.Sort); ok && key != "" {
		q.SortKey = key
	}
	if p.Page != 0 {
		q.Page = p.Page
	}
	if p.PageSize != 0 {
		q.PageSize = p.PageSize
	}
	return q
}

// hints are the filters the caller set explicitly, for sources that can
// narrow a listing remotely.
func (p listParams) hints() storage.Hints {
	return storage.Hints{
		Search:    strings.TrimSpace(p.Search),
		MinPrice:  p.MinPrice,
		MaxPrice:  p.MaxPrice,
		MinRating: p.MinRating,
		Amenities: p.categorical["amenities"],
	}
}

// multiValue accepts both ?k=a&k=b and ?k=a,b.
func multiValue(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func optFloat(v url.Values, key string, errs *[]ValidationError) *float64 {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*errs = append(*errs, ValidationError{Field: key, Message: key + " must be a number"})
		return nil
	}
	return &f
}

func optInt(v url.Values, key string, errs *[]ValidationError) *int {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, ValidationError{Field: key, Message: key + " must be an integer"})
		return nil
	}
	return &n
}
