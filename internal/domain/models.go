package domain

import (
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Domain is a category of listing with its own field set.
type Domain string

const (
	DomainHotel   Domain = "hotel"
	DomainResort  Domain = "resort"
	DomainVehicle Domain = "vehicle"
	DomainRoom    Domain = "room"
)

// Domains lists every supported domain in display order.
var Domains = []Domain{DomainHotel, DomainResort, DomainVehicle, DomainRoom}

// ParseDomain accepts both the singular and the plural ("hotels") form.
func ParseDomain(s string) (Domain, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "s")
	for _, d := range Domains {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// Plural is the collection name used in URLs and table rows.
func (d Domain) Plural() string { return string(d) + "s" }

// RawRecord is a listing as it arrives from an API response or a static
// fallback file: decoded JSON with no guarantee about which fields exist.
type RawRecord map[string]any

// ID returns the record identifier as a string, accepting numeric ids.
func (r RawRecord) ID() string {
	switch v := r["id"].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

// ListingRecord is the normalized, domain-tagged listing consumed by the
// query pipeline. Exactly one of Hotel, Resort, Vehicle, Room is set,
// matching Domain.
type ListingRecord struct {
	Domain      Domain   `json:"domain"`
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	IsAvailable bool     `json:"is_available"`
	Images      []string `json:"images"`
	Tags        []string `json:"tags"`

	Hotel   *Hotel   `json:"hotel,omitempty"`
	Resort  *Resort  `json:"resort,omitempty"`
	Vehicle *Vehicle `json:"vehicle,omitempty"`
	Room    *Room    `json:"room,omitempty"`
}

type Hotel struct {
	PricePerNight float64  `json:"price_per_night"`
	StarCategory  int      `json:"star_category"`
	Amenities     []string `json:"amenities"`
}

type Resort struct {
	PricePerNight  float64  `json:"price_per_night"`
	Amenities      []string `json:"amenities"`
	RoomTypes      []string `json:"room_types"`
	CheckInPolicy  string   `json:"check_in_policy"`
	CheckOutPolicy string   `json:"check_out_policy"`
}

type Vehicle struct {
	Type         string  `json:"type"`
	Category     string  `json:"category"`
	Transmission string  `json:"transmission"`
	Fuel         string  `json:"fuel"`
	AC           bool    `json:"ac"`
	Seating      int     `json:"seating"`
	Mileage      string  `json:"mileage"`
	Engine       string  `json:"engine"`
	Vendor       string  `json:"vendor"`
	PricePerHour float64 `json:"price_per_hour"`
	PricePerDay  float64 `json:"price_per_day"`
	PricePerWeek float64 `json:"price_per_week"`
}

type Room struct {
	HotelID       string   `json:"hotel_id"`
	Type          string   `json:"type"`
	Capacity      int      `json:"capacity"`
	PricePerNight float64  `json:"price_per_night"`
	Amenities     []string `json:"amenities"`
	IsTopRoom     bool     `json:"is_top_room"`
}

// SortKey names one of the registered comparators.
type SortKey string

const (
	SortRating    SortKey = "rating"
	SortPriceLow  SortKey = "priceLow"
	SortPriceHigh SortKey = "priceHigh"
	SortNewest    SortKey = "newest"
	SortCapacity  SortKey = "capacity"
)

// PriceRange holds inclusive bounds. Min > Max is allowed and matches nothing.
type PriceRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// QueryState is the full set of filter, sort, search and pagination
// parameters selected at one point in time. Callers replace it wholesale on
// every change; the pipeline only reads it.
type QueryState struct {
	LocationFilter string
	// PriceRange nil means no price constraint.
	PriceRange *PriceRange
	// CategoricalFilters maps a field name to the accepted values. An empty
	// slice leaves the field unconstrained.
	CategoricalFilters map[string][]string
	// BooleanFilters maps a field name to the required value; an absent key
	// is "unset".
	BooleanFilters map[string]bool
	MinRating      float64
	MinCapacity    int
	HotelID        string
	SearchQuery    string
	SortKey        SortKey
	Page           int
	PageSize       int
}

// Clone returns a deep copy so a caller can derive the next state without
// touching the one it already handed out.
func (q QueryState) Clone() QueryState {
	out := q
	if q.PriceRange != nil {
		pr := *q.PriceRange
		out.PriceRange = &pr
	}
	if q.CategoricalFilters != nil {
		out.CategoricalFilters = make(map[string][]string, len(q.CategoricalFilters))
		for k, v := range q.CategoricalFilters {
			out.CategoricalFilters[k] = slices.Clone(v)
		}
	}
	out.BooleanFilters = maps.Clone(q.BooleanFilters)
	return out
}

// Page is one slice of the ordered result set plus its metadata.
type Page struct {
	Items       []ListingRecord `json:"items"`
	TotalCount  int             `json:"total_count"`
	TotalPages  int             `json:"total_pages"`
	CurrentPage int             `json:"current_page"`
	PageSize    int             `json:"page_size"`
}
