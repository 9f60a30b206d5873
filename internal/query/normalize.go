package query

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tripnest/catalog/internal/domain"
)

// Placeholder images used when a record carries none.
const (
	PlaceholderStayImage    = "https://images.unsplash.com/photo-1551882547-ff40c63fe5fa?w=800&h=600&fit=crop"
	PlaceholderVehicleImage = "https://images.unsplash.com/photo-1558618047-3c8c76ca7d13?auto=format&fit=crop&w=800&q=80"
)

// Normalize maps one raw record into the uniform listing shape of d. It never
// fails: values of the wrong type are replaced by their zero default so one
// malformed record cannot block the rest of a list.
func Normalize(raw domain.RawRecord, d domain.Domain) domain.ListingRecord {
	rec := domain.ListingRecord{
		Domain:      d,
		ID:          raw.ID(),
		Name:        str(raw, "name", "title"),
		Location:    str(raw, "location", "city"),
		Description: str(raw, "description"),
		Rating:      clampFloat(num(raw, "rating"), 0, 5),
		ReviewCount: nonNegative(integer(raw, "reviewCount", "review_count")),
		IsAvailable: boolOr(raw, true, "isAvailable", "is_available"),
		Images:      strs(raw, "images", "image_urls"),
		Tags:        strs(raw, "tags"),
	}
	if len(rec.Images) == 0 {
		if single := str(raw, "image", "thumbnail"); single != "" {
			rec.Images = []string{single}
		}
	}
	if len(rec.Images) == 0 {
		rec.Images = []string{placeholderFor(d)}
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}

	switch d {
	case domain.DomainHotel:
		star := integer(raw, "starCategory", "star_category")
		if _, ok := lookup(raw, "starCategory", "star_category"); !ok {
			star = int(math.Floor(rec.Rating))
		}
		rec.Hotel = &domain.Hotel{
			PricePerNight: price(raw, "pricePerNight", "price_per_night", "price"),
			StarCategory:  min(max(star, 0), 5),
			Amenities:     orEmpty(strs(raw, "amenities")),
		}
	case domain.DomainResort:
		rec.Resort = &domain.Resort{
			PricePerNight:  price(raw, "pricePerNight", "price_per_night", "price"),
			Amenities:      orEmpty(strs(raw, "amenities")),
			RoomTypes:      orEmpty(strs(raw, "roomTypes", "room_types")),
			CheckInPolicy:  str(raw, "checkInPolicy", "check_in_policy"),
			CheckOutPolicy: str(raw, "checkOutPolicy", "check_out_policy"),
		}
	case domain.DomainVehicle:
		rec.Vehicle = &domain.Vehicle{
			Type:         str(raw, "type"),
			Category:     str(raw, "category"),
			Transmission: str(raw, "transmission"),
			Fuel:         str(raw, "fuel"),
			AC:           boolOr(raw, false, "ac"),
			Seating:      nonNegative(integer(raw, "seating")),
			Mileage:      str(raw, "mileage"),
			Engine:       str(raw, "engine"),
			Vendor:       str(raw, "vendor"),
			PricePerHour: price(raw, "pricePerHour", "price_per_hour"),
			PricePerDay:  price(raw, "pricePerDay", "price_per_day"),
			PricePerWeek: price(raw, "pricePerWeek", "price_per_week"),
		}
	case domain.DomainRoom:
		rec.Room = &domain.Room{
			HotelID:       str(raw, "hotelId", "hotel_id"),
			Type:          str(raw, "type"),
			Capacity:      nonNegative(integer(raw, "capacity")),
			PricePerNight: price(raw, "pricePerNight", "price_per_night", "price"),
			Amenities:     orEmpty(strs(raw, "amenities")),
			IsTopRoom:     boolOr(raw, false, "isTopRoom", "is_top_room"),
		}
	}
	return rec
}

// NormalizeAll normalizes a batch, giving records without an id the
// positional id "<domain>-<n>".
func NormalizeAll(raws []domain.RawRecord, d domain.Domain) []domain.ListingRecord {
	out := make([]domain.ListingRecord, 0, len(raws))
	for i, raw := range raws {
		rec := Normalize(raw, d)
		if rec.ID == "" {
			rec.ID = string(d) + "-" + strconv.Itoa(i+1)
		}
		out = append(out, rec)
	}
	return out
}

func placeholderFor(d domain.Domain) string {
	if d == domain.DomainVehicle {
		return PlaceholderVehicleImage
	}
	return PlaceholderStayImage
}

func lookup(raw domain.RawRecord, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func str(raw domain.RawRecord, keys ...string) string {
	v, ok := lookup(raw, keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	}
	return ""
}

func num(raw domain.RawRecord, keys ...string) float64 {
	v, ok := lookup(raw, keys...)
	if !ok {
		return 0
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		f, _ = t.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), 64)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// integer saturates at the int32 bounds; converting a larger float to int
// is implementation-defined.
func integer(raw domain.RawRecord, keys ...string) int {
	f := math.Trunc(num(raw, keys...))
	return int(max(min(f, math.MaxInt32), math.MinInt32))
}

func price(raw domain.RawRecord, keys ...string) float64 {
	return math.Max(num(raw, keys...), 0)
}

func boolOr(raw domain.RawRecord, def bool, keys ...string) bool {
	v, ok := lookup(raw, keys...)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
	}
	return def
}

// strs accepts a JSON array of strings or a comma separated string.
func strs(raw domain.RawRecord, keys ...string) []string {
	v, ok := lookup(raw, keys...)
	if !ok {
		return nil
	}
	var parts []string
	switch t := v.(type) {
	case []string:
		parts = t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	case string:
		parts = strings.Split(t, ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNegative(n int) int { return max(n, 0) }

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
