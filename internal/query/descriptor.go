package query

import (
	"slices"
	"strconv"
	"strings"

	"github.com/tripnest/catalog/internal/domain"
)

// MatchMode decides how the selected values of one categorical field combine.
type MatchMode int

const (
	// MatchAny is for "choice" fields (vehicle type, fuel): one hit is enough.
	MatchAny MatchMode = iota
	// MatchAll is for "amenities"-style fields: every selected value must be present.
	MatchAll
)

// CategoricalField resolves the values of one multi-select field.
type CategoricalField struct {
	Values func(domain.ListingRecord) []string
	Mode   MatchMode
}

// PriceBasis selects which vehicle price is "the" price.
type PriceBasis string

const (
	PriceBasisHour PriceBasis = "hour"
	PriceBasisDay  PriceBasis = "day"
	PriceBasisWeek PriceBasis = "week"
)

// ParsePriceBasis falls back to the daily price for unknown input.
func ParsePriceBasis(s string) PriceBasis {
	switch PriceBasis(strings.ToLower(strings.TrimSpace(s))) {
	case PriceBasisHour:
		return PriceBasisHour
	case PriceBasisWeek:
		return PriceBasisWeek
	default:
		return PriceBasisDay
	}
}

// Descriptor tells the executor how to read the fields of one domain.
// Resolvers receive normalized records and must tolerate a record whose
// variant pointer is nil.
type Descriptor struct {
	Domain      domain.Domain
	Price       func(domain.ListingRecord) float64
	Capacity    func(domain.ListingRecord) int
	Owner       func(domain.ListingRecord) string
	Categorical map[string]CategoricalField
	Boolean     map[string]func(domain.ListingRecord) bool
	PageSize    int
}

func isAvailable(r domain.ListingRecord) bool { return r.IsAvailable }

// HotelDescriptor filters hotels on amenities (all of), star category (any of)
// and availability, priced per night.
func HotelDescriptor() Descriptor {
	return Descriptor{
		Domain: domain.DomainHotel,
		Price: func(r domain.ListingRecord) float64 {
			if r.Hotel == nil {
				return 0
			}
			return r.Hotel.PricePerNight
		},
		Categorical: map[string]CategoricalField{
			"amenities": {Mode: MatchAll, Values: func(r domain.ListingRecord) []string {
				if r.Hotel == nil {
					return nil
				}
				return r.Hotel.Amenities
			}},
			"starCategory": {Mode: MatchAny, Values: func(r domain.ListingRecord) []string {
				if r.Hotel == nil || r.Hotel.StarCategory == 0 {
					return nil
				}
				return []string{strconv.Itoa(r.Hotel.StarCategory)}
			}},
		},
		Boolean: map[string]func(domain.ListingRecord) bool{
			"isAvailable": isAvailable,
		},
		PageSize: DefaultPageSize,
	}
}

func ResortDescriptor() Descriptor {
	return Descriptor{
		Domain: domain.DomainResort,
		Price: func(r domain.ListingRecord) float64 {
			if r.Resort == nil {
				return 0
			}
			return r.Resort.PricePerNight
		},
		Categorical: map[string]CategoricalField{
			"amenities": {Mode: MatchAll, Values: func(r domain.ListingRecord) []string {
				if r.Resort == nil {
					return nil
				}
				return r.Resort.Amenities
			}},
			"roomTypes": {Mode: MatchAny, Values: func(r domain.ListingRecord) []string {
				if r.Resort == nil {
					return nil
				}
				return r.Resort.RoomTypes
			}},
		},
		Boolean: map[string]func(domain.ListingRecord) bool{
			"isAvailable": isAvailable,
		},
		PageSize: DefaultPageSize,
	}
}

// VehicleDescriptor prices vehicles on the given basis; every categorical
// vehicle field is a single choice, so all of them use MatchAny.
func VehicleDescriptor(basis PriceBasis) Descriptor {
	vehicleField := func(get func(*domain.Vehicle) string) CategoricalField {
		return CategoricalField{Mode: MatchAny, Values: func(r domain.ListingRecord) []string {
			if r.Vehicle == nil {
				return nil
			}
			if v := get(r.Vehicle); v != "" {
				return []string{v}
			}
			return nil
		}}
	}
	return Descriptor{
		Domain: domain.DomainVehicle,
		Price: func(r domain.ListingRecord) float64 {
			if r.Vehicle == nil {
				return 0
			}
			switch basis {
			case PriceBasisHour:
				return r.Vehicle.PricePerHour
			case PriceBasisWeek:
				return r.Vehicle.PricePerWeek
			default:
				return r.Vehicle.PricePerDay
			}
		},
		Capacity: func(r domain.ListingRecord) int {
			if r.Vehicle == nil {
				return 0
			}
			return r.Vehicle.Seating
		},
		Categorical: map[string]CategoricalField{
			"type":         vehicleField(func(v *domain.Vehicle) string { return v.Type }),
			"category":     vehicleField(func(v *domain.Vehicle) string { return v.Category }),
			"transmission": vehicleField(func(v *domain.Vehicle) string { return v.Transmission }),
			"fuel":         vehicleField(func(v *domain.Vehicle) string { return v.Fuel }),
		},
		Boolean: map[string]func(domain.ListingRecord) bool{
			"isAvailable": isAvailable,
			"ac": func(r domain.ListingRecord) bool {
				return r.Vehicle != nil && r.Vehicle.AC
			},
		},
		PageSize: DefaultPageSize,
	}
}

// RoomDescriptor covers the rooms of a hotel. hasAC is derived from the "AC"
// amenity.
func RoomDescriptor() Descriptor {
	roomAmenities := func(r domain.ListingRecord) []string {
		if r.Room == nil {
			return nil
		}
		return r.Room.Amenities
	}
	return Descriptor{
		Domain: domain.DomainRoom,
		Price: func(r domain.ListingRecord) float64 {
			if r.Room == nil {
				return 0
			}
			return r.Room.PricePerNight
		},
		Capacity: func(r domain.ListingRecord) int {
			if r.Room == nil {
				return 0
			}
			return r.Room.Capacity
		},
		Owner: func(r domain.ListingRecord) string {
			if r.Room == nil {
				return ""
			}
			return r.Room.HotelID
		},
		Categorical: map[string]CategoricalField{
			"amenities": {Mode: MatchAll, Values: roomAmenities},
			"type": {Mode: MatchAny, Values: func(r domain.ListingRecord) []string {
				if r.Room == nil || r.Room.Type == "" {
					return nil
				}
				return []string{r.Room.Type}
			}},
		},
		Boolean: map[string]func(domain.ListingRecord) bool{
			"isAvailable": isAvailable,
			"hasAC": func(r domain.ListingRecord) bool {
				return slices.ContainsFunc(roomAmenities(r), func(a string) bool {
					return strings.EqualFold(strings.TrimSpace(a), "AC")
				})
			},
			"isTopRoom": func(r domain.ListingRecord) bool {
				return r.Room != nil && r.Room.IsTopRoom
			},
		},
		PageSize: DefaultRoomPageSize,
	}
}

// DescriptorFor returns the built-in descriptor of d; vehicles are priced
// per day.
func DescriptorFor(d domain.Domain) (Descriptor, bool) {
	switch d {
	case domain.DomainHotel:
		return HotelDescriptor(), true
	case domain.DomainResort:
		return ResortDescriptor(), true
	case domain.DomainVehicle:
		return VehicleDescriptor(PriceBasisDay), true
	case domain.DomainRoom:
		return RoomDescriptor(), true
	}
	return Descriptor{}, false
}
