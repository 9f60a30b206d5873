package query

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tripnest/catalog/internal/domain"
)

// DomainDefaults is the query a listing page starts from.
type DomainDefaults struct {
	PriceRange domain.PriceRange `yaml:"price_range"`
	SortKey    domain.SortKey    `yaml:"sort"`
	PageSize   int               `yaml:"page_size"`
}

// Defaults holds the starting query of every domain.
type Defaults struct {
	Hotel             DomainDefaults `yaml:"hotel"`
	Resort            DomainDefaults `yaml:"resort"`
	Vehicle           DomainDefaults `yaml:"vehicle"`
	Room              DomainDefaults `yaml:"room"`
	VehiclePriceBasis PriceBasis     `yaml:"vehicle_price_basis"`
}

// DefaultDefaults mirrors the slider ranges and page sizes of the listing pages.
func DefaultDefaults() Defaults {
	return Defaults{
		Hotel:             DomainDefaults{PriceRange: domain.PriceRange{Min: 0, Max: 20000}, SortKey: domain.SortRating, PageSize: DefaultPageSize},
		Resort:            DomainDefaults{PriceRange: domain.PriceRange{Min: 0, Max: 15000}, SortKey: domain.SortRating, PageSize: DefaultPageSize},
		Vehicle:           DomainDefaults{PriceRange: domain.PriceRange{Min: 100, Max: 5000}, SortKey: domain.SortRating, PageSize: DefaultPageSize},
		Room:              DomainDefaults{PriceRange: domain.PriceRange{Min: 0, Max: 15000}, SortKey: domain.SortRating, PageSize: DefaultRoomPageSize},
		VehiclePriceBasis: PriceBasisDay,
	}
}

// LoadDefaultsFromFile overlays a YAML (or JSON) file on DefaultDefaults.
// On error the built-in defaults are returned together with the error.
func LoadDefaultsFromFile(path string) (Defaults, error) {
	d := DefaultDefaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("read query defaults file: %w", err)
	}
	if err := yaml.Unmarshal(b, &d); err != nil {
		return DefaultDefaults(), fmt.Errorf("unmarshal query defaults: %w", err)
	}
	d.VehiclePriceBasis = ParsePriceBasis(string(d.VehiclePriceBasis))
	return d, nil
}

func (d Defaults) For(dom domain.Domain) DomainDefaults {
	switch dom {
	case domain.DomainHotel:
		return d.Hotel
	case domain.DomainResort:
		return d.Resort
	case domain.DomainVehicle:
		return d.Vehicle
	case domain.DomainRoom:
		return d.Room
	}
	return DomainDefaults{SortKey: domain.SortRating, PageSize: DefaultPageSize}
}
