package query

import "github.com/tripnest/catalog/internal/domain"

func hotel(id, name, location string, price float64, amenities ...string) domain.ListingRecord {
	return domain.ListingRecord{
		Domain:      domain.DomainHotel,
		ID:          id,
		Name:        name,
		Location:    location,
		IsAvailable: true,
		Hotel:       &domain.Hotel{PricePerNight: price, Amenities: amenities},
	}
}

func rated(r domain.ListingRecord, rating float64, reviews int) domain.ListingRecord {
	r.Rating = rating
	r.ReviewCount = reviews
	return r
}

func vehicle(id, typ string, perDay float64) domain.ListingRecord {
	return domain.ListingRecord{
		Domain:      domain.DomainVehicle,
		ID:          id,
		Name:        typ + " " + id,
		IsAvailable: true,
		Vehicle:     &domain.Vehicle{Type: typ, PricePerDay: perDay, PricePerHour: perDay / 8, PricePerWeek: perDay * 6},
	}
}

func ids(recs []domain.ListingRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}
