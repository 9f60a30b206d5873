// Package pricing computes vehicle rental quotes.
package pricing

import (
	"errors"
	"math"
	"time"

	"github.com/tripnest/catalog/internal/domain"
)

var ErrInvalidWindow = errors.New("pricing: return must be after pickup")

type Basis string

const (
	BasisHour Basis = "hour"
	BasisDay  Basis = "day"
	BasisWeek Basis = "week"
)

// Line is one priced component of a quote.
type Line struct {
	Unit      Basis   `json:"unit"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Amount    float64 `json:"amount"`
}

type Quote struct {
	Basis       Basis     `json:"basis"`
	Pickup      time.Time `json:"pickup"`
	Return      time.Time `json:"return"`
	Weeks       int       `json:"weeks"`
	Days        int       `json:"days"`
	Hours       int       `json:"hours"`
	Lines       []Line    `json:"lines"`
	Total       float64   `json:"total"`
	AmountMinor int64     `json:"amount_minor"`
}

const day = 24 * time.Hour

// QuoteVehicle prices the rental window [pickup, ret).
//
// Windows shorter than a day are charged per started hour. Longer windows are
// charged per started day, and from seven days on whole weeks use the weekly
// rate with the remainder at the daily rate.
func QuoteVehicle(v domain.Vehicle, pickup, ret time.Time) (Quote, error) {
	if !ret.After(pickup) {
		return Quote{}, ErrInvalidWindow
	}
	window := ret.Sub(pickup)
	q := Quote{Pickup: pickup, Return: ret}

	switch {
	case window < day:
		q.Basis = BasisHour
		q.Hours = int(math.Ceil(window.Hours()))
		q.add(BasisHour, q.Hours, v.PricePerHour)
	default:
		days := int(math.Ceil(float64(window) / float64(day)))
		if days >= 7 {
			q.Basis = BasisWeek
			q.Weeks, q.Days = days/7, days%7
			q.add(BasisWeek, q.Weeks, v.PricePerWeek)
		} else {
			q.Basis = BasisDay
			q.Days = days
		}
		q.add(BasisDay, q.Days, v.PricePerDay)
	}

	q.AmountMinor = int64(math.Round(q.Total * 100))
	return q, nil
}

func (q *Quote) add(unit Basis, n int, price float64) {
	if n <= 0 {
		return
	}
	amount := float64(n) * price
	q.Lines = append(q.Lines, Line{Unit: unit, Quantity: n, UnitPrice: price, Amount: amount})
	q.Total += amount
}
