package models

import (
	"time"

	"github.com/gdg-garage/session-registration-api/internal/fees"
	"gorm.io/gorm"
)

// EventDay is a single calendar day of the session.
type EventDay struct {
	gorm.Model
	Date               time.Time   `json:"date" gorm:"uniqueIndex"`
	Label              string      `json:"label"`
	PartialDayDiscount *fees.Money `json:"partial_day_discount"`
}

func (d EventDay) FeeDay() fees.Day {
	return fees.Day{ID: d.ID, PartialDayDiscount: d.PartialDayDiscount}
}

// AccommodationFee is an overnight lodging tier. AgeMin and AgeMax, when
// set, restrict the tier to registrants in that age range.
type AccommodationFee struct {
	gorm.Model
	Name        string     `json:"name" gorm:"uniqueIndex"`
	FullWeekFee fees.Money `json:"full_week_fee"`
	DailyFee    fees.Money `json:"daily_fee"`
	AgeMin      *int       `json:"age_min"`
	AgeMax      *int       `json:"age_max"`
}

func (a AccommodationFee) EligibleFor(age int) bool {
	if a.AgeMin != nil && age < *a.AgeMin {
		return false
	}
	if a.AgeMax != nil && age > *a.AgeMax {
		return false
	}
	return true
}

func (a AccommodationFee) FeeAccommodation() *fees.Accommodation {
	return &fees.Accommodation{ID: a.ID, FullWeekFee: a.FullWeekFee, DailyFee: a.DailyFee}
}

type DayAttenderFee struct {
	gorm.Model
	AgeMin   int        `json:"age_min" gorm:"uniqueIndex:idx_day_attender_age"`
	AgeMax   int        `json:"age_max" gorm:"uniqueIndex:idx_day_attender_age"`
	DailyFee fees.Money `json:"daily_fee"`
}

func (f DayAttenderFee) Bracket() fees.Bracket {
	return fees.Bracket{AgeMin: f.AgeMin, AgeMax: f.AgeMax, DailyFee: f.DailyFee}
}
