package handlers

import (
	"time"

	"github.com/gdg-garage/session-registration-api/internal/fees"
	"github.com/gdg-garage/session-registration-api/internal/models"
)

type EventDayView struct {
	ID                 uint    `json:"id"`
	Date               string  `json:"date" doc:"Calendar date (YYYY-MM-DD)"`
	Label              string  `json:"label"`
	PartialDayDiscount *string `json:"partial_day_discount,omitempty"`
}

func newEventDayView(d models.EventDay) EventDayView {
	v := EventDayView{
		ID:    d.ID,
		Date:  d.Date.Format(time.DateOnly),
		Label: d.Label,
	}
	if d.PartialDayDiscount != nil {
		s := d.PartialDayDiscount.String()
		v.PartialDayDiscount = &s
	}
	return v
}

type AccommodationView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	FullWeekFee string `json:"full_week_fee"`
	DailyFee    string `json:"daily_fee"`
	AgeMin      *int   `json:"age_min,omitempty"`
	AgeMax      *int   `json:"age_max,omitempty"`
}

func newAccommodationView(a models.AccommodationFee) AccommodationView {
	return AccommodationView{
		ID:          a.ID,
		Name:        a.Name,
		FullWeekFee: a.FullWeekFee.String(),
		DailyFee:    a.DailyFee.String(),
		AgeMin:      a.AgeMin,
		AgeMax:      a.AgeMax,
	}
}

type DayAttenderFeeView struct {
	AgeMin   int    `json:"age_min"`
	AgeMax   int    `json:"age_max"`
	DailyFee string `json:"daily_fee"`
}

type FeeView struct {
	Fee                     string `json:"fee" doc:"Registration fee, e.g. 225.00"`
	FeeCents                int64  `json:"fee_cents"`
	DaysAttending           int    `json:"days_attending"`
	FullWeekAttender        bool   `json:"full_week_attender"`
	TotalPartialDayDiscount string `json:"total_partial_day_discount"`
}

func newFeeView(b fees.Breakdown) FeeView {
	return FeeView{
		Fee:                     b.Fee.String(),
		FeeCents:                int64(b.Fee),
		DaysAttending:           b.DaysAttending,
		FullWeekAttender:        b.FullWeekAttender,
		TotalPartialDayDiscount: b.TotalPartialDayDiscount.String(),
	}
}

type RegistrantView struct {
	ID                            uint                `json:"id"`
	Reference                     string              `json:"reference"`
	RegistrationType              fees.AttendanceType `json:"registration_type"`
	FirstName                     string              `json:"first_name"`
	LastName                      string              `json:"last_name"`
	FullName                      string              `json:"full_name"`
	Age                           int                 `json:"age"`
	Email                         *string             `json:"email,omitempty"`
	NeedsAccessibleAccommodations bool                `json:"needs_accessible_accommodations"`
	DaysAttending                 []EventDayView      `json:"days_attending"`
	AccommodationFee              *AccommodationView  `json:"accommodation_fee,omitempty"`
	Fee                           FeeView             `json:"fee"`
	CreatedAt                     time.Time           `json:"created_at"`
	UpdatedAt                     time.Time           `json:"updated_at"`
}

func newRegistrantView(r models.Registrant, b fees.Breakdown) RegistrantView {
	v := RegistrantView{
		ID:                            r.ID,
		Reference:                     r.Reference,
		RegistrationType:              r.RegistrationType,
		FirstName:                     r.FirstName,
		LastName:                      r.LastName,
		FullName:                      r.FullName(),
		Age:                           r.Age,
		Email:                         r.Email,
		NeedsAccessibleAccommodations: r.NeedsAccessibleAccommodations,
		DaysAttending:                 make([]EventDayView, 0, len(r.DaysAttending)),
		Fee:                           newFeeView(b),
		CreatedAt:                     r.CreatedAt,
		UpdatedAt:                     r.UpdatedAt,
	}
	for _, d := range r.DaysAttending {
		v.DaysAttending = append(v.DaysAttending, newEventDayView(d))
	}
	if r.AccommodationFee != nil {
		a := newAccommodationView(*r.AccommodationFee)
		v.AccommodationFee = &a
	}
	return v
}

type APIKeyView struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Key        string     `json:"key" doc:"Full key on creation, masked afterwards"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

func newAPIKeyView(k models.APIKey, reveal bool) APIKeyView {
	v := APIKeyView{
		ID:         k.ID,
		Name:       k.Name,
		Key:        k.MaskedKey(),
		CreatedAt:  k.CreatedAt,
		ExpiresAt:  k.ExpiresAt,
		LastUsedAt: k.LastUsedAt,
	}
	if reveal {
		v.Key = k.Key
	}
	return v
}
