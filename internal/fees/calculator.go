// Package fees computes registration fees from a registrant's attendance
// details and the event's reference data. Everything here is pure: inputs
// are plain values and nothing is cached or mutated, so a Calculator can be
// shared between requests.
package fees

import (
	"fmt"
)

type AttendanceType string

const (
	OvernightAttender AttendanceType = "overnight_attender"
	DayAttender       AttendanceType = "day_attender"
	MemorialsOnly     AttendanceType = "memorials_only"
)

func (a AttendanceType) Valid() bool {
	switch a {
	case OvernightAttender, DayAttender, MemorialsOnly:
		return true
	}
	return false
}

// Day is a selected event day. A nil PartialDayDiscount means the day has
// no discount.
type Day struct {
	ID                 uint
	PartialDayDiscount *Money
}

type Accommodation struct {
	ID          uint
	FullWeekFee Money
	DailyFee    Money
}

// Selection is the fee-relevant part of a registrant.
type Selection struct {
	Type          AttendanceType
	Age           int
	Days          []Day
	Accommodation *Accommodation
}

type Breakdown struct {
	Fee                     Money `json:"fee"`
	DaysAttending           int   `json:"days_attending"`
	FullWeekAttender        bool  `json:"full_week_attender"`
	TotalPartialDayDiscount Money `json:"total_partial_day_discount"`
}

type Calculator struct {
	rates          *RateTable
	totalEventDays int
}

func NewCalculator(rates *RateTable, totalEventDays int) *Calculator {
	return &Calculator{rates: rates, totalEventDays: totalEventDays}
}

func (c *Calculator) TotalEventDays() int {
	return c.totalEventDays
}

func (c *Calculator) Rates() *RateTable {
	return c.rates
}

func (c *Calculator) Fee(sel Selection) (Money, error) {
	b, err := c.Breakdown(sel)
	if err != nil {
		return 0, err
	}
	return b.Fee, nil
}

// Breakdown computes the fee together with the figures it was derived from.
// Rules are applied in order and the first that matches wins: memorials
// only attendance is free, registrants with accommodation pay the full week
// fee or a discounted per-day rate, and everyone else pays the day attender
// rate for their age.
func (c *Calculator) Breakdown(sel Selection) (Breakdown, error) {
	days := uniqueDays(sel.Days)
	b := Breakdown{
		DaysAttending:           len(days),
		FullWeekAttender:        len(days) == c.totalEventDays,
		TotalPartialDayDiscount: partialDayDiscount(days),
	}

	switch {
	case sel.Type == MemorialsOnly:
		b.Fee = 0

	case sel.Accommodation != nil:
		if b.FullWeekAttender {
			b.Fee = sel.Accommodation.FullWeekFee
			break
		}
		b.Fee = sel.Accommodation.DailyFee*Money(len(days)) - b.TotalPartialDayDiscount

	default:
		if c.rates == nil {
			return Breakdown{}, fmt.Errorf("%w %d: rate table not loaded", ErrNoRateBracket, sel.Age)
		}
		bracket, err := c.rates.Lookup(sel.Age)
		if err != nil {
			return Breakdown{}, err
		}
		b.Fee = bracket.DailyFee * Money(len(days))
	}

	// Discounts may exceed the per-day total. Fees are clamped at zero.
	if b.Fee < 0 {
		b.Fee = 0
	}

	return b, nil
}

// ComputeFee is a one-off calculation without building a Calculator.
func ComputeFee(sel Selection, rates *RateTable, totalEventDays int) (Money, error) {
	return NewCalculator(rates, totalEventDays).Fee(sel)
}

func uniqueDays(days []Day) []Day {
	seen := make(map[uint]struct{}, len(days))
	out := make([]Day, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}
		out = append(out, d)
	}
	return out
}

func partialDayDiscount(days []Day) Money {
	var total Money
	for _, d := range days {
		if d.PartialDayDiscount != nil {
			total += *d.PartialDayDiscount
		}
	}
	return total
}
