package models

import (
	"testing"

	"github.com/gdg-garage/session-registration-api/internal/fees"
	"gorm.io/gorm"
)

func TestRegistrant_Selection(t *testing.T) {
	discount := fees.Money(1000)
	tier := AccommodationFee{Model: gorm.Model{ID: 4}, FullWeekFee: 50000, DailyFee: 8000}
	r := Registrant{
		RegistrantFields: RegistrantFields{RegistrationType: fees.OvernightAttender, Age: 30},
		DaysAttending: []EventDay{
			{Model: gorm.Model{ID: 3}},
			{Model: gorm.Model{ID: 1}, PartialDayDiscount: &discount},
		},
		AccommodationFee: &tier,
	}

	sel := r.Selection()
	if sel.Type != fees.OvernightAttender || sel.Age != 30 {
		t.Errorf("unexpected selection %+v", sel)
	}
	if len(sel.Days) != 2 || sel.Days[1].PartialDayDiscount == nil || *sel.Days[1].PartialDayDiscount != 1000 {
		t.Errorf("unexpected days %+v", sel.Days)
	}
	if sel.Accommodation == nil || sel.Accommodation.ID != 4 || sel.Accommodation.DailyFee != 8000 {
		t.Errorf("unexpected accommodation %+v", sel.Accommodation)
	}

	if got := JoinIDs(r.DayIDs()); got != "1,3" {
		t.Errorf("expected sorted day ids '1,3', got %q", got)
	}
	if got := SplitIDs("1,3"); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("unexpected split ids %v", got)
	}
	if got := SplitIDs(""); len(got) != 0 {
		t.Errorf("expected no ids, got %v", got)
	}
}

func TestRegistrant_OwnedBy(t *testing.T) {
	owner := uint(7)
	r := Registrant{UserID: &owner}
	if !r.OwnedBy(7) {
		t.Error("expected registrant to be owned by user 7")
	}
	if r.OwnedBy(8) {
		t.Error("did not expect registrant to be owned by user 8")
	}
	if (Registrant{}).OwnedBy(0) {
		t.Error("registrant without user must not be owned by anyone")
	}
}

func TestAccommodationFee_EligibleFor(t *testing.T) {
	minAge, maxAge := 18, 64
	tier := AccommodationFee{AgeMin: &minAge, AgeMax: &maxAge}

	for age, want := range map[int]bool{17: false, 18: true, 64: true, 65: false} {
		if got := tier.EligibleFor(age); got != want {
			t.Errorf("EligibleFor(%d): expected %v, got %v", age, want, got)
		}
	}
	if !(AccommodationFee{}).EligibleFor(3) {
		t.Error("tier without age range should accept every age")
	}
}
