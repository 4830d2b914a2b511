package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/session-registration-api/internal/database"
	"github.com/gdg-garage/session-registration-api/internal/fees"
	"github.com/gdg-garage/session-registration-api/internal/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// formSelection holds the fee-relevant fields of a registrant form with its
// day and accommodation references resolved.
type formSelection struct {
	Type          fees.AttendanceType
	Age           int
	Days          []models.EventDay
	Accommodation *models.AccommodationFee
}

func (s formSelection) feeSelection() fees.Selection {
	r := models.Registrant{
		RegistrantFields: models.RegistrantFields{RegistrationType: s.Type, Age: s.Age},
		DaysAttending:    s.Days,
		AccommodationFee: s.Accommodation,
	}
	return r.Selection()
}

// resolveSelection validates the fields that drive the fee and prices them
// with calc. Form mistakes come back as 422.
func resolveSelection(ctx context.Context, db *gorm.DB, calc *fees.Calculator, typ fees.AttendanceType, age int, dayIDs []uint, accommodationID *uint) (formSelection, fees.Breakdown, error) {
	sel := formSelection{Type: typ, Age: age}
	if sel.Type == "" {
		sel.Type = fees.OvernightAttender
	}
	if !sel.Type.Valid() {
		return sel, fees.Breakdown{}, huma.Error422UnprocessableEntity("Unknown registration type " + string(sel.Type))
	}
	if age < 0 {
		return sel, fees.Breakdown{}, huma.Error422UnprocessableEntity("Age cannot be negative")
	}

	days, err := database.FindEventDays(ctx, db, dayIDs)
	if errors.Is(err, database.ErrUnknownEventDay) {
		return sel, fees.Breakdown{}, huma.Error422UnprocessableEntity("Unknown event day selected")
	} else if err != nil {
		return sel, fees.Breakdown{}, err
	}
	sel.Days = days

	if accommodationID != nil {
		if sel.Type != fees.OvernightAttender {
			return sel, fees.Breakdown{}, huma.Error422UnprocessableEntity("Overnight accommodations are only available to overnight attenders")
		}
		tier := &models.AccommodationFee{}
		if err := db.WithContext(ctx).First(tier, *accommodationID).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			return sel, fees.Breakdown{}, huma.Error422UnprocessableEntity("Unknown accommodation")
		} else if err != nil {
			return sel, fees.Breakdown{}, err
		}
		if !tier.EligibleFor(age) {
			return sel, fees.Breakdown{}, huma.Error422UnprocessableEntity("Accommodation " + tier.Name + " is not available at this age")
		}
		sel.Accommodation = tier
	}

	// Rate tables cover every age from 0 up to their last bracket.
	if sel.Type != fees.MemorialsOnly && sel.Accommodation == nil && age > calc.Rates().MaxAge() {
		return sel, fees.Breakdown{}, huma.Error422UnprocessableEntity(fmt.Sprintf("No daily rate covers age %d, the highest is %d", age, calc.Rates().MaxAge()))
	}

	b, err := calc.Breakdown(sel.feeSelection())
	if err != nil {
		log.Error().Err(err).Int("age", age).Msg("Failed to compute registration fee")
		return sel, fees.Breakdown{}, huma.Error500InternalServerError("Fee configuration error")
	}
	return sel, b, nil
}
