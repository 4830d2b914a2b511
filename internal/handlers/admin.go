package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/session-registration-api/internal/auth"
	"github.com/gdg-garage/session-registration-api/internal/fees"
	"github.com/gdg-garage/session-registration-api/internal/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type AdminHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewAdminHandler(db *gorm.DB, authHandler *auth.AuthHandler) *AdminHandler {
	return &AdminHandler{db: db, authHandler: authHandler}
}

type AdminListRequest struct {
	auth.AuthInput
	Query            string `query:"q" doc:"Search first name, last name and email"`
	RegistrationType string `query:"registration_type" doc:"Filter by registration type"`
	AccommodationID  uint   `query:"accommodation_id" doc:"Filter by accommodation tier"`
	Accessible       string `query:"accessible" doc:"Filter by accessible accommodation needs (true or false)"`
	DayID            uint   `query:"day_id" doc:"Filter by attended event day"`
}

type AdminRegistrantRow struct {
	ID                            uint                `json:"id"`
	FullName                      string              `json:"full_name"`
	Age                           int                 `json:"age"`
	Email                         *string             `json:"email,omitempty"`
	RegistrationType              fees.AttendanceType `json:"registration_type"`
	NeedsAccessibleAccommodations bool                `json:"needs_accessible_accommodations"`
	Accommodation                 string              `json:"accommodation,omitempty"`
	FullWeekAttender              bool                `json:"full_week_attender"`
	TotalPartialDayDiscount       string              `json:"total_partial_day_discount"`
	Fee                           string              `json:"fee"`
}

type AdminListResponse struct {
	Body struct {
		Registrants []AdminRegistrantRow `json:"registrants"`
		Count       int                  `json:"count"`
		TotalFees   string               `json:"total_fees"`
	}
}

func (h *AdminHandler) HandleList(ctx context.Context, input *AdminListRequest) (*AdminListResponse, error) {
	if _, err := h.authHandler.RequireAdmin(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	db := h.db.WithContext(ctx)
	q := preloadRegistrant(db).Model(&models.Registrant{})
	if s := strings.TrimSpace(input.Query); s != "" {
		like := "%" + s + "%"
		q = q.Where("(first_name LIKE ? OR last_name LIKE ? OR email LIKE ?)", like, like, like)
	}
	if input.RegistrationType != "" {
		if !fees.AttendanceType(input.RegistrationType).Valid() {
			return nil, huma.Error422UnprocessableEntity("Unknown registration type " + input.RegistrationType)
		}
		q = q.Where("registration_type = ?", input.RegistrationType)
	}
	if input.AccommodationID != 0 {
		q = q.Where("accommodation_fee_id = ?", input.AccommodationID)
	}
	switch input.Accessible {
	case "true":
		q = q.Where("needs_accessible_accommodations = ?", true)
	case "false":
		q = q.Where("needs_accessible_accommodations = ?", false)
	case "":
	default:
		return nil, huma.Error422UnprocessableEntity("accessible must be true or false")
	}
	if input.DayID != 0 {
		q = q.Where("id IN (?)", db.Table("registrant_event_days").Select("registrant_id").Where("event_day_id = ?", input.DayID))
	}

	var registrants []models.Registrant
	if err := q.Order("last_name asc, first_name asc").Find(&registrants).Error; err != nil {
		return nil, asStatusError(err, "Failed to list registrants")
	}

	calc, err := loadCalculator(ctx, h.db)
	if err != nil {
		return nil, err
	}

	resp := &AdminListResponse{}
	resp.Body.Registrants = make([]AdminRegistrantRow, 0, len(registrants))
	var total fees.Money
	for _, r := range registrants {
		b, err := calc.Breakdown(r.Selection())
		if err != nil {
			log.Error().Err(err).Uint("registrant_id", r.ID).Int("age", r.Age).Msg("Failed to compute registration fee")
			return nil, huma.Error500InternalServerError("Fee configuration error")
		}
		row := AdminRegistrantRow{
			ID:                            r.ID,
			FullName:                      r.FullName(),
			Age:                           r.Age,
			Email:                         r.Email,
			RegistrationType:              r.RegistrationType,
			NeedsAccessibleAccommodations: r.NeedsAccessibleAccommodations,
			FullWeekAttender:              b.FullWeekAttender,
			TotalPartialDayDiscount:       b.TotalPartialDayDiscount.String(),
			Fee:                           b.Fee.String(),
		}
		if r.AccommodationFee != nil {
			row.Accommodation = r.AccommodationFee.Name
		}
		resp.Body.Registrants = append(resp.Body.Registrants, row)
		total += b.Fee
	}
	resp.Body.Count = len(resp.Body.Registrants)
	resp.Body.TotalFees = total.String()

	return resp, nil
}

func (h *AdminHandler) HandleDelete(ctx context.Context, input *RegistrantIDRequest) (*struct{}, error) {
	adminID, err := h.authHandler.RequireAdmin(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var registrant models.Registrant
		if err := tx.First(&registrant, input.ID).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			return huma.Error404NotFound("Registrant not found")
		} else if err != nil {
			return err
		}
		return tx.Select("DaysAttending").Delete(&registrant).Error
	})
	if err != nil {
		return nil, asStatusError(err, "Failed to delete registrant")
	}

	log.Info().Uint("registrant_id", input.ID).Uint("admin_id", adminID).Msg("Registrant deleted")
	return nil, nil
}
